package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/reconcile"
	"jourdash/internal/repository"
	"jourdash/internal/sku"
	"jourdash/internal/unitgen"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GoodsReceiptService owns the receipt aggregate: header, lines, units and the
// draft → counting → reconciled state machine.
type GoodsReceiptService interface {
	Create(ctx context.Context, actor string, req dto.CreateReceiptRequest) (*dto.ReceiptDetailResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ReceiptDetailResponse, error)
	List(ctx context.Context, filter dto.ReceiptFilter) (*dto.ReceiptListResponse, error)
	UpdateHeader(ctx context.Context, actor string, id uuid.UUID, req dto.UpdateReceiptRequest) (*dto.ReceiptDetailResponse, error)

	ListLines(ctx context.Context, id uuid.UUID) ([]dto.LineResponse, error)
	AddLine(ctx context.Context, actor string, id uuid.UUID, req dto.AddLineRequest) (*dto.AddLineResponse, error)
	UpdateCounted(ctx context.Context, actor string, id, lineID uuid.UUID, req dto.UpdateCountedRequest) (*dto.LineResponse, error)
	DeleteLine(ctx context.Context, actor string, id, lineID uuid.UUID) error
	GenerateUnits(ctx context.Context, actor string, id, lineID uuid.UUID, req dto.GenerateUnitsRequest) (*dto.GenerateUnitsResponse, error)
	ListUnits(ctx context.Context, id uuid.UUID) ([]dto.UnitResponse, error)
	DeleteUnit(ctx context.Context, actor string, unitID uuid.UUID) error

	EnterCounting(ctx context.Context, actor string, id uuid.UUID) (*dto.ReceiptDetailResponse, error)
	Reconcile(ctx context.Context, actor string, id uuid.UUID, req dto.ReconcileRequest) (*dto.ReceiptDetailResponse, error)
	Summary(ctx context.Context, id uuid.UUID) (*reconcile.Summary, error)
	Activity(ctx context.Context, id uuid.UUID) ([]dto.ActivityResponse, error)
}

// UnitGenerator issues barcodes and tech codes for new units.
type UnitGenerator interface {
	Generate(ctx context.Context, quantity int, skuCode string) ([]unitgen.Unit, error)
}

// ReportQueue schedules the reconciliation report job.
type ReportQueue interface {
	EnqueueReport(ctx context.Context, receiptID string) error
}

// GoodsReceiptDeps groups the collaborators of the receipt service.
// Queue and Cache are optional.
type GoodsReceiptDeps struct {
	Receipts  repository.ReceiptRepository
	Lines     repository.LineRepository
	Units     repository.UnitRepository
	Activity  repository.ActivityRepository
	Suppliers repository.SupplierRepository
	Reports   repository.ReportRepository
	SKU       *sku.Generator
	UnitGen   UnitGenerator
	Sequencer unitgen.Sequencer
	Locker    Locker
	Queue     ReportQueue
	Cache     UnitCache
	Now       func() time.Time
}

type goodsReceiptService struct {
	receipts  repository.ReceiptRepository
	lines     repository.LineRepository
	units     repository.UnitRepository
	activity  repository.ActivityRepository
	suppliers repository.SupplierRepository
	reports   repository.ReportRepository
	sku       *sku.Generator
	unitGen   UnitGenerator
	seq       unitgen.Sequencer
	locker    Locker
	queue     ReportQueue
	cache     UnitCache
	now       func() time.Time
}

func NewGoodsReceiptService(d GoodsReceiptDeps) GoodsReceiptService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Locker == nil {
		d.Locker = NewLocalLocker()
	}
	if d.SKU == nil {
		d.SKU = sku.NewGenerator(sku.PolicyFallback)
	}
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	return &goodsReceiptService{
		receipts:  d.Receipts,
		lines:     d.Lines,
		units:     d.Units,
		activity:  d.Activity,
		suppliers: d.Suppliers,
		reports:   d.Reports,
		sku:       d.SKU,
		unitGen:   d.UnitGen,
		seq:       d.Sequencer,
		locker:    d.Locker,
		queue:     d.Queue,
		cache:     d.Cache,
		now:       d.Now,
	}
}

// reportRetryDelay is how long the retry cron waits before re-enqueueing a
// report whose first job never completed.
const reportRetryDelay = 5 * time.Minute

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// mutate runs fn with the receipt locked twice: the distributed per-receipt
// lock, then SELECT … FOR UPDATE inside the transaction. The header is
// written back with an optimistic version check after fn succeeds.
func (s *goodsReceiptService) mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, rc *model.GoodsReceipt) error) error {
	unlock, err := s.locker.Lock(ctx, receiptLockKey(id.String()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer unlock()

	return runTx(ctx, s.receipts.DB(), func(tx *gorm.DB) error {
		rc, err := s.receipts.FindByIDForUpdate(tx, id)
		if err != nil {
			return notFound(err)
		}
		version := rc.Version
		if err := fn(tx, rc); err != nil {
			return err
		}
		if err := s.receipts.UpdateTx(tx, rc, version); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return ErrVersionConflict
			}
			return err
		}
		return nil
	})
}

func requireStatus(rc *model.GoodsReceipt, field string, want model.ReceiptStatus) error {
	if rc.Status == want {
		return nil
	}
	return &StateConflictError{Entity: "receipt", Field: field, Status: string(rc.Status)}
}

func notFound(err error) error {
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *goodsReceiptService) Create(ctx context.Context, actor string, req dto.CreateReceiptRequest) (*dto.ReceiptDetailResponse, error) {
	receiptDate, err := parseDate("receipt_date", req.ReceiptDate)
	if err != nil {
		return nil, err
	}
	invoiceDate, err := parseOptionalDate("supplier_invoice_date", req.SupplierInvoiceDate)
	if err != nil {
		return nil, err
	}

	// Supplier lookup happens before the transaction so a directory failure
	// leaves nothing behind.
	supplier, err := s.lookupSupplier(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}

	receiptNo, err := s.nextReceiptNo(ctx)
	if err != nil {
		return nil, err
	}

	rc := &model.GoodsReceipt{
		ReceiptNo:           receiptNo,
		SupplierID:          supplier.ID,
		SupplierName:        supplier.Name,
		SupplierInvoiceNo:   req.SupplierInvoiceNo,
		SupplierInvoiceDate: invoiceDate,
		ReceiptDate:         receiptDate,
		Status:              model.ReceiptDraft,
		Version:             1,
		CreatedBy:           actor,
	}

	err = runTx(ctx, s.receipts.DB(), func(tx *gorm.DB) error {
		if err := s.receipts.CreateTx(tx, rc); err != nil {
			return err
		}
		return s.activity.CreateTx(tx, receiptActivity(rc, actor, "created",
			"receipt "+rc.ReceiptNo+" created", "", model.ReceiptDraft, map[string]any{
				"supplier_id": supplier.ID,
			}))
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("receipt_no", rc.ReceiptNo).Str("actor", actor).Msg("goods receipt created")
	return s.Get(ctx, rc.ID)
}

func (s *goodsReceiptService) lookupSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	sup, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewValidationError("supplier_id", "not_found")
		}
		return nil, &IntegrationError{Dependency: "supplier directory", Err: err}
	}
	if !sup.Active {
		return nil, NewValidationError("supplier_id", "inactive")
	}
	return sup, nil
}

// nextReceiptNo formats WRC-YYYYMM-NNNN from a per-month sequence.
func (s *goodsReceiptService) nextReceiptNo(ctx context.Context) (string, error) {
	period := s.now().Format("200601")
	n, err := s.seq.Next(ctx, "seq:gr:"+period, 1)
	if err != nil {
		return "", fmt.Errorf("receipt number: %w", err)
	}
	return fmt.Sprintf("WRC-%s-%04d", period, n), nil
}

// ── Read side ────────────────────────────────────────────────────────────────

func (s *goodsReceiptService) Get(ctx context.Context, id uuid.UUID) (*dto.ReceiptDetailResponse, error) {
	rc, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	lines, err := s.lines.ListByReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	unitCounts, err := s.units.CountByReceipts(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	units := unitCounts[id]

	resp := toReceiptResponse(rc, int64(len(lines)), units)
	return &dto.ReceiptDetailResponse{
		ReceiptResponse: resp,
		Summary:         reconcile.Compute(toLineInputs(lines), int(units)),
	}, nil
}

func (s *goodsReceiptService) List(ctx context.Context, filter dto.ReceiptFilter) (*dto.ReceiptListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	receipts, total, err := s.receipts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(receipts))
	for _, rc := range receipts {
		ids = append(ids, rc.ID)
	}
	lineCounts, err := s.lines.CountByReceipts(ctx, ids)
	if err != nil {
		return nil, err
	}
	unitCounts, err := s.units.CountByReceipts(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		rc := &receipts[i]
		data = append(data, toReceiptResponse(rc, lineCounts[rc.ID], unitCounts[rc.ID]))
	}
	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.ReceiptListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: pages,
	}, nil
}

func (s *goodsReceiptService) Summary(ctx context.Context, id uuid.UUID) (*reconcile.Summary, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &detail.Summary, nil
}

func (s *goodsReceiptService) Activity(ctx context.Context, id uuid.UUID) ([]dto.ActivityResponse, error) {
	if _, err := s.receipts.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	entries, err := s.activity.ListByReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	return toActivityResponses(entries), nil
}

// ── UpdateHeader ─────────────────────────────────────────────────────────────

func (s *goodsReceiptService) UpdateHeader(ctx context.Context, actor string, id uuid.UUID, req dto.UpdateReceiptRequest) (*dto.ReceiptDetailResponse, error) {
	var receiptDate *time.Time
	if req.ReceiptDate != nil {
		d, err := parseDate("receipt_date", *req.ReceiptDate)
		if err != nil {
			return nil, err
		}
		receiptDate = &d
	}
	invoiceDate, err := parseOptionalDate("supplier_invoice_date", req.SupplierInvoiceDate)
	if err != nil {
		return nil, err
	}
	var supplier *model.Supplier
	if req.SupplierID != nil {
		if supplier, err = s.lookupSupplier(ctx, *req.SupplierID); err != nil {
			return nil, err
		}
	}

	err = s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, headerField(req), model.ReceiptDraft); err != nil {
			return err
		}
		changed := map[string]any{}
		if supplier != nil && supplier.ID != rc.SupplierID {
			changed["supplier_id"] = map[string]string{"from": rc.SupplierID, "to": supplier.ID}
			rc.SupplierID = supplier.ID
			rc.SupplierName = supplier.Name
		}
		if receiptDate != nil {
			rc.ReceiptDate = *receiptDate
			changed["receipt_date"] = receiptDate.Format(dateLayout)
		}
		if req.SupplierInvoiceNo != nil {
			rc.SupplierInvoiceNo = *req.SupplierInvoiceNo
			changed["supplier_invoice_no"] = *req.SupplierInvoiceNo
		}
		if invoiceDate != nil {
			rc.SupplierInvoiceDate = invoiceDate
			changed["supplier_invoice_date"] = invoiceDate.Format(dateLayout)
		}
		return s.activity.CreateTx(tx, receiptActivity(rc, actor, "header_updated", "header updated", "", "", changed))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// headerField names the first field the request touches, for conflict messages.
func headerField(req dto.UpdateReceiptRequest) string {
	switch {
	case req.SupplierID != nil:
		return "supplier_id"
	case req.ReceiptDate != nil:
		return "receipt_date"
	case req.SupplierInvoiceNo != nil:
		return "supplier_invoice_no"
	case req.SupplierInvoiceDate != nil:
		return "supplier_invoice_date"
	}
	return "header"
}

// ── Transitions ──────────────────────────────────────────────────────────────

func (s *goodsReceiptService) EnterCounting(ctx context.Context, actor string, id uuid.UUID) (*dto.ReceiptDetailResponse, error) {
	var moved []string
	err := s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if !rc.Status.CanTransitionTo(model.ReceiptCounting) {
			return &StateConflictError{Entity: "receipt", Field: "status", Status: string(rc.Status)}
		}
		lines, err := s.lines.ListByReceiptTx(tx, rc.ID)
		if err != nil {
			return err
		}
		if !anyExpected(lines) {
			return &StateConflictError{
				Entity: "receipt", Field: "status", Status: string(rc.Status),
				Reason: "at least one line with an expected quantity is required",
			}
		}

		if err := s.lines.CopyExpectedToCountedTx(tx, rc.ID); err != nil {
			return err
		}
		moved, err = s.units.AdvanceStageTx(tx, rc.ID, model.StageCreated, model.StageCounting)
		if err != nil {
			return err
		}

		from := rc.Status
		rc.Status = model.ReceiptCounting
		return s.activity.CreateTx(tx, receiptActivity(rc, actor, "status_changed",
			"counting started", from, model.ReceiptCounting, map[string]any{
				"lines": len(lines),
				"units": len(moved),
			}))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, moved...)
	return s.Get(ctx, id)
}

func (s *goodsReceiptService) Reconcile(ctx context.Context, actor string, id uuid.UUID, req dto.ReconcileRequest) (*dto.ReceiptDetailResponse, error) {
	err := s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if !rc.Status.CanTransitionTo(model.ReceiptReconciled) {
			return &StateConflictError{Entity: "receipt", Field: "status", Status: string(rc.Status)}
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != rc.Version {
			return ErrVersionConflict
		}

		lines, err := s.lines.ListByReceiptTx(tx, rc.ID)
		if err != nil {
			return err
		}
		unitCounts, err := s.units.CountByReceipts(ctx, []uuid.UUID{rc.ID})
		if err != nil {
			return err
		}
		summary := reconcile.Compute(toLineInputs(lines), int(unitCounts[rc.ID]))
		if summary.RequiresConfirmation && !req.Confirm {
			return &ConfirmationRequiredError{Summary: summary}
		}

		now := s.now()
		from := rc.Status
		rc.Status = model.ReceiptReconciled
		rc.ReconciledBy = &actor
		rc.ReconciledAt = &now

		if err := s.activity.CreateTx(tx, receiptActivity(rc, actor, "status_changed",
			"receipt reconciled", from, model.ReceiptReconciled, map[string]any{
				"total_expected": summary.TotalExpected,
				"total_counted":  summary.TotalCounted,
				"total_variance": summary.TotalVariance,
				"net_variance":   summary.NetVariance,
				"variance_pct":   summary.VariancePct.String(),
				"classification": summary.Classification,
				"confirmed":      req.Confirm,
			})); err != nil {
			return err
		}

		retryAt := now.Add(reportRetryDelay)
		return s.reports.CreateTx(tx, &model.ReconciliationReport{
			ReceiptID:   rc.ID,
			Status:      model.ReportPending,
			NextRetryAt: &retryAt,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.queue != nil {
		if err := s.queue.EnqueueReport(ctx, id.String()); err != nil {
			// The retry cron picks the pending report up later.
			log.Warn().Err(err).Str("receipt_id", id.String()).Msg("failed to enqueue reconciliation report")
		}
	}
	log.Info().Str("receipt_id", id.String()).Str("actor", actor).Msg("goods receipt reconciled")
	return s.Get(ctx, id)
}

func anyExpected(lines []model.ReceiptLine) bool {
	for _, l := range lines {
		if l.ExpectedQty > 0 {
			return true
		}
	}
	return false
}

func toLineInputs(lines []model.ReceiptLine) []reconcile.LineInput {
	out := make([]reconcile.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, reconcile.LineInput{
			LineID:   l.ID,
			SKUCode:  l.SKUCode,
			Expected: l.ExpectedQty,
			Counted:  l.CountedQty,
		})
	}
	return out
}
