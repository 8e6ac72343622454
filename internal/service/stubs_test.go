package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/repository"
	"jourdash/internal/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────

// memStore backs every stub repository so that services see one consistent
// data set. Rows are copied on read and write.
type memStore struct {
	mu        sync.Mutex
	receipts  map[uuid.UUID]model.GoodsReceipt
	lines     map[uuid.UUID]model.ReceiptLine
	units     map[uuid.UUID]model.Unit
	activity  []model.Activity
	suppliers map[string]model.Supplier
	reports   map[uuid.UUID]model.ReconciliationReport
	models    []model.SKUModel
	colors    []model.SKUColor

	// supplierErr simulates a directory outage
	supplierErr error
}

func newMemStore() *memStore {
	return &memStore{
		receipts: make(map[uuid.UUID]model.GoodsReceipt),
		lines:    make(map[uuid.UUID]model.ReceiptLine),
		units:    make(map[uuid.UUID]model.Unit),
		suppliers: map[string]model.Supplier{
			"SUP-001": {ID: "SUP-001", Name: "Tehran Textiles", Active: true},
			"SUP-002": {ID: "SUP-002", Name: "Tabriz Leather", Active: true},
			"SUP-OLD": {ID: "SUP-OLD", Name: "Closed Supplier", Active: false},
		},
		reports: make(map[uuid.UUID]model.ReconciliationReport),
	}
}

func (m *memStore) unitsOf(receiptID uuid.UUID) []model.Unit {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Unit
	for _, u := range m.units {
		if u.ReceiptID == receiptID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out
}

func (m *memStore) activityActions(receiptID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.activity {
		if a.ReceiptID != nil && *a.ReceiptID == receiptID {
			out = append(out, a.Action)
		}
	}
	return out
}

// ── Receipts ──────────────────────────────────────────────────────────────────

type stubReceiptRepo struct{ s *memStore }

func (r *stubReceiptRepo) CreateTx(_ *gorm.DB, rc *model.GoodsReceipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.receipts {
		if existing.ReceiptNo == rc.ReceiptNo {
			return repository.ErrDuplicate
		}
	}
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	now := time.Now()
	rc.CreatedAt, rc.UpdatedAt = now, now
	r.s.receipts[rc.ID] = *rc
	return nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rc, nil
}

func (r *stubReceiptRepo) List(_ context.Context, f dto.ReceiptFilter) ([]model.GoodsReceipt, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.GoodsReceipt
	for _, rc := range r.s.receipts {
		if f.Status != "" && string(rc.Status) != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(rc.ReceiptNo, f.Query) && !strings.Contains(rc.SupplierName, f.Query) {
			continue
		}
		all = append(all, rc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ReceiptNo > all[j].ReceiptNo })
	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubReceiptRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.GoodsReceipt, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubReceiptRepo) UpdateTx(_ *gorm.DB, rc *model.GoodsReceipt, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.receipts[rc.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	rc.Version = expectedVersion + 1
	rc.UpdatedAt = time.Now()
	r.s.receipts[rc.ID] = *rc
	return nil
}

func (r *stubReceiptRepo) DB() *gorm.DB { return nil }

var _ repository.ReceiptRepository = (*stubReceiptRepo)(nil)

// ── Lines ─────────────────────────────────────────────────────────────────────

type stubLineRepo struct{ s *memStore }

func (r *stubLineRepo) ListByReceipt(_ context.Context, receiptID uuid.UUID) ([]model.ReceiptLine, error) {
	return r.ListByReceiptTx(nil, receiptID)
}

func (r *stubLineRepo) CountByReceipts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, id := range ids {
		for _, l := range r.s.lines {
			if l.ReceiptID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (r *stubLineRepo) ListByReceiptTx(_ *gorm.DB, receiptID uuid.UUID) ([]model.ReceiptLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ReceiptLine
	for _, l := range r.s.lines {
		if l.ReceiptID == receiptID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKUCode < out[j].SKUCode })
	return out, nil
}

func (r *stubLineRepo) FindByIDTx(_ *gorm.DB, receiptID, lineID uuid.UUID) (*model.ReceiptLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[lineID]
	if !ok || l.ReceiptID != receiptID {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *stubLineRepo) FindBySKUTx(_ *gorm.DB, receiptID uuid.UUID, skuCode string) (*model.ReceiptLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.ReceiptID == receiptID && l.SKUCode == skuCode {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLineRepo) CreateTx(_ *gorm.DB, l *model.ReceiptLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt, l.UpdatedAt = time.Now(), time.Now()
	r.s.lines[l.ID] = *l
	return nil
}

func (r *stubLineRepo) UpdateTx(_ *gorm.DB, l *model.ReceiptLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.UpdatedAt = time.Now()
	r.s.lines[l.ID] = *l
	return nil
}

func (r *stubLineRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.lines, id)
	return nil
}

func (r *stubLineRepo) CopyExpectedToCountedTx(_ *gorm.DB, receiptID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.lines {
		if l.ReceiptID == receiptID {
			l.CountedQty = l.ExpectedQty
			r.s.lines[id] = l
		}
	}
	return nil
}

var _ repository.LineRepository = (*stubLineRepo)(nil)

// ── Units ─────────────────────────────────────────────────────────────────────

type stubUnitRepo struct{ s *memStore }

func (r *stubUnitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubUnitRepo) FindByBarcode(_ context.Context, barcode string) (*model.Unit, error) {
	return r.FindByBarcodeForUpdate(nil, barcode)
}

func (r *stubUnitRepo) ListByReceipt(_ context.Context, receiptID uuid.UUID) ([]model.Unit, error) {
	return r.s.unitsOf(receiptID), nil
}

func (r *stubUnitRepo) CountByReceipts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, id := range ids {
		for _, u := range r.s.units {
			if u.ReceiptID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (r *stubUnitRepo) ExistingBarcodes(_ context.Context, barcodes []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	taken := make(map[string]bool, len(r.s.units))
	for _, u := range r.s.units {
		taken[u.Barcode] = true
	}
	var out []string
	for _, b := range barcodes {
		if taken[b] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubUnitRepo) MaxBarcode(_ context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := ""
	for _, u := range r.s.units {
		if u.Barcode > max {
			max = u.Barcode
		}
	}
	return max, nil
}

func (r *stubUnitRepo) CreateBatchTx(_ *gorm.DB, units []model.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool, len(r.s.units))
	for _, u := range r.s.units {
		seen[u.Barcode] = true
	}
	for _, u := range units {
		if seen[u.Barcode] {
			return &repository.DuplicateError{Constraint: "idx_goods_receipt_units_barcode"}
		}
		seen[u.Barcode] = true
	}
	for _, u := range units {
		u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
		r.s.units[u.ID] = u
	}
	return nil
}

func (r *stubUnitRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *stubUnitRepo) FindByBarcodeForUpdate(_ *gorm.DB, barcode string) (*model.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.units {
		if u.Barcode == barcode {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUnitRepo) UpdateTx(_ *gorm.DB, u *model.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.units[u.ID] = *u
	return nil
}

func (r *stubUnitRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.units, id)
	return nil
}

func (r *stubUnitRepo) DeleteByLineTx(_ *gorm.DB, lineID uuid.UUID) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for id, u := range r.s.units {
		if u.LineID == lineID {
			out = append(out, u.Barcode)
			delete(r.s.units, id)
		}
	}
	return out, nil
}

func (r *stubUnitRepo) AdvanceStageTx(_ *gorm.DB, receiptID uuid.UUID, from, to model.UnitStage) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for id, u := range r.s.units {
		if u.ReceiptID == receiptID && u.Stage == from {
			u.Stage = to
			r.s.units[id] = u
			out = append(out, u.Barcode)
		}
	}
	return out, nil
}

var _ repository.UnitRepository = (*stubUnitRepo)(nil)

// ── Activity, suppliers, registry, reports ───────────────────────────────────

type stubActivityRepo struct{ s *memStore }

func (r *stubActivityRepo) Create(_ context.Context, a *model.Activity) error {
	return r.CreateTx(nil, a)
}

func (r *stubActivityRepo) CreateTx(_ *gorm.DB, a *model.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	r.s.activity = append(r.s.activity, *a)
	return nil
}

func (r *stubActivityRepo) ListByReceipt(_ context.Context, receiptID uuid.UUID) ([]model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Activity
	for _, a := range r.s.activity {
		if a.ReceiptID != nil && *a.ReceiptID == receiptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubActivityRepo) ListByUnit(_ context.Context, unitID uuid.UUID) ([]model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Activity
	for _, a := range r.s.activity {
		if a.UnitID != nil && *a.UnitID == unitID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ repository.ActivityRepository = (*stubActivityRepo)(nil)

type stubSupplierRepo struct{ s *memStore }

func (r *stubSupplierRepo) FindByID(_ context.Context, id string) (*model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.supplierErr != nil {
		return nil, r.s.supplierErr
	}
	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sup, nil
}

func (r *stubSupplierRepo) ListActive(_ context.Context) ([]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.supplierErr != nil {
		return nil, r.s.supplierErr
	}
	var out []model.Supplier
	for _, sup := range r.s.suppliers {
		if sup.Active {
			out = append(out, sup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

type stubRegistryRepo struct{ s *memStore }

func (r *stubRegistryRepo) ListModels(_ context.Context, query string) ([]model.SKUModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.SKUModel
	for _, m := range r.s.models {
		if query == "" || strings.Contains(m.Name, query) || strings.HasPrefix(m.Code, query) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRegistryRepo) CreateModel(_ context.Context, m *model.SKUModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.models {
		if existing.Code == m.Code {
			return &repository.DuplicateError{Constraint: "idx_sku_models_code"}
		}
	}
	m.ID = uuid.New()
	r.s.models = append(r.s.models, *m)
	return nil
}

func (r *stubRegistryRepo) ListColors(_ context.Context, query string) ([]model.SKUColor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.SKUColor
	for _, c := range r.s.colors {
		if query == "" || strings.Contains(c.Name, query) || strings.HasPrefix(c.Code, query) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubRegistryRepo) CreateColor(_ context.Context, c *model.SKUColor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.colors {
		if existing.Code == c.Code {
			return &repository.DuplicateError{Constraint: "idx_sku_colors_code"}
		}
	}
	c.ID = uuid.New()
	r.s.colors = append(r.s.colors, *c)
	return nil
}

var _ repository.RegistryRepository = (*stubRegistryRepo)(nil)

type stubReportRepo struct{ s *memStore }

func (r *stubReportRepo) CreateTx(_ *gorm.DB, rp *model.ReconciliationReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reports[rp.ReceiptID]; ok {
		return repository.ErrDuplicate
	}
	rp.ID = uuid.New()
	r.s.reports[rp.ReceiptID] = *rp
	return nil
}

func (r *stubReportRepo) FindByReceipt(_ context.Context, receiptID uuid.UUID) (*model.ReconciliationReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rp, ok := r.s.reports[receiptID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rp, nil
}

func (r *stubReportRepo) Update(_ context.Context, rp *model.ReconciliationReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reports[rp.ReceiptID] = *rp
	return nil
}

func (r *stubReportRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.ReconciliationReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ReconciliationReport
	for _, rp := range r.s.reports {
		if rp.Status == model.ReportPending && rp.NextRetryAt != nil && !rp.NextRetryAt.After(now) {
			out = append(out, rp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.ReportRepository = (*stubReportRepo)(nil)

// ── Sequencer, queue, cache ───────────────────────────────────────────────────

type memSequencer struct {
	mu   sync.Mutex
	vals map[string]int64
	err  error
}

func newMemSequencer() *memSequencer { return &memSequencer{vals: make(map[string]int64)} }

func (q *memSequencer) Next(_ context.Context, key string, n int64) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return 0, q.err
	}
	q.vals[key] += n
	return q.vals[key], nil
}

func (q *memSequencer) EnsureAtLeast(_ context.Context, key string, floor int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.vals[key] < floor {
		q.vals[key] = floor
	}
	return nil
}

type recordingQueue struct {
	mu       sync.Mutex
	enqueued []string
	err      error
}

func (q *recordingQueue) EnqueueReport(_ context.Context, receiptID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, receiptID)
	return nil
}

var _ service.ReportQueue = (*recordingQueue)(nil)

type mapCache struct {
	mu          sync.Mutex
	entries     map[string]dto.UnitResponse
	hits        int
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]dto.UnitResponse)} }

func (c *mapCache) Get(_ context.Context, barcode string) (*dto.UnitResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[barcode]
	if ok {
		c.hits++
	}
	return &u, ok
}

func (c *mapCache) Set(_ context.Context, u dto.UnitResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.Barcode] = u
}

func (c *mapCache) Invalidate(_ context.Context, barcodes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range barcodes {
		delete(c.entries, b)
		c.invalidated = append(c.invalidated, b)
	}
}

var _ service.UnitCache = (*mapCache)(nil)

var errDirectoryDown = errors.New("dial tcp: connection refused")
