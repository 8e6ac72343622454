package worker

// report_worker.go
// Builds the reconciliation PDF for a receipt, stores it and marks the report
// generated. Failed attempts are retried with exponential backoff inside the
// job; when they run out the report stays pending with next_retry_at set and
// the retry cron picks it up later.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jourdash/internal/infra"
	"jourdash/internal/model"
	"jourdash/internal/reconcile"
	"jourdash/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxReportRetries is the default number of cron-driven retries before a
// report is marked failed.
const MaxReportRetries = 5

const defaultJobAttempts = 3

// ReportJobPayload is the job envelope sent to QueueReport.
type ReportJobPayload struct {
	ReceiptID string `json:"receipt_id"`
}

// EmailQueue schedules notification mails.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// ReportWorkerDeps groups the report worker's collaborators. Emails and
// NotifyTo are optional.
type ReportWorkerDeps struct {
	Reports  repository.ReportRepository
	Receipts repository.ReceiptRepository
	Lines    repository.LineRepository
	Units    repository.UnitRepository
	Store    infra.ReportStore
	Emails   EmailQueue
	NotifyTo string
	// Attempts bounds the in-job retries (default 3)
	Attempts int
	Now      func() time.Time
}

// ReportWorker processes jobs from QueueReport.
type ReportWorker struct {
	d ReportWorkerDeps
}

func NewReportWorker(d ReportWorkerDeps) *ReportWorker {
	if d.Attempts <= 0 {
		d.Attempts = defaultJobAttempts
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &ReportWorker{d: d}
}

// ReportKey is the store key of a receipt's PDF.
func ReportKey(receiptID uuid.UUID) string {
	return "reports/" + receiptID.String() + ".pdf"
}

// Process handles a single report job:
//  1. Load the report row; an already generated report is a no-op
//  2. Load the reconciled receipt and compute its summary
//  3. Render and store the PDF with exponential backoff
//  4. Mark the report generated, or schedule the next retry
//  5. Optionally enqueue the notification mail
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("report_worker: invalid payload: %w", err)
	}
	receiptID, err := uuid.Parse(payload.ReceiptID)
	if err != nil {
		return fmt.Errorf("report_worker: invalid receipt_id %q", payload.ReceiptID)
	}

	rp, err := w.d.Reports.FindByReceipt(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("report_worker: find report: %w", err)
	}
	if rp.Status == model.ReportGenerated {
		log.Debug().Str("receipt_id", payload.ReceiptID).Msg("report_worker: already generated")
		return nil
	}

	in, err := w.load(ctx, receiptID)
	if err != nil {
		return w.fail(ctx, rp, err)
	}

	key := ReportKey(receiptID)
	var pdf []byte
	genErr := withRetry(ctx, w.d.Attempts, func(attempt int) error {
		data, err := infra.GenerateReconciliationPDF(*in)
		if err != nil {
			return err
		}
		if err := w.d.Store.Put(ctx, key, data); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("receipt_id", payload.ReceiptID).
				Msg("report_worker: store attempt failed, retrying")
			return err
		}
		pdf = data
		return nil
	})
	if genErr != nil {
		return w.fail(ctx, rp, genErr)
	}

	rp.Status = model.ReportGenerated
	rp.ObjectKey = &key
	rp.NextRetryAt = nil
	rp.LastError = nil
	if err := w.d.Reports.Update(ctx, rp); err != nil {
		return fmt.Errorf("report_worker: mark generated: %w", err)
	}
	log.Info().Str("receipt_id", payload.ReceiptID).Str("key", key).Int("bytes", len(pdf)).Msg("report_worker: report generated")

	if w.d.Emails != nil && w.d.NotifyTo != "" {
		job := EmailJobPayload{
			ToEmail:   w.d.NotifyTo,
			Subject:   fmt.Sprintf("Goods receipt %s reconciled", in.ReceiptNo),
			Body:      notificationBody(in),
			ObjectKey: key,
			Filename:  in.ReceiptNo + ".pdf",
		}
		if err := w.d.Emails.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("receipt_id", payload.ReceiptID).Msg("report_worker: failed to enqueue email")
		}
	}
	return nil
}

func (w *ReportWorker) load(ctx context.Context, receiptID uuid.UUID) (*infra.ReconciliationPDF, error) {
	rc, err := w.d.Receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	if rc.Status != model.ReceiptReconciled {
		return nil, fmt.Errorf("receipt %s is %s, not reconciled", rc.ReceiptNo, rc.Status)
	}
	lines, err := w.d.Lines.ListByReceipt(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	counts, err := w.d.Units.CountByReceipts(ctx, []uuid.UUID{receiptID})
	if err != nil {
		return nil, fmt.Errorf("count units: %w", err)
	}

	inputs := make([]reconcile.LineInput, 0, len(lines))
	for _, l := range lines {
		inputs = append(inputs, reconcile.LineInput{LineID: l.ID, SKUCode: l.SKUCode, Expected: l.ExpectedQty, Counted: l.CountedQty})
	}

	in := &infra.ReconciliationPDF{
		ReceiptNo:    rc.ReceiptNo,
		SupplierID:   rc.SupplierID,
		SupplierName: rc.SupplierName,
		InvoiceNo:    rc.SupplierInvoiceNo,
		ReceiptDate:  rc.ReceiptDate,
		Summary:      reconcile.Compute(inputs, int(counts[receiptID])),
	}
	if rc.ReconciledBy != nil {
		in.ReconciledBy = *rc.ReconciledBy
	}
	if rc.ReconciledAt != nil {
		in.ReconciledAt = *rc.ReconciledAt
	}
	return in, nil
}

// fail records the failed attempt and schedules the next one.
func (w *ReportWorker) fail(ctx context.Context, rp *model.ReconciliationReport, cause error) error {
	rp.RetryCount++
	msg := cause.Error()
	rp.LastError = &msg
	next := w.d.Now().Add(computeRetryBackoff(rp.RetryCount))
	rp.NextRetryAt = &next
	if err := w.d.Reports.Update(ctx, rp); err != nil {
		log.Error().Err(err).Str("receipt_id", rp.ReceiptID.String()).Msg("report_worker: failed to record retry")
	}
	return fmt.Errorf("report_worker: %w", cause)
}

func notificationBody(in *infra.ReconciliationPDF) string {
	s := in.Summary
	return fmt.Sprintf(
		"Receipt %s from %s was reconciled by %s.\nExpected: %d  Counted: %d  Variance: %d (%s%%, %s)\n",
		in.ReceiptNo, in.SupplierID, in.ReconciledBy,
		s.TotalExpected, s.TotalCounted, s.TotalVariance, s.VariancePct.StringFixed(2), s.Classification,
	)
}

// computeRetryBackoff is the delay before cron retry n: 1m, 2m, 4m … capped at 1h.
func computeRetryBackoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > 7 {
		return time.Hour
	}
	return time.Duration(1<<uint(n-1)) * time.Minute
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
