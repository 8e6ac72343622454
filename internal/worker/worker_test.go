package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"jourdash/internal/infra"
	"jourdash/internal/model"
	"jourdash/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// Each stub embeds its interface and implements only what the worker calls.

type stubReports struct {
	repository.ReportRepository
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.ReconciliationReport
	updates int
}

func (s *stubReports) FindByReceipt(_ context.Context, id uuid.UUID) (*model.ReconciliationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rp
	return &cp, nil
}

func (s *stubReports) Update(_ context.Context, rp *model.ReconciliationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rp
	s.rows[rp.ReceiptID] = &cp
	s.updates++
	return nil
}

func (s *stubReports) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.ReconciliationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ReconciliationReport
	for _, rp := range s.rows {
		if rp.Status == model.ReportPending && rp.NextRetryAt != nil && !rp.NextRetryAt.After(now) {
			out = append(out, *rp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubReceipts struct {
	repository.ReceiptRepository
	rows map[uuid.UUID]*model.GoodsReceipt
}

func (s *stubReceipts) FindByID(_ context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	rc, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rc, nil
}

type stubLines struct {
	repository.LineRepository
	rows []model.ReceiptLine
}

func (s *stubLines) ListByReceipt(_ context.Context, id uuid.UUID) ([]model.ReceiptLine, error) {
	var out []model.ReceiptLine
	for _, l := range s.rows {
		if l.ReceiptID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

type stubUnits struct {
	repository.UnitRepository
	count int64
}

func (s *stubUnits) CountByReceipts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		out[id] = s.count
	}
	return out, nil
}

type memStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	putErr error
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.files[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ infra.ReportStore = (*memStore)(nil)

type recordingQueue struct {
	reports []string
	emails  []EmailJobPayload
	err     error
}

func (q *recordingQueue) EnqueueReport(_ context.Context, id string) error {
	if q.err != nil {
		return q.err
	}
	q.reports = append(q.reports, id)
	return nil
}

func (q *recordingQueue) EnqueueEmail(_ context.Context, p EmailJobPayload) error {
	q.emails = append(q.emails, p)
	return nil
}

type recordingDLQ struct {
	entries []DLQEntry
}

func (d *recordingDLQ) Send(_ context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	d.entries = append(d.entries, DLQEntry{OriginalQueue: queue, JobType: jobType, Payload: payload, Reason: reason, Attempts: attempts})
}

type fakeMailer struct {
	configured bool
	err        error
	sent       int
	lastFile   string
	lastData   []byte
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(_, _, _, filename string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	m.lastFile = filename
	m.lastData = data
	return nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 10, 14, 17, 0, 0, 0, time.UTC)

type reportEnv struct {
	receiptID uuid.UUID
	reports   *stubReports
	store     *memStore
	queue     *recordingQueue
	worker    *ReportWorker
}

func newReportEnv(t *testing.T, status model.ReceiptStatus) *reportEnv {
	t.Helper()
	id := uuid.New()
	by := "supervisor-1"
	at := fixedNow.Add(-time.Hour)
	receipts := &stubReceipts{rows: map[uuid.UUID]*model.GoodsReceipt{id: {
		ID: id, ReceiptNo: "WRC-202610-0001", SupplierID: "SUP-001", SupplierName: "Tehran Textiles",
		ReceiptDate: fixedNow, Status: status, ReconciledBy: &by, ReconciledAt: &at,
	}}}
	lines := &stubLines{rows: []model.ReceiptLine{
		{ID: uuid.New(), ReceiptID: id, SKUCode: "JOW11123000102", ExpectedQty: 50, CountedQty: 48},
	}}
	env := &reportEnv{
		receiptID: id,
		reports: &stubReports{rows: map[uuid.UUID]*model.ReconciliationReport{
			id: {ID: uuid.New(), ReceiptID: id, Status: model.ReportPending},
		}},
		store: &memStore{files: map[string][]byte{}},
		queue: &recordingQueue{},
	}
	env.worker = NewReportWorker(ReportWorkerDeps{
		Reports: env.reports, Receipts: receipts, Lines: lines, Units: &stubUnits{count: 50},
		Store: env.store, Emails: env.queue, NotifyTo: "ops@example.com",
		Attempts: 1, Now: func() time.Time { return fixedNow },
	})
	return env
}

func (e *reportEnv) payload() json.RawMessage {
	raw, _ := json.Marshal(ReportJobPayload{ReceiptID: e.receiptID.String()})
	return raw
}

// ── Report worker ─────────────────────────────────────────────────────────────

func TestReportWorker_GeneratesAndNotifies(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)

	require.NoError(t, env.worker.Process(context.Background(), env.payload()))

	rp := env.reports.rows[env.receiptID]
	assert.Equal(t, model.ReportGenerated, rp.Status)
	require.NotNil(t, rp.ObjectKey)
	assert.Equal(t, ReportKey(env.receiptID), *rp.ObjectKey)
	assert.True(t, bytes.HasPrefix(env.store.files[*rp.ObjectKey], []byte("%PDF")))

	require.Len(t, env.queue.emails, 1)
	mail := env.queue.emails[0]
	assert.Equal(t, "ops@example.com", mail.ToEmail)
	assert.Equal(t, "WRC-202610-0001.pdf", mail.Filename)
	assert.Contains(t, mail.Body, "Variance: 2")
}

func TestReportWorker_AlreadyGeneratedIsNoop(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)
	env.reports.rows[env.receiptID].Status = model.ReportGenerated

	require.NoError(t, env.worker.Process(context.Background(), env.payload()))
	assert.Zero(t, env.reports.updates)
	assert.Empty(t, env.store.files)
}

func TestReportWorker_StoreFailureSchedulesRetry(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)
	env.store.putErr = errors.New("disk full")

	err := env.worker.Process(context.Background(), env.payload())
	require.Error(t, err)

	rp := env.reports.rows[env.receiptID]
	assert.Equal(t, model.ReportPending, rp.Status)
	assert.Equal(t, 1, rp.RetryCount)
	require.NotNil(t, rp.NextRetryAt)
	assert.Equal(t, fixedNow.Add(time.Minute), *rp.NextRetryAt)
	require.NotNil(t, rp.LastError)
	assert.Contains(t, *rp.LastError, "disk full")
	assert.Empty(t, env.queue.emails)
}

func TestReportWorker_RejectsUnreconciledReceipt(t *testing.T) {
	env := newReportEnv(t, model.ReceiptCounting)

	err := env.worker.Process(context.Background(), env.payload())
	assert.ErrorContains(t, err, "not reconciled")
}

func TestReportWorker_InvalidPayload(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)
	assert.Error(t, env.worker.Process(context.Background(), json.RawMessage(`{"receipt_id":"x"}`)))
}

// ── Retry cron ────────────────────────────────────────────────────────────────

func TestProcessRetries_ReenqueuesDueReports(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)
	due := fixedNow.Add(-time.Minute)
	env.reports.rows[env.receiptID].NextRetryAt = &due
	env.reports.rows[env.receiptID].RetryCount = 1
	dlq := &recordingDLQ{}

	cfg := RetryCronConfig{Reports: env.reports, Queue: env.queue, DLQ: dlq, Now: func() time.Time { return fixedNow }}.withDefaults()
	processRetries(context.Background(), cfg)

	assert.Equal(t, []string{env.receiptID.String()}, env.queue.reports)
	assert.Empty(t, dlq.entries)
	rp := env.reports.rows[env.receiptID]
	require.NotNil(t, rp.NextRetryAt)
	assert.True(t, rp.NextRetryAt.After(fixedNow), "the lease keeps the next tick from enqueueing it twice")

	processRetries(context.Background(), cfg)
	assert.Len(t, env.queue.reports, 1)
}

func TestProcessRetries_ExhaustedGoesToDLQ(t *testing.T) {
	env := newReportEnv(t, model.ReceiptReconciled)
	due := fixedNow.Add(-time.Minute)
	lastErr := "minio: connection refused"
	rp := env.reports.rows[env.receiptID]
	rp.NextRetryAt = &due
	rp.RetryCount = MaxReportRetries
	rp.LastError = &lastErr
	dlq := &recordingDLQ{}

	cfg := RetryCronConfig{Reports: env.reports, Queue: env.queue, DLQ: dlq, Now: func() time.Time { return fixedNow }}.withDefaults()
	processRetries(context.Background(), cfg)

	assert.Empty(t, env.queue.reports)
	assert.Equal(t, model.ReportFailed, env.reports.rows[env.receiptID].Status)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, QueueReport, dlq.entries[0].OriginalQueue)
	assert.Contains(t, dlq.entries[0].Reason, lastErr)
}

// ── Email worker ──────────────────────────────────────────────────────────────

func emailPayload(key string) json.RawMessage {
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "ops@example.com", Subject: "s", Body: "b", ObjectKey: key, Filename: "WRC.pdf"})
	return raw
}

func TestEmailWorker_AttachesStoredReport(t *testing.T) {
	store := &memStore{files: map[string][]byte{"reports/a.pdf": []byte("%PDF-1.3")}}
	mailer := &fakeMailer{configured: true}
	w := NewEmailWorker(mailer, store, nil)

	require.NoError(t, w.Process(context.Background(), emailPayload("reports/a.pdf")))
	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, "WRC.pdf", mailer.lastFile)
	assert.Equal(t, []byte("%PDF-1.3"), mailer.lastData)
}

func TestEmailWorker_SkipsWhenUnconfigured(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewEmailWorker(mailer, nil, nil)

	assert.NoError(t, w.Process(context.Background(), emailPayload("")))
	assert.Zero(t, mailer.sent)
}

func TestEmailWorker_BreakerFailsFast(t *testing.T) {
	mailer := &fakeMailer{configured: true, err: errors.New("smtp: 421 service not available")}
	cb := infra.NewCircuitBreaker("mail", infra.CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour})
	w := NewEmailWorker(mailer, nil, cb)

	for i := 0; i < 2; i++ {
		assert.Error(t, w.Process(context.Background(), emailPayload("")))
	}
	err := w.Process(context.Background(), emailPayload(""))
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

// ── Pool helpers ──────────────────────────────────────────────────────────────

func TestDispatch_UnknownType(t *testing.T) {
	err := dispatch(context.Background(), &WorkerHandlers{}, Job{Type: "inventory_sync"})
	assert.ErrorIs(t, err, errUnknownJobType)
}

func TestProcessJob_FailureGoesToDLQ(t *testing.T) {
	env := newReportEnv(t, model.ReceiptCounting)
	dlq := &recordingDLQ{}
	raw, err := encodeJob(JobReport, ReportJobPayload{ReceiptID: env.receiptID.String()})
	require.NoError(t, err)

	processJob(context.Background(), &WorkerHandlers{Report: env.worker}, dlq, 0, QueueReport, string(raw))

	require.Len(t, dlq.entries, 1)
	assert.Equal(t, JobReport, dlq.entries[0].JobType)
}

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, func(int) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, 3, func(int) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 4*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, time.Hour, computeRetryBackoff(20))
}
