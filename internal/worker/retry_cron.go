package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues reconciliation reports
// stuck in status 'pending' with a next_retry_at in the past. Reports that
// ran out of retries are marked failed and sent to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jourdash/internal/model"
	"jourdash/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// ReportEnqueuer re-schedules report jobs.
type ReportEnqueuer interface {
	EnqueueReport(ctx context.Context, receiptID string) error
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Reports    repository.ReportRepository
	Queue      ReportEnqueuer
	DLQ        DeadLetters
	MaxRetries int
	Interval   time.Duration
	Now        func() time.Time
}

// StartRetryCron launches a background goroutine that ticks every interval
// (30s by default) and re-enqueues due reports. It respects the context for
// graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	cfg = cfg.withDefaults()
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func (cfg RetryCronConfig) withDefaults() RetryCronConfig {
	if cfg.Interval <= 0 {
		cfg.Interval = retryTickInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = MaxReportRetries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := cfg.Now()
	reports, err := cfg.Reports.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(reports) == 0 {
		return
	}

	log.Info().Int("count", len(reports)).Msg("retry_cron: processing pending reports")

	for i := range reports {
		rp := &reports[i]
		receiptID := rp.ReceiptID.String()

		if rp.RetryCount >= cfg.MaxRetries {
			rp.Status = model.ReportFailed
			rp.NextRetryAt = nil
			if err := cfg.Reports.Update(ctx, rp); err != nil {
				log.Error().Err(err).Str("receipt_id", receiptID).Msg("retry_cron: failed to mark report failed")
				continue
			}
			reason := fmt.Sprintf("max retries (%d) exceeded", cfg.MaxRetries)
			if rp.LastError != nil {
				reason += ": " + *rp.LastError
			}
			payload, _ := json.Marshal(ReportJobPayload{ReceiptID: receiptID})
			cfg.DLQ.Send(ctx, QueueReport, JobReport, payload, reason, rp.RetryCount)
			log.Error().
				Str("receipt_id", receiptID).
				Int("retries", rp.RetryCount).
				Msg("retry_cron: max retries exceeded, report marked failed")
			continue
		}

		// Push next_retry_at out so the next tick does not enqueue it again
		// while the job is still queued.
		lease := now.Add(computeRetryBackoff(rp.RetryCount + 1))
		rp.NextRetryAt = &lease
		if err := cfg.Reports.Update(ctx, rp); err != nil {
			log.Error().Err(err).Str("receipt_id", receiptID).Msg("retry_cron: failed to lease report")
			continue
		}
		if err := cfg.Queue.EnqueueReport(ctx, receiptID); err != nil {
			log.Warn().Err(err).Str("receipt_id", receiptID).Msg("retry_cron: enqueue failed, retried after the lease")
			continue
		}
		log.Info().
			Str("receipt_id", receiptID).
			Int("retry_count", rp.RetryCount).
			Msg("retry_cron: report re-enqueued")
	}
}
