package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReport = "jobs:report"
	QueueEmail  = "jobs:email"

	JobReport = "report"
	JobEmail  = "email"
)

var errUnknownJobType = errors.New("unknown job type")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Processor handles one job payload. A returned error sends the job to the DLQ.
type Processor interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// WorkerHandlers routes job types to their processors. Email may be nil.
type WorkerHandlers struct {
	Report Processor
	Email  Processor
}

func (h *WorkerHandlers) forType(jobType string) Processor {
	switch jobType {
	case JobReport:
		return h.Report
	case JobEmail:
		return h.Email
	}
	return nil
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReport schedules PDF generation for a reconciled receipt.
func (d *Dispatcher) EnqueueReport(ctx context.Context, receiptID string) error {
	return d.enqueue(ctx, QueueReport, JobReport, ReportJobPayload{ReceiptID: receiptID})
}

// EnqueueEmail pushes a notification job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, dlq DeadLetters, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, dlq, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, dlq DeadLetters, id int) {
	queues := []string{QueueReport, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("dequeue failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, dlq, id, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, handlers *WorkerHandlers, dlq DeadLetters, workerID int, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		dlq.Send(ctx, queue, "", json.RawMessage(`null`), "malformed envelope: "+err.Error(), 1)
		return
	}

	start := time.Now()
	if err := dispatch(ctx, handlers, job); err != nil {
		log.Error().
			Err(err).
			Int("worker", workerID).
			Str("job", job.Type).
			Str("queue", queue).
			Msg("job failed")
		dlq.Send(ctx, queue, job.Type, job.Payload, err.Error(), 1)
		return
	}
	log.Info().
		Int("worker", workerID).
		Str("job", job.Type).
		Dur("took", time.Since(start)).
		Msg("job done")
}

// dispatch routes job to its processor.
func dispatch(ctx context.Context, handlers *WorkerHandlers, job Job) error {
	p := handlers.forType(job.Type)
	if p == nil {
		return fmt.Errorf("%w: %q", errUnknownJobType, job.Type)
	}
	return p.Process(ctx, job.Payload)
}
