package worker

// dlq.go: Dead Letter Queue
// Jobs that fail after their in-job retries are moved here for manual
// inspection. Uses a Redis list per source queue: dlq:{original_queue}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DeadLetters receives jobs that will not be retried automatically.
type DeadLetters interface {
	Send(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int)
}

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// RedisDLQ stores dead letters in Redis lists.
type RedisDLQ struct {
	rdb *redis.Client
}

func NewRedisDLQ(rdb *redis.Client) *RedisDLQ { return &RedisDLQ{rdb: rdb} }

// Send pushes a failed job to the dead letter queue. Failures are only logged.
func (d *RedisDLQ) Send(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := d.rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// Length returns the number of entries in a DLQ for monitoring.
func (d *RedisDLQ) Length(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, DLQPrefix+queue).Result()
}
