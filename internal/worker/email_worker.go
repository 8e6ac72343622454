package worker

// email_worker.go
// Processes notification jobs from QueueEmail. Sending goes through the mail
// circuit breaker so a dead relay fails fast.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"jourdash/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	ObjectKey string `json:"object_key,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// MailSender delivers one message.
type MailSender interface {
	Configured() bool
	Send(to, subject, body, filename string, data []byte) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer MailSender
	store  infra.ReportStore
	cb     *infra.CircuitBreaker
}

// NewEmailWorker creates an EmailWorker. store may be nil when mails carry no attachment.
func NewEmailWorker(mailer MailSender, store infra.ReportStore, cb *infra.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker("mail", infra.DefaultCBConfig())
	}
	return &EmailWorker{mailer: mailer, store: store, cb: cb}
}

// Process sends the notification with the stored report attached.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Configured() {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, skipping")
		return nil
	}

	var attachment []byte
	if payload.ObjectKey != "" && w.store != nil {
		data, err := w.readAttachment(ctx, payload.ObjectKey)
		if err != nil {
			return fmt.Errorf("email_worker: read attachment: %w", err)
		}
		attachment = data
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.Filename, attachment)
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		return fmt.Errorf("email_worker: relay unavailable: %w", err)
	}
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: notification sent")
	return nil
}

func (w *EmailWorker) readAttachment(ctx context.Context, key string) ([]byte, error) {
	r, err := w.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
