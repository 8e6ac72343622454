package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"jourdash/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending report notifications.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool { return m.host != "" }

// Send delivers a plain-text message, attaching data as filename when data is non-empty.
func (m *Mailer) Send(to, subject, body, filename string, data []byte) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if len(data) > 0 {
		if _, err := e.Attach(bytes.NewReader(data), filename, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: attach report: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
