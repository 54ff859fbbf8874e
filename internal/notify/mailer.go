// Package notify sends reminder email for overdue and due-soon loans.
// Delivery failures are logged and never propagate into circulation
// logic; a library without SMTP configured simply skips sending.
package notify

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openshelf/openshelf/internal/config"
)

var ErrDisabled = errors.New("smtp delivery is disabled")

// Mailer delivers plaintext mail over SMTP.
type Mailer struct {
	cfg config.SMTP
}

// NewMailer creates a mailer from SMTP configuration.
func NewMailer(cfg config.SMTP) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer is configured to deliver.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.Host != ""
}

// Send delivers a single plaintext message.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	msg := buildMessage(m.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 plaintext message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
