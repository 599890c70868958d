package notify

import (
	"errors"
	"fmt"

	"github.com/localnerve/compliance-registry/internal/config"
	gomail "gopkg.in/gomail.v2"
)

// ErrNotConfigured is reported by a sink that has no transport configuration.
// It is an expected state, not a failure: dispatch logs it and moves on.
var ErrNotConfigured = errors.New("mail sink not configured")

// Message is one reminder to deliver. Metadata carries the structured
// template parameters alongside the rendered subject and body.
type Message struct {
	To       string
	Subject  string
	Body     string
	Metadata map[string]interface{}
}

// Mailer delivers reminder messages.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	configured bool
}

// NewSMTPMailer builds the SMTP sink from configuration. With no SMTP
// configuration the mailer is still usable; Send reports ErrNotConfigured.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	m := &SMTPMailer{
		from:       cfg.SMTPFrom,
		configured: cfg.MailConfigured(),
	}
	if m.configured {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return m
}

// Send implements the Mailer interface.
func (m *SMTPMailer) Send(msg Message) error {
	if !m.configured {
		return ErrNotConfigured
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
