// Package smtpmail implements the outbound mail transport over SMTP with a
// STARTTLS upgrade and optional authentication.
package smtpmail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string // empty means no authentication
	Password string
	Sender   string // From address for all outgoing mail
}

// Mailer sends HTML email over SMTP. Each Send is one synchronous delivery
// attempt with no internal retry.
type Mailer struct {
	client *gomail.Client
	sender string
	logger *slog.Logger
}

// NewMailer builds an SMTP mailer from config. The connection is dialed per
// send, not held open.
func NewMailer(cfg Config, logger *slog.Logger) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Mailer{
		client: client,
		sender: cfg.Sender,
		logger: logger.With("component", "smtp_mailer"),
	}, nil
}

// Send delivers a single HTML email to one recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.sender, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	m.logger.DebugContext(ctx, "Sending email via SMTP", "recipient", to)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
	}
	return nil
}
