// Package mailer sends transactional email. The only message the backend
// sends today is the password-reset link.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers transactional messages to a single recipient.
type Mailer interface {
	// SendPasswordReset emails a reset link to the given address.
	SendPasswordReset(ctx context.Context, toEmail, resetURL string) error
}

// SMTPMailer sends mail over plain SMTP with AUTH. It covers the common
// hosted-SMTP setups (Gmail app passwords, Mailgun, SES SMTP endpoints).
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer that authenticates against host:port.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, toEmail, resetURL string) error {
	subject := "PlantPal password reset"
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"We received a request to reset the password for your PlantPal account.\r\n"+
			"Follow the link below within the next hour to choose a new password:\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not request a reset, you can safely ignore this email.\r\n",
		resetURL,
	)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{toEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send password reset mail: %w", err)
	}

	return nil
}

// NoopMailer logs the reset link instead of sending it. Used when no SMTP
// host is configured, which keeps local development working without a mail
// account.
type NoopMailer struct {
	logger *slog.Logger
}

// NewNoopMailer creates a mailer that only logs.
func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) SendPasswordReset(_ context.Context, toEmail, resetURL string) error {
	m.logger.Info("smtp not configured, logging password reset link instead",
		slog.String("to", toEmail),
		slog.String("reset_url", resetURL),
	)
	return nil
}
