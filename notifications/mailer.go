package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/config"
)

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, toEmail, subject, plain, html string) error
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewMailer returns a SendGrid mailer, or a no-op mailer when email is not configured
func NewMailer(conf config.SendGridConfig) Mailer {
	if !conf.Enabled() {
		zap.S().Infow("email disabled, SENDGRID_API_KEY or EMAIL_FROM not set")
		return NoopMailer{}
	}
	return &sendGridMailer{
		client: sendgrid.NewSendClient(conf.APIKey),
		from:   mail.NewEmail("leng", conf.From),
	}
}

func (m *sendGridMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	to := mail.NewEmail("", toEmail)
	msg := mail.NewSingleEmail(m.from, subject, to, plain, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopMailer drops every message
type NoopMailer struct{}

// Send does nothing
func (NoopMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	zap.S().Debugw("email skipped", "to", toEmail, "subject", subject)
	return nil
}
