// Package notifications delivers owner notifications by email and device push.
package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/lengapp/leng-api/templates/html"
)

// Notifier fans a single event out to email and push. Delivery failures are
// logged and never returned: a notification must not fail the request that
// triggered it.
type Notifier struct {
	Mailer Mailer
	Pusher Pusher
}

// Recipient is who a notification goes to
type Recipient struct {
	Email  string
	Tokens []string
}

// NewAnswer tells a page owner that one of their questions got an answer
func (n Notifier) NewAnswer(ctx context.Context, to Recipient, slug, question, answer string) {
	subject := "Sorunuza yeni bir cevap geldi"
	n.deliver(ctx, to, subject, answer, templates.RenderNewAnswerEmail(slug, question, answer), map[string]interface{}{
		"type": "answer", "slug": slug,
	})
}

// NewOrder tells a shop owner about an incoming order
func (n Notifier) NewOrder(ctx context.Context, to Recipient, slug, orderID string, totalCents int64) {
	subject := "Yeni sipariş"
	n.deliver(ctx, to, subject, "Yeni bir sipariş aldınız: "+orderID, templates.RenderNewOrderEmail(slug, orderID, totalCents), map[string]interface{}{
		"type": "order", "slug": slug, "orderId": orderID,
	})
}

// AgencyWelcome greets the contact of a new agency
func (n Notifier) AgencyWelcome(ctx context.Context, email, agencyName string) {
	n.deliver(ctx, Recipient{Email: email}, "leng'e hoş geldiniz", "Ajansınız oluşturuldu: "+agencyName, templates.RenderAgencyWelcomeEmail(agencyName), nil)
}

// AgencyJoined tells a page owner that their page was added to an agency
func (n Notifier) AgencyJoined(ctx context.Context, to Recipient, slug, agencyName string) {
	subject := "Sayfanız bir ajansa eklendi"
	plain := "leng.app/" + slug + " sayfanız " + agencyName + " ajansına eklendi."
	n.deliver(ctx, to, subject, plain, templates.RenderGenericEmail(subject, plain), map[string]interface{}{
		"type": "agency", "slug": slug,
	})
}

func (n Notifier) deliver(ctx context.Context, to Recipient, subject, plain, htmlBody string, data map[string]interface{}) {
	if to.Email != "" && n.Mailer != nil {
		if err := n.Mailer.Send(ctx, to.Email, subject, plain, htmlBody); err != nil {
			zap.S().Warnw("failed to send notification email", "subject", subject, "error", err)
		}
	}
	if len(to.Tokens) > 0 && n.Pusher != nil {
		if _, err := n.Pusher.Send(ctx, to.Tokens, subject, plain, data); err != nil {
			zap.S().Warnw("failed to send notification push", "subject", subject, "error", err)
		}
	}
}
