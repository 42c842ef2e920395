// Package payments creates and verifies Stripe checkout sessions.
package payments

import (
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/lengapp/leng-api/config"
)

// ErrDisabled is returned when payments are not configured
var ErrDisabled = errors.New("payments not configured")

// LineItem is either a stored price or an inline amount
type LineItem struct {
	PriceID     string
	Name        string
	AmountCents int64
	Quantity    int64
}

// CheckoutRequest describes a checkout session to open
type CheckoutRequest struct {
	Subscription bool
	Reference    string
	Email        string
	Currency     string
	Items        []LineItem
	Metadata     map[string]string
}

// Checkout is an opened session
type Checkout struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// SessionStatus is what verification needs from a session
type SessionStatus struct {
	ID        string
	Reference string
	Complete  bool
	Paid      bool
	Metadata  map[string]string
}

// Provider opens and inspects checkout sessions
type Provider interface {
	CreateCheckout(req CheckoutRequest) (Checkout, error)
	GetSession(id string) (SessionStatus, error)
}

type stripeProvider struct {
	successURL string
	cancelURL  string
	currency   string
}

// New returns a Stripe provider, or a disabled one when no key is configured
func New(conf config.StripeConfig) Provider {
	if !conf.Enabled() {
		return Disabled{}
	}
	stripe.Key = conf.SecretKey
	return &stripeProvider{successURL: conf.SuccessURL, cancelURL: conf.CancelURL, currency: conf.Currency}
}

func (p *stripeProvider) CreateCheckout(req CheckoutRequest) (Checkout, error) {
	params := BuildParams(req, p.successURL, p.cancelURL, p.currency)
	s, err := session.New(params)
	if err != nil {
		return Checkout{}, err
	}
	return Checkout{ID: s.ID, URL: s.URL}, nil
}

func (p *stripeProvider) GetSession(id string) (SessionStatus, error) {
	s, err := session.Get(id, nil)
	if err != nil {
		return SessionStatus{}, err
	}
	return SessionStatus{
		ID:        s.ID,
		Reference: s.ClientReferenceID,
		Complete:  s.Status == stripe.CheckoutSessionStatusComplete,
		Paid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
		Metadata: s.Metadata,
	}, nil
}

// BuildParams converts a request into Stripe checkout params
func BuildParams(req CheckoutRequest, successURL, cancelURL, defaultCurrency string) *stripe.CheckoutSessionParams {
	mode := stripe.CheckoutSessionModePayment
	if req.Subscription {
		mode = stripe.CheckoutSessionModeSubscription
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(mode)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(req.Reference),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for _, it := range req.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		li := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(qty)}
		if it.PriceID != "" {
			li.Price = stripe.String(it.PriceID)
		} else {
			li.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(it.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
			}
		}
		params.LineItems = append(params.LineItems, li)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

// Disabled is the provider used when Stripe is not configured
type Disabled struct{}

// CreateCheckout always fails with ErrDisabled
func (Disabled) CreateCheckout(CheckoutRequest) (Checkout, error) { return Checkout{}, ErrDisabled }

// GetSession always fails with ErrDisabled
func (Disabled) GetSession(string) (SessionStatus, error) { return SessionStatus{}, ErrDisabled }
