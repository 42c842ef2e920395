package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	OrderPending        = "PENDING"
	OrderPaymentStarted = "PAYMENT_STARTED"
	OrderPaid           = "PAID"
	OrderShipped        = "SHIPPED"
	OrderCancelled      = "CANCELLED"
	OrderRefunded       = "REFUNDED"
)

// Order limits. MaxOrderTotalCents matches the largest amount a Stripe
// checkout accepts.
const (
	MaxOrderItems      = 50
	MaxOrderQty        = 1000
	MaxOrderTotalCents = 99999999
)

// Order holds the structure for the orders collection in mongo
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug            string             `json:"slug,omitempty" bson:"slug,omitempty"`
	Items           []OrderItem        `json:"items" bson:"items"`
	Customer        OrderCustomer      `json:"customer" bson:"customer"`
	Status          string             `json:"status" bson:"status"`
	PaymentURL      string             `json:"paymentUrl,omitempty" bson:"paymentUrl,omitempty"`
	StripeSessionID string             `json:"-" bson:"stripeSessionId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// OrderItem is a single line of an order
type OrderItem struct {
	ProductID  string  `json:"productId" bson:"productId"`
	Qty        float64 `json:"qty" bson:"qty"`
	Name       string  `json:"name,omitempty" bson:"name,omitempty"`
	PriceCents int64   `json:"priceCents,omitempty" bson:"priceCents,omitempty"`
}

// OrderCustomer is the buyer contact information
type OrderCustomer struct {
	Name    string `json:"name,omitempty" bson:"name,omitempty"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
}

// TotalWithin sums the priced lines of the order. ok is false once the sum
// passes limit.
func (o Order) TotalWithin(limit int64) (total int64, ok bool) {
	var sum float64
	for _, it := range o.Items {
		sum += math.Round(float64(it.PriceCents) * it.Qty)
		if sum > float64(limit) {
			return 0, false
		}
	}
	return int64(sum), true
}

// TotalCents sums the priced lines of the order, capped at MaxOrderTotalCents
func (o Order) TotalCents() int64 {
	total, ok := o.TotalWithin(MaxOrderTotalCents)
	if !ok {
		return MaxOrderTotalCents
	}
	return total
}
