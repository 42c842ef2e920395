package models

import "time"

// Subscription statuses
const (
	SubscriptionActive   = "active"
	SubscriptionPending  = "pending"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

// Subscription sources
const (
	SourceStripe = "stripe"
	SourceCode   = "code"
	SourceAdmin  = "admin"
)

// FreePlanID is the plan every owner falls back to
const FreePlanID = "free"

// Plan holds the structure for the plans collection in mongo
type Plan struct {
	ID            string     `json:"id" bson:"_id" yaml:"id"`
	Name          string     `json:"name" bson:"name" yaml:"name"`
	PriceCents    int64      `json:"priceCents" bson:"priceCents" yaml:"priceCents"`
	Currency      string     `json:"currency" bson:"currency" yaml:"currency"`
	StripePriceID string     `json:"stripePriceId,omitempty" bson:"stripePriceId,omitempty" yaml:"stripePriceId"`
	DurationDays  int        `json:"durationDays" bson:"durationDays" yaml:"durationDays"`
	Features      []string   `json:"features" bson:"features" yaml:"features"`
	Limits        PlanLimits `json:"limits" bson:"limits" yaml:"limits"`
	Active        bool       `json:"active" bson:"active" yaml:"active"`
}

// PlanLimits caps how many engagement items a page may hold
type PlanLimits struct {
	MaxPolls     int `json:"maxPolls" bson:"maxPolls" yaml:"maxPolls"`
	MaxQuestions int `json:"maxQuestions" bson:"maxQuestions" yaml:"maxQuestions"`
	MaxLinks     int `json:"maxLinks" bson:"maxLinks" yaml:"maxLinks"`
}

// DefaultLimits apply when no free plan is stored
var DefaultLimits = PlanLimits{MaxPolls: 3, MaxQuestions: 3, MaxLinks: 10}

// Subscription holds the structure for the subscriptions collection in mongo
type Subscription struct {
	UID             string     `json:"uid" bson:"_id"`
	PlanID          string     `json:"planId" bson:"planId"`
	Status          string     `json:"status" bson:"status"`
	Source          string     `json:"source" bson:"source"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	StripeSessionID string     `json:"-" bson:"stripeSessionId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsCurrent reports whether the subscription grants its plan at the given time
func (s Subscription) IsCurrent(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

// UsedSession marks a checkout session whose payment has already been applied
type UsedSession struct {
	ID     string    `json:"id" bson:"_id"`
	UID    string    `json:"uid" bson:"uid"`
	PlanID string    `json:"planId" bson:"planId"`
	UsedAt time.Time `json:"usedAt" bson:"usedAt"`
}
