package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessCode represents a redeemable code that grants a plan
type AccessCode struct {
	Code          string     `json:"code" bson:"_id"`
	PlanID        string     `json:"planId" bson:"planId"`
	DurationDays  int        `json:"durationDays" bson:"durationDays"`
	MaxUses       int        `json:"maxUses" bson:"maxUses"`
	RemainingUses int        `json:"remainingUses" bson:"remainingUses"`
	Uses          int        `json:"uses" bson:"uses"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedBy     string     `json:"createdBy" bson:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
}

// CodeRedemption is the dedup record for a (code, uid) pair
type CodeRedemption struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code       string             `json:"code" bson:"code"`
	UID        string             `json:"uid" bson:"uid"`
	RedeemedAt time.Time          `json:"redeemedAt" bson:"redeemedAt"`
}
