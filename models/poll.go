package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Poll holds the structure for the polls collection in mongo
type Poll struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug       string             `json:"slug" bson:"slug"`
	OwnerID    string             `json:"-" bson:"ownerId"`
	Question   string             `json:"question" bson:"question"`
	Options    []PollOption       `json:"options" bson:"options"`
	TotalVotes int64              `json:"totalVotes" bson:"totalVotes"`
	Active     bool               `json:"active" bson:"active"`
	ExpiresAt  *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PollOption is a single answer choice with its vote counter
type PollOption struct {
	ID    int    `json:"id" bson:"id"`
	Text  string `json:"text" bson:"text"`
	Votes int64  `json:"votes" bson:"votes"`
}

// IsOpen reports whether the poll accepts votes at the given time. Expiry is
// derived at read time and never written back.
func (p Poll) IsOpen(now time.Time) bool {
	if !p.Active {
		return false
	}
	return p.ExpiresAt == nil || now.Before(*p.ExpiresAt)
}

// Served returns a copy of the poll with the active flag derived from expiry
func (p Poll) Served(now time.Time) Poll {
	p.Active = p.IsOpen(now)
	return p
}

// PollVote is the dedup record for a (poll, voter) pair
type PollVote struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PollID    primitive.ObjectID `json:"pollId" bson:"pollId"`
	VoterID   string             `json:"voterId" bson:"voterId"`
	OptionID  int                `json:"optionId" bson:"optionId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
