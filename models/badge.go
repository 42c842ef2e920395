package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Badge holds the structure for the badges collection in mongo
type Badge struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key         string             `json:"key" bson:"key"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Icon        string             `json:"icon" bson:"icon"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// UserBadge links a badge to a page owner
type UserBadge struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BadgeID   primitive.ObjectID `json:"badgeId" bson:"badgeId"`
	UID       string             `json:"-" bson:"uid"`
	Slug      string             `json:"slug" bson:"slug"`
	GrantedBy string             `json:"grantedBy" bson:"grantedBy"`
	GrantedAt time.Time          `json:"grantedAt" bson:"grantedAt"`
}
