package models

import "time"

// ShortLink holds the structure for the shortLinks collection in mongo
type ShortLink struct {
	Code      string    `json:"code" bson:"_id"`
	URL       string    `json:"url" bson:"url"`
	OwnerID   string    `json:"-" bson:"ownerId"`
	Slug      string    `json:"slug,omitempty" bson:"slug,omitempty"`
	Clicks    int64     `json:"clicks" bson:"clicks"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
