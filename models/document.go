package models

import "time"

// Document is a site wide text document such as terms or privacy
type Document struct {
	Key       string    `json:"key" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}
