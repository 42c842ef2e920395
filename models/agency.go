package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agency holds the structure for the agencies collection in mongo
type Agency struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	ContactEmail string             `json:"contactEmail" bson:"contactEmail"`
	Members      []string           `json:"members" bson:"members"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
