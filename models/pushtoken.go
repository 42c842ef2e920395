package models

import "time"

// PushToken holds the structure for the pushTokens collection in mongo
type PushToken struct {
	Token     string    `json:"token" bson:"_id"` // Expo push token (e.g., "ExponentPushToken[xxx]")
	UID       string    `json:"uid" bson:"uid"`
	Platform  string    `json:"platform" bson:"platform"` // "ios" or "android"
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
