package databases

// go generate: mockery --name PushTokenDatabase

import "github.com/lengapp/leng-api/models"

const pushTokenCollectionName = "pushTokens"

// PushTokenDatabase contains the methods to use with the push token database
type PushTokenDatabase interface {
	Store[models.PushToken]
}

// NewPushTokenDatabase initializes a new instance of push token database with the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return newCollection[models.PushToken](db, pushTokenCollectionName)
}
