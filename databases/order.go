package databases

import "github.com/lengapp/leng-api/models"

const orderCollectionName = "orders"

// OrderDatabase contains the methods to use with the orders collection
type OrderDatabase interface {
	Store[models.Order]
}

// NewOrderDatabase initializes a new instance of order database with the provided db connection
func NewOrderDatabase(db DatabaseHelper) OrderDatabase {
	return newCollection[models.Order](db, orderCollectionName)
}
