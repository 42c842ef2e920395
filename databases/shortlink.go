package databases

import "github.com/lengapp/leng-api/models"

const shortLinkCollectionName = "shortLinks"

// ShortLinkDatabase contains the methods to use with the shortLinks collection
type ShortLinkDatabase interface {
	Store[models.ShortLink]
}

// NewShortLinkDatabase initializes a new instance of short link database with the provided db connection
func NewShortLinkDatabase(db DatabaseHelper) ShortLinkDatabase {
	return newCollection[models.ShortLink](db, shortLinkCollectionName)
}
