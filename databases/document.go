package databases

import "github.com/lengapp/leng-api/models"

const documentCollectionName = "documents"

// DocumentDatabase contains the methods to use with the documents collection
type DocumentDatabase interface {
	Store[models.Document]
}

// NewDocumentDatabase initializes a new instance of document database with the provided db connection
func NewDocumentDatabase(db DatabaseHelper) DocumentDatabase {
	return newCollection[models.Document](db, documentCollectionName)
}
