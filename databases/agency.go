package databases

import "github.com/lengapp/leng-api/models"

const agencyCollectionName = "agencies"

// AgencyDatabase contains the methods to use with the agencies collection
type AgencyDatabase interface {
	Store[models.Agency]
}

// NewAgencyDatabase initializes a new instance of agency database with the provided db connection
func NewAgencyDatabase(db DatabaseHelper) AgencyDatabase {
	return newCollection[models.Agency](db, agencyCollectionName)
}
