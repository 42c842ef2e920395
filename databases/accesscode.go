package databases

// go generate: mockery --name AccessCodeDatabase

import "github.com/lengapp/leng-api/models"

const (
	accessCodeCollectionName     = "accessCodes"
	codeRedemptionCollectionName = "codeRedemptions"
)

// AccessCodeDatabase contains the methods to use with the access code database
type AccessCodeDatabase interface {
	Store[models.AccessCode]
}

// NewAccessCodeDatabase initializes a new instance of access code database with the provided db connection
func NewAccessCodeDatabase(db DatabaseHelper) AccessCodeDatabase {
	return newCollection[models.AccessCode](db, accessCodeCollectionName)
}

// CodeRedemptionDatabase contains the methods to use with the code redemption dedup records
type CodeRedemptionDatabase interface {
	Store[models.CodeRedemption]
}

// NewCodeRedemptionDatabase initializes a new instance of code redemption database with the provided db connection
func NewCodeRedemptionDatabase(db DatabaseHelper) CodeRedemptionDatabase {
	return newCollection[models.CodeRedemption](db, codeRedemptionCollectionName)
}
