package databases

// go generate: mockery --name PageDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/models"
)

const pageCollectionName = "pages"

// PageDatabase contains the methods to use with the pages collection. A page
// document doubles as the slug claim: its id is the slug and it embeds the owner.
type PageDatabase interface {
	Store[models.Page]
}

// NewPageDatabase initializes a new instance of page database with the provided db connection
func NewPageDatabase(db DatabaseHelper) PageDatabase {
	return newCollection[models.Page](db, pageCollectionName)
}

// LivePageFilter matches a page that has not been soft deleted
func LivePageFilter(slug string) bson.M {
	return bson.M{"_id": slug, "deletedAt": bson.M{"$exists": false}}
}

// OwnedPageFilter matches the live page for slug owned by uid
func OwnedPageFilter(slug, uid string) bson.M {
	f := LivePageFilter(slug)
	f["uid"] = uid
	return f
}

// FindPageByOwner returns the page owned by uid, or mongo.ErrNoDocuments
func FindPageByOwner(ctx context.Context, pages PageDatabase, uid string) (*models.Page, error) {
	if uid == "" {
		return nil, mongo.ErrNoDocuments
	}
	return pages.FindOne(ctx, bson.M{"uid": uid, "deletedAt": bson.M{"$exists": false}})
}

// ErrNotOwner is returned when the caller does not own the requested slug
var ErrNotOwner = errors.New("slug is not owned by caller")

// RequireOwner verifies via the owner lookup that uid owns slug
func RequireOwner(ctx context.Context, pages PageDatabase, uid, slug string) (*models.Page, error) {
	page, err := FindPageByOwner(ctx, pages, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotOwner
	}
	if err != nil {
		return nil, err
	}
	if page.Slug != slug {
		return nil, ErrNotOwner
	}
	return page, nil
}

// SoftDeletePage hides a page and releases its owner. The slug stays reserved
// until the reconciliation job purges the page and its children.
func SoftDeletePage(ctx context.Context, pages PageDatabase, slug string) (bool, error) {
	page, err := pages.FindOne(ctx, LivePageFilter(slug))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	res, err := pages.UpdateOne(ctx, LivePageFilter(slug), bson.M{
		"$set":   bson.M{"deletedAt": now, "deletedUid": page.UID, "updatedAt": now},
		"$unset": bson.M{"uid": ""},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
