package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
)

var ownerFilter = func(uid string) bson.M {
	return bson.M{"uid": uid, "deletedAt": bson.M{"$exists": false}}
}

func TestClaim_NewSlug(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(nil, mongo.ErrNoDocuments)
	pages.On("InsertOne", mock.Anything, mock.MatchedBy(func(p models.Page) bool {
		return p.Slug == "alice" && p.UID == "u1" && len(p.LayerOrder) > 0
	})).Return(nil, nil)

	c := handlers.Claim{Pages: pages}
	rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": "  Alice "}), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["slug"])
	assert.Nil(t, body["note"])
}

func TestClaim_IdempotentForOwner(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)

	c := handlers.Claim{Pages: pages}
	rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": "alice"}), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "already yours", decode(t, rr)["note"])
	pages.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestClaim_AlreadyHasPage(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "bob", UID: "u1"}, nil)

	c := handlers.Claim{Pages: pages}
	rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": "alice"}), "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "already has a page: bob", decode(t, rr)["error"])
}

func TestClaim_Taken(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u2"), mock.Anything).Return(nil, mongo.ErrNoDocuments).Twice()
	pages.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errDuplicate)

	c := handlers.Claim{Pages: pages}
	rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": "alice"}), "u2"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "slug is taken", decode(t, rr)["error"])
}

func TestClaim_ConcurrentClaimBySameOwner(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(nil, mongo.ErrNoDocuments).Once()
	pages.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errDuplicate)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil).Once()

	c := handlers.Claim{Pages: pages}
	rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": "alice"}), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "already yours", decode(t, rr)["note"])
}

func TestClaim_RejectsBadSlugs(t *testing.T) {
	tests := []struct {
		name string
		slug string
	}{
		{"too short", "a"},
		{"bad characters", "al ice!"},
		{"reserved", "admin"},
		{"route name", "polls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := handlers.Claim{Pages: mocks.NewStore[models.Page](t)}
			rr := serve(c.ClaimHandler, as(newRequest(t, "POST", "/claim", map[string]string{"slug": tt.slug}), "u1"))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestClaim_Unauthenticated(t *testing.T) {
	c := handlers.Claim{Pages: mocks.NewStore[models.Page](t)}
	rr := serve(c.ClaimHandler, newRequest(t, "POST", "/claim", map[string]string{"slug": "alice"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMySlug(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice"}, nil)
	pages.On("FindOne", mock.Anything, ownerFilter("u2"), mock.Anything).Return(nil, mongo.ErrNoDocuments)
	c := handlers.Claim{Pages: pages}

	rr := serve(c.MySlugHandler, as(newRequest(t, "GET", "/my-slug", nil), "u1"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", decode(t, rr)["slug"])

	rr = serve(c.MySlugHandler, as(newRequest(t, "GET", "/my-slug", nil), "u2"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeletePage_SoftDeletes(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)
	live := bson.M{"_id": "alice", "deletedAt": bson.M{"$exists": false}}
	pages.On("FindOne", mock.Anything, live, mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)
	pages.On("UpdateOne", mock.Anything, live, mock.MatchedBy(func(u bson.M) bool {
		set := u["$set"].(bson.M)
		unset := u["$unset"].(bson.M)
		_, hasUID := unset["uid"]
		return set["deletedUid"] == "u1" && hasUID
	}), mock.Anything).Return(updated(1), nil)

	c := handlers.Claim{Pages: pages}
	rr := serve(c.DeletePageHandler, as(newRequest(t, "DELETE", "/page", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", decode(t, rr)["slug"])
}
