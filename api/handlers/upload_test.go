package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/storage"
)

type fakeStore struct {
	deleted []string
}

func (f *fakeStore) Presign(publicID string, now time.Time) (storage.UploadTicket, error) {
	return storage.UploadTicket{PublicID: publicID, ExpiresAt: now.Add(storage.TicketTTL)}, nil
}

func (f *fakeStore) URL(publicID string) (string, error) {
	return "https://cdn.example.com/" + publicID, nil
}

func (f *fakeStore) Delete(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func TestPresign_ScopesPublicIDToPage(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)

	u := handlers.Upload{Pages: pages, Store: &fakeStore{}, Folder: "leng"}
	rr := serve(u.PresignHandler, as(newRequest(t, "POST", "/uploads/presign", map[string]string{"kind": "avatar"}), "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	ticket := decode(t, rr)["ticket"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(ticket["publicId"].(string), "leng/alice/avatar-"))
}

func TestConfirm_ForeignObjectIsForbidden(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)

	store := &fakeStore{}
	u := handlers.Upload{Pages: pages, Store: store, Folder: "leng"}
	body := map[string]string{"kind": "avatar", "publicId": "leng/bob/avatar-123"}
	rr := serve(u.ConfirmHandler, as(newRequest(t, "POST", "/uploads/confirm", body), "u1"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, store.deleted)
}

func TestConfirm_ReplacesPreviousImage(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)
	pages.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": "alice", "uid": "u1", "deletedAt": bson.M{"$exists": false}}, mock.MatchedBy(func(u bson.M) bool {
		set := u["$set"].(bson.M)
		return set["photoPublicId"] == "leng/alice/avatar-new" && set["photoUrl"] == "https://cdn.example.com/leng/alice/avatar-new"
	}), mock.Anything).Return(&models.Page{Slug: "alice", PhotoPublicID: "leng/alice/avatar-old"}, nil)

	store := &fakeStore{}
	u := handlers.Upload{Pages: pages, Store: store, Folder: "leng"}
	body := map[string]string{"kind": "avatar", "publicId": "leng/alice/avatar-new"}
	rr := serve(u.ConfirmHandler, as(newRequest(t, "POST", "/uploads/confirm", body), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"leng/alice/avatar-old"}, store.deleted)
}

func TestPresign_DisabledStore(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)

	u := handlers.Upload{Pages: pages, Store: storage.Disabled{}, Folder: "leng"}
	rr := serve(u.PresignHandler, as(newRequest(t, "POST", "/uploads/presign", map[string]string{"kind": "background"}), "u1"))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
