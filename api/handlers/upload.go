package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/storage"
)

// Upload kinds
const (
	KindAvatar     = "avatar"
	KindBackground = "background"
)

// Upload issues upload tickets and swaps page images
type Upload struct {
	Pages  databases.PageDatabase
	Store  storage.ObjectStore
	Folder string
}

type presignRequest struct {
	Kind string `json:"kind"`
}

func validKind(kind string) bool {
	return kind == KindAvatar || kind == KindBackground
}

// objectPrefix is the public id prefix of every kind object of slug
func (u Upload) objectPrefix(slug, kind string) string {
	return path.Join(u.Folder, slug, kind) + "-"
}

// PresignHandler returns a signed ticket for uploading a page image
func (u Upload) PresignHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req presignRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if !validKind(req.Kind) {
		respondError(w, r, badRequest("kind must be avatar or background"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.FindPageByOwner(ctx, u.Pages, id.UID)
	if err != nil {
		respondError(w, r, notFoundAs(err, "you do not have a page yet"))
		return
	}
	publicID := u.objectPrefix(page.Slug, req.Kind) + uuid.NewString()
	ticket, err := u.Store.Presign(publicID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"ticket": ticket})
}

type confirmRequest struct {
	Kind     string `json:"kind"`
	PublicID string `json:"publicId"`
}

// ConfirmHandler points the caller's page at an uploaded image and deletes
// the image it replaced
func (u Upload) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if !validKind(req.Kind) {
		respondError(w, r, badRequest("kind must be avatar or background"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.FindPageByOwner(ctx, u.Pages, id.UID)
	if err != nil {
		respondError(w, r, notFoundAs(err, "you do not have a page yet"))
		return
	}
	if !strings.HasPrefix(req.PublicID, u.objectPrefix(page.Slug, req.Kind)) {
		respondError(w, r, forbidden("this upload does not belong to you"))
		return
	}
	url, err := u.Store.URL(req.PublicID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	set := bson.M{"updatedAt": now()}
	if req.Kind == KindAvatar {
		set["photoUrl"] = url
		set["photoPublicId"] = req.PublicID
	} else {
		set["background.type"] = "image"
		set["background.value"] = url
		set["backgroundPublicId"] = req.PublicID
	}
	prev, err := u.Pages.FindOneAndUpdate(ctx, databases.OwnedPageFilter(page.Slug, id.UID), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before))
	if err != nil {
		respondError(w, r, notFoundAs(err, "you do not have a page yet"))
		return
	}

	if old := previousObject(prev, req.Kind); old != "" && old != req.PublicID {
		if err := u.Store.Delete(r.Context(), old); err != nil {
			zap.S().Warnw("failed to delete replaced upload", "publicId", old, "error", err)
		}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"url": url})
}

func previousObject(p *models.Page, kind string) string {
	if kind == KindAvatar {
		return p.PhotoPublicID
	}
	return p.BackgroundPublicID
}
