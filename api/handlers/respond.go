package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

const maxBodyBytes = 1 << 20

// now is the clock used by every handler
var now = func() time.Time { return time.Now().UTC() }

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("failed to encode response", "error", err)
	}
}

// respondSuccess writes the {"success": true, ...} envelope
func respondSuccess(w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	respondJSON(w, status, body)
}

func decodeJSON(r *http.Request, w http.ResponseWriter, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid request body")
	}
	return nil
}

func requireIdentity(r *http.Request) (api.Identity, error) {
	id, ok := api.IdentityFrom(r.Context())
	if !ok {
		return api.Identity{}, unauthorized()
	}
	return id, nil
}

// actor names the caller in audit fields
func actor(r *http.Request) string {
	id, _ := api.IdentityFrom(r.Context())
	if id.Email != "" {
		return id.Email
	}
	return id.UID
}

func objectIDVar(r *http.Request, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, badRequest("invalid id")
	}
	return oid, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// notFoundAs turns mongo.ErrNoDocuments into a 404 with msg
func notFoundAs(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(msg)
	}
	return err
}

// ownerOf checks through the owner lookup that uid owns slug
func ownerOf(r *http.Request, pages databases.PageDatabase, uid, slug string) error {
	_, err := ownedPage(r, pages, uid, slug)
	return err
}

// ownedPage is ownerOf returning the page it found
func ownedPage(r *http.Request, pages databases.PageDatabase, uid, slug string) (*models.Page, error) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.RequireOwner(ctx, pages, uid, slug)
	if errors.Is(err, databases.ErrNotOwner) {
		return nil, forbidden("this slug does not belong to you")
	}
	return page, err
}
