package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// MaxLinkURL caps short link targets
const MaxLinkURL = 2000

var linkCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ShortLink handles short links and their redirects
type ShortLink struct {
	Links databases.ShortLinkDatabase
	Pages databases.PageDatabase
	Subs  databases.SubscriptionDatabase
	Plans databases.PlanDatabase
}

type createLinkRequest struct {
	URL  string `json:"url"`
	Code string `json:"code"`
}

// CreateLinkHandler creates a short link owned by the caller
func (s ShortLink) CreateLinkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createLinkRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	target := sanitize.URL(req.URL, MaxLinkURL)
	if target == "" {
		respondError(w, r, badRequest("url must be an http or https address"))
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	if !linkCodePattern.MatchString(code) {
		respondError(w, r, badRequest("code must be 3-32 characters from A-Z, a-z, 0-9, _ and -"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	limits, _, err := databases.ResolveLimits(ctx, s.Subs, s.Plans, id.UID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	count, err := s.Links.CountDocuments(ctx, bson.M{"ownerId": id.UID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if count >= int64(limits.MaxLinks) {
		respondError(w, r, forbidden(fmt.Sprintf("your plan allows %d links", limits.MaxLinks)))
		return
	}

	link := models.ShortLink{Code: code, URL: target, OwnerID: id.UID, CreatedAt: now()}
	if page, err := databases.FindPageByOwner(ctx, s.Pages, id.UID); err == nil {
		link.Slug = page.Slug
	}
	if _, err := s.Links.InsertOne(ctx, link); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = conflict("code is taken")
		}
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"link": link})
}

// ListLinksHandler returns the caller's short links
func (s ShortLink) ListLinksHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	links, err := s.Links.Find(ctx, bson.M{"ownerId": id.UID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}

// DeleteLinkHandler removes one of the caller's short links
func (s ShortLink) DeleteLinkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := s.Links.DeleteOne(ctx, bson.M{"_id": mux.Vars(r)["code"], "ownerId": id.UID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("link not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// RedirectHandler counts a click and redirects to the link target
func (s ShortLink) RedirectHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !linkCodePattern.MatchString(code) {
		respondError(w, r, notFound("link not found"))
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	link, err := s.Links.FindOneAndUpdate(ctx, bson.M{"_id": code}, bson.M{"$inc": bson.M{"clicks": 1}})
	if err != nil {
		respondError(w, r, notFoundAs(err, "link not found"))
		return
	}
	http.Redirect(w, r, link.URL, http.StatusFound)
}
