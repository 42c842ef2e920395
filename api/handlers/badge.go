package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

var badgeKeyPattern = regexp.MustCompile(`^[a-z0-9_-]{2,40}$`)

// Badge handles badge definitions and grants
type Badge struct {
	Badges     databases.BadgeDatabase
	UserBadges databases.UserBadgeDatabase
	Pages      databases.PageDatabase
}

type createBadgeRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CreateBadgeHandler defines a new badge
func (b Badge) CreateBadgeHandler(w http.ResponseWriter, r *http.Request) {
	var req createBadgeRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	key := strings.ToLower(strings.TrimSpace(req.Key))
	if !badgeKeyPattern.MatchString(key) {
		respondError(w, r, badRequest("key must be 2-40 characters from a-z, 0-9, _ and -"))
		return
	}
	badge := models.Badge{
		ID:          primitive.NewObjectID(),
		Key:         key,
		Name:        sanitize.Text(req.Name, 60),
		Description: sanitize.Text(req.Description, 300),
		Icon:        sanitize.Text(req.Icon, 200),
		CreatedAt:   now(),
	}
	if badge.Name == "" {
		respondError(w, r, badRequest("name is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := b.Badges.InsertOne(ctx, badge); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = conflict("badge key already exists")
		}
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"badge": badge})
}

// ListBadgesHandler returns every badge definition
func (b Badge) ListBadgesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	badges, err := b.Badges.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

// DeleteBadgeHandler removes a badge and every grant of it
func (b Badge) DeleteBadgeHandler(w http.ResponseWriter, r *http.Request) {
	badgeID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := b.UserBadges.DeleteMany(ctx, bson.M{"badgeId": badgeID}); err != nil {
		respondError(w, r, err)
		return
	}
	n, err := b.Badges.DeleteOne(ctx, bson.M{"_id": badgeID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("badge not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

type grantRequest struct {
	Slug string `json:"slug"`
}

// GrantBadgeHandler grants a badge to the owner of a page
func (b Badge) GrantBadgeHandler(w http.ResponseWriter, r *http.Request) {
	badgeID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req grantRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(req.Slug)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := b.Badges.FindOne(ctx, bson.M{"_id": badgeID}); err != nil {
		respondError(w, r, notFoundAs(err, "badge not found"))
		return
	}
	page, err := b.Pages.FindOne(ctx, databases.LivePageFilter(slug))
	if err != nil {
		respondError(w, r, notFoundAs(err, "page not found"))
		return
	}
	grant := models.UserBadge{BadgeID: badgeID, UID: page.UID, Slug: slug, GrantedBy: actor(r), GrantedAt: now()}
	if _, err := b.UserBadges.InsertOne(ctx, grant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = conflict("badge already granted")
		}
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"grant": grant})
}

// RevokeBadgeHandler removes a badge from a page
func (b Badge) RevokeBadgeHandler(w http.ResponseWriter, r *http.Request) {
	badgeID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := b.UserBadges.DeleteOne(ctx, bson.M{"badgeId": badgeID, "slug": slug})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("grant not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// GrantAllHandler grants a badge to every live page, one insert at a time.
// Pages that already hold the badge or fail are skipped.
func (b Badge) GrantAllHandler(w http.ResponseWriter, r *http.Request) {
	badgeID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := b.Badges.FindOne(ctx, bson.M{"_id": badgeID}); err != nil {
		respondError(w, r, notFoundAs(err, "badge not found"))
		return
	}
	pages, err := b.Pages.Find(ctx, bson.M{"deletedAt": bson.M{"$exists": false}},
		options.Find().SetProjection(bson.M{"_id": 1, "uid": 1}))
	if err != nil {
		respondError(w, r, err)
		return
	}

	granted := 0
	by := actor(r)
	for _, p := range pages {
		grant := models.UserBadge{BadgeID: badgeID, UID: p.UID, Slug: p.Slug, GrantedBy: by, GrantedAt: now()}
		if _, err := b.UserBadges.InsertOne(ctx, grant); err != nil {
			if !mongo.IsDuplicateKeyError(err) {
				zap.S().Warnw("failed to grant badge", "badgeId", badgeID.Hex(), "slug", p.Slug, "error", err)
			}
			continue
		}
		granted++
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"granted": granted})
}

// PublicBadgesHandler lists the badges shown on a page
func (b Badge) PublicBadgesHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	badges, err := publicBadges(ctx, b.UserBadges, b.Badges, slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

// publicBadges resolves the badges granted to slug
func publicBadges(ctx context.Context, grants databases.UserBadgeDatabase, badges databases.BadgeDatabase, slug string) ([]models.Badge, error) {
	list, err := grants.Find(ctx, bson.M{"slug": slug})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []models.Badge{}, nil
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, g := range list {
		ids = append(ids, g.BadgeID)
	}
	return badges.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}
