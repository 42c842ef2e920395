package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/storage"
)

// Page serves and updates profile pages
type Page struct {
	Pages      databases.PageDatabase
	Badges     databases.BadgeDatabase
	UserBadges databases.UserBadgeDatabase
	Store      storage.ObjectStore
}

// UpdatePageHandler overwrites the owner writable fields of the caller's page
func (p Page) UpdatePageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in sanitize.PageInput
	if err := decodeJSON(r, w, &in); err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(in.Slug)
	if slug == "" {
		respondError(w, r, badRequest("slug is required"))
		return
	}
	prev, err := ownedPage(r, p.Pages, id.UID, slug)
	if err != nil {
		respondError(w, r, err)
		return
	}

	clean := sanitize.Page(in)
	update := bson.M{"$set": sanitize.OwnerSet(clean, now())}
	stale := sanitize.StaleAssets(*prev, clean)
	if len(stale) > 0 {
		unset := bson.M{}
		for field := range stale {
			unset[field] = ""
		}
		update["$unset"] = unset
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	res, err := p.Pages.UpdateOne(ctx, databases.OwnedPageFilter(slug, id.UID), update)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		respondError(w, r, forbidden("this slug does not belong to you"))
		return
	}
	for _, publicID := range stale {
		if err := p.Store.Delete(r.Context(), publicID); err != nil {
			zap.S().Warnw("failed to delete unused upload", "slug", slug, "publicId", publicID, "error", err)
		}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"slug": slug})
}

// PageHandler serves the public view of a page and counts the view
func (p Page) PageHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := databases.LivePageFilter(slug)
	filter["suspended"] = bson.M{"$ne": true}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	page, err := p.Pages.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"views": 1}}, opts)
	if err != nil {
		respondError(w, r, notFoundAs(err, "page not found"))
		return
	}

	badges, err := publicBadges(ctx, p.UserBadges, p.Badges, slug)
	if err != nil {
		zap.S().Warnw("failed to load badges", "slug", slug, "error", err)
		badges = nil
	}
	respondJSON(w, http.StatusOK, page.Public(badges))
}

// UpdateVitrinHandler replaces the storefront of the caller's page
func (p Page) UpdateVitrinHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in models.Vitrin
	if err := decodeJSON(r, w, &in); err != nil {
		respondError(w, r, err)
		return
	}
	vitrin, err := sanitize.Vitrin(in)
	if err != nil {
		respondError(w, r, badRequest(err.Error()))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.FindPageByOwner(ctx, p.Pages, id.UID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondError(w, r, forbidden("you do not have a page yet"))
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	_, err = p.Pages.UpdateOne(ctx, databases.OwnedPageFilter(page.Slug, id.UID), bson.M{
		"$set": bson.M{"vitrin": vitrin, "updatedAt": now()},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"vitrin": vitrin})
}
