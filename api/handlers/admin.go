package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// adminFanOut bounds the per page lookups of the user listing
const adminFanOut = 8

// Admin is the reporting and moderation surface
type Admin struct {
	Pages      databases.PageDatabase
	Subs       databases.SubscriptionDatabase
	Badges     databases.BadgeDatabase
	UserBadges databases.UserBadgeDatabase
	Polls      databases.PollDatabase
	Questions  databases.QuestionDatabase
	Links      databases.ShortLinkDatabase
	Orders     databases.OrderDatabase
}

// UsersHandler lists live pages with their owner's plan and badges
func (a Admin) UsersHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	opts := databases.Paginate(queryInt(r, "limit", 50), page).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	pages, err := a.Pages.Find(ctx, bson.M{"deletedAt": bson.M{"$exists": false}}, opts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows := make([]models.AdminPageSummary, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(adminFanOut)
	for i := range pages {
		i := i
		g.Go(func() error {
			rows[i] = a.summarize(gctx, pages[i])
			return nil
		})
	}
	_ = g.Wait()
	respondJSON(w, http.StatusOK, map[string]interface{}{"page": page, "limit": *opts.Limit, "users": rows})
}

// summarize joins a page with its subscription and badges. Failed lookups
// fall back to the free plan and no badges.
func (a Admin) summarize(ctx context.Context, p models.Page) models.AdminPageSummary {
	row := models.AdminPageSummary{
		Slug:        p.Slug,
		UID:         p.UID,
		OwnerEmail:  p.OwnerEmail,
		DisplayName: p.DisplayName,
		Verified:    p.Verified,
		Suspended:   p.Suspended,
		Views:       p.Views,
		PlanID:      models.FreePlanID,
		PlanStatus:  models.SubscriptionActive,
		Badges:      []models.Badge{},
		CreatedAt:   p.CreatedAt,
	}
	sub, err := a.Subs.FindOne(ctx, bson.M{"_id": p.UID})
	switch {
	case err == nil:
		row.PlanID = sub.PlanID
		row.PlanStatus = sub.Status
		row.PlanExpires = sub.ExpiresAt
	case !errors.Is(err, mongo.ErrNoDocuments):
		zap.S().Warnw("failed to load subscription", "uid", p.UID, "error", err)
	}
	badges, err := publicBadges(ctx, a.UserBadges, a.Badges, p.Slug)
	if err != nil {
		zap.S().Warnw("failed to load badges", "slug", p.Slug, "error", err)
	} else {
		row.Badges = badges
	}
	return row
}

// StatsHandler returns platform counters
func (a Admin) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var stats models.AdminStats
	counts := []struct {
		dst   *int64
		count func() (int64, error)
	}{
		{&stats.Pages, func() (int64, error) {
			return a.Pages.CountDocuments(ctx, bson.M{"deletedAt": bson.M{"$exists": false}})
		}},
		{&stats.PendingDeletion, func() (int64, error) {
			return a.Pages.CountDocuments(ctx, bson.M{"deletedAt": bson.M{"$exists": true}})
		}},
		{&stats.SuspendedPages, func() (int64, error) {
			return a.Pages.CountDocuments(ctx, bson.M{"suspended": true, "deletedAt": bson.M{"$exists": false}})
		}},
		{&stats.Polls, func() (int64, error) { return a.Polls.CountDocuments(ctx, bson.M{}) }},
		{&stats.Questions, func() (int64, error) { return a.Questions.CountDocuments(ctx, bson.M{}) }},
		{&stats.ShortLinks, func() (int64, error) { return a.Links.CountDocuments(ctx, bson.M{}) }},
		{&stats.Orders, func() (int64, error) { return a.Orders.CountDocuments(ctx, bson.M{}) }},
		{&stats.ActiveSubscriptions, func() (int64, error) {
			return a.Subs.CountDocuments(ctx, bson.M{"status": models.SubscriptionActive})
		}},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			respondError(w, r, err)
			return
		}
		*c.dst = n
	}
	respondJSON(w, http.StatusOK, stats)
}

// SuspendHandler sets or clears the suspended flag of a page
func (a Admin) SuspendHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Suspended bool `json:"suspended"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	a.setFlags(w, r, map[string]interface{}{"suspended": req.Suspended})
}

// VerifyHandler sets or clears the verified flag of a page
func (a Admin) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Verified bool `json:"verified"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	a.setFlags(w, r, map[string]interface{}{"verified": req.Verified})
}

func (a Admin) setFlags(w http.ResponseWriter, r *http.Request, fields map[string]interface{}) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	set, err := sanitize.AdminSet(fields, now())
	if err != nil {
		respondError(w, r, badRequest(err.Error()))
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := a.Pages.FindOneAndUpdate(ctx, databases.LivePageFilter(slug), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		respondError(w, r, notFoundAs(err, "page not found"))
		return
	}
	zap.S().Infow("page flags updated", "slug", slug, "fields", fields, "by", actor(r))
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"slug":      page.Slug,
		"verified":  page.Verified,
		"suspended": page.Suspended,
	})
}

// DeletePageHandler soft deletes any page
func (a Admin) DeletePageHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	deleted, err := databases.SoftDeletePage(ctx, a.Pages, slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, r, notFound("page not found"))
		return
	}
	zap.S().Infow("page deleted by admin", "slug", slug, "by", actor(r))
	respondSuccess(w, http.StatusOK, nil)
}
