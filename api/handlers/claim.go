package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// Claim handles slug ownership
type Claim struct {
	Pages databases.PageDatabase
}

type claimRequest struct {
	Slug string `json:"slug"`
}

// ClaimHandler claims a slug for the caller. Re-claiming the caller's own slug
// is an idempotent success.
func (c Claim) ClaimHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req claimRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	slug, err := sanitize.Slug(req.Slug)
	if err != nil {
		respondError(w, r, badRequest(err.Error()))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	alreadyYours, err := c.claim(ctx, id, slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	fields := map[string]interface{}{"slug": slug}
	if alreadyYours {
		fields["note"] = "already yours"
	} else {
		zap.S().Infow("slug claimed", "slug", slug, "uid", id.UID)
	}
	respondSuccess(w, http.StatusOK, fields)
}

// claim inserts the page document keyed by slug. The unique indexes on _id
// and uid turn a lost race into a duplicate key error, which is resolved by
// looking the caller up again.
func (c Claim) claim(ctx context.Context, id api.Identity, slug string) (bool, error) {
	existing, err := databases.FindPageByOwner(ctx, c.Pages, id.UID)
	switch {
	case err == nil:
		if existing.Slug == slug {
			return true, nil
		}
		return false, badRequest("already has a page: " + existing.Slug)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return false, err
	}

	_, err = c.Pages.InsertOne(ctx, newPage(slug, id))
	if err == nil {
		return false, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	existing, err = databases.FindPageByOwner(ctx, c.Pages, id.UID)
	switch {
	case err == nil && existing.Slug == slug:
		return true, nil
	case err == nil:
		return false, badRequest("already has a page: " + existing.Slug)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return false, err
	}
	return false, conflict("slug is taken")
}

// newPage builds the empty-defaults page created by a claim
func newPage(slug string, id api.Identity) models.Page {
	p := sanitize.Page(sanitize.PageInput{})
	t := now()
	p.Slug = slug
	p.UID = id.UID
	p.OwnerEmail = id.Email
	p.CreatedAt = t
	p.UpdatedAt = t
	return p
}

// MySlugHandler returns the slug owned by the caller
func (c Claim) MySlugHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.FindPageByOwner(ctx, c.Pages, id.UID)
	if err != nil {
		respondError(w, r, notFoundAs(err, "you do not have a page yet"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"slug": page.Slug})
}

// DeletePageHandler soft deletes the caller's page. The owner may claim again
// right away; the old slug is freed once the reconciliation job purges it.
func (c Claim) DeletePageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	page, err := databases.FindPageByOwner(ctx, c.Pages, id.UID)
	if err != nil {
		respondError(w, r, notFoundAs(err, "you do not have a page yet"))
		return
	}
	deleted, err := databases.SoftDeletePage(ctx, c.Pages, page.Slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, r, notFound("page not found"))
		return
	}
	zap.S().Infow("page deleted by owner", "slug", page.Slug, "uid", id.UID)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"slug": page.Slug})
}
