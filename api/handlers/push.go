package handlers

import (
	"context"
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/notifications"
)

var pushPlatforms = mapset.NewThreadUnsafeSet("ios", "android", "web")

// Push handles device tokens and admin broadcasts
type Push struct {
	Tokens databases.PushTokenDatabase
	Pages  databases.PageDatabase
	Pusher notifications.Pusher
}

type pushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterTokenHandler stores a device token for the caller
func (p Push) RegisterTokenHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req pushTokenRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	token := sanitize.Text(req.Token, 200)
	if token == "" {
		respondError(w, r, badRequest("token is required"))
		return
	}
	if !pushPlatforms.Contains(req.Platform) {
		respondError(w, r, badRequest("platform must be ios, android or web"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	t := now()
	if _, err := p.Tokens.UpdateOne(ctx, bson.M{"_id": token}, bson.M{
		"$set":         bson.M{"uid": id.UID, "platform": req.Platform, "updatedAt": t},
		"$setOnInsert": bson.M{"createdAt": t},
	}, options.Update().SetUpsert(true)); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// DeleteTokenHandler removes one of the caller's device tokens
func (p Push) DeleteTokenHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req pushTokenRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := p.Tokens.DeleteOne(ctx, bson.M{"_id": req.Token, "uid": id.UID}); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

type adminPushRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Slug  string `json:"slug"`
}

// AdminPushHandler sends a push to one page owner, or to every token when no
// slug is given
func (p Push) AdminPushHandler(w http.ResponseWriter, r *http.Request) {
	var req adminPushRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	title := sanitize.Text(req.Title, 100)
	body := sanitize.Text(req.Body, 500)
	if title == "" || body == "" {
		respondError(w, r, badRequest("title and body are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	filter := bson.M{}
	if req.Slug != "" {
		page, err := p.Pages.FindOne(ctx, databases.LivePageFilter(sanitize.NormalizeSlug(req.Slug)))
		if err != nil {
			respondError(w, r, notFoundAs(err, "page not found"))
			return
		}
		filter = bson.M{"uid": page.UID}
	}
	tokens, err := p.Tokens.Find(ctx, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list := make([]string, 0, len(tokens))
	for _, t := range tokens {
		list = append(list, t.Token)
	}

	// Delivery outlives the query deadline, so it runs on the request context
	sent, err := p.Pusher.Send(r.Context(), list, title, body, map[string]interface{}{"type": "admin"})
	if err != nil {
		zap.S().Warnw("admin push failed", "error", err, "sent", sent)
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"sent": sent})
}

// ownerRecipient looks up where notifications for slug go. Lookup failures
// yield an empty recipient.
func ownerRecipient(ctx context.Context, pages databases.PageDatabase, tokens databases.PushTokenDatabase, slug string) notifications.Recipient {
	page, err := pages.FindOne(ctx, databases.LivePageFilter(slug))
	if err != nil {
		zap.S().Warnw("failed to look up page owner", "slug", slug, "error", err)
		return notifications.Recipient{}
	}
	to := notifications.Recipient{Email: page.OwnerEmail}
	if tokens == nil {
		return to
	}
	list, err := tokens.Find(ctx, bson.M{"uid": page.UID})
	if err != nil {
		zap.S().Warnw("failed to look up push tokens", "uid", page.UID, "error", err)
		return to
	}
	for _, t := range list {
		to.Tokens = append(to.Tokens, t.Token)
	}
	return to
}
