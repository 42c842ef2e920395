package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// Poll limits
const (
	MaxPollQuestion = 200
	MaxPollOption   = 100
	MinPollOptions  = 2
	MaxPollOptions  = 10
)

// Poll handles page polls and votes
type Poll struct {
	Pages   databases.PageDatabase
	Polls   databases.PollDatabase
	Votes   databases.PollVoteDatabase
	Subs    databases.SubscriptionDatabase
	Plans   databases.PlanDatabase
	Tx      databases.Transactor
	Cascade databases.Cascade
	Hub     *PollHub
}

type createPollRequest struct {
	Slug      string     `json:"slug"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// CreatePollHandler adds a poll to the caller's page
func (p Poll) CreatePollHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createPollRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(req.Slug)
	if err := ownerOf(r, p.Pages, id.UID, slug); err != nil {
		respondError(w, r, err)
		return
	}
	poll, err := buildPoll(req, slug, id.UID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	limits, _, err := databases.ResolveLimits(ctx, p.Subs, p.Plans, id.UID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	count, err := p.Polls.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if count >= int64(limits.MaxPolls) {
		respondError(w, r, forbidden(fmt.Sprintf("your plan allows %d polls", limits.MaxPolls)))
		return
	}

	if _, err := p.Polls.InsertOne(ctx, poll); err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := p.Pages.UpdateOne(ctx, bson.M{"_id": slug}, bson.M{"$addToSet": bson.M{"pollIds": poll.ID.Hex()}}); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"poll": poll})
}

func buildPoll(req createPollRequest, slug, uid string, t time.Time) (models.Poll, error) {
	question := sanitize.Text(req.Question, MaxPollQuestion)
	if question == "" {
		return models.Poll{}, badRequest("question is required")
	}
	choices := make([]models.PollOption, 0, len(req.Options))
	for _, o := range req.Options {
		text := sanitize.Text(o, MaxPollOption)
		if text == "" {
			continue
		}
		choices = append(choices, models.PollOption{ID: len(choices), Text: text})
	}
	if len(choices) < MinPollOptions || len(choices) > MaxPollOptions {
		return models.Poll{}, badRequest(fmt.Sprintf("a poll needs %d to %d options", MinPollOptions, MaxPollOptions))
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(t) {
		return models.Poll{}, badRequest("expiresAt must be in the future")
	}
	var expires *time.Time
	if req.ExpiresAt != nil {
		e := req.ExpiresAt.UTC()
		expires = &e
	}
	return models.Poll{
		ID:        primitive.NewObjectID(),
		Slug:      slug,
		OwnerID:   uid,
		Question:  question,
		Options:   choices,
		Active:    true,
		ExpiresAt: expires,
		CreatedAt: t,
		UpdatedAt: t,
	}, nil
}

// ListPollsHandler returns the polls of a page, newest first. The served
// active flag folds in expiry.
func (p Poll) ListPollsHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if err := requireLivePage(ctx, p.Pages, slug); err != nil {
		respondError(w, r, err)
		return
	}
	polls, err := p.Polls.Find(ctx, bson.M{"slug": slug}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	t := now()
	for i := range polls {
		polls[i] = polls[i].Served(t)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

type voteRequest struct {
	OptionID *int `json:"optionId"`
}

// openPollFilter matches the poll only while it accepts votes
func openPollFilter(id primitive.ObjectID, t time.Time) bson.M {
	return bson.M{
		"_id":    id,
		"active": true,
		"$or": bson.A{
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": t}},
		},
	}
}

// VoteHandler records one vote per caller. The dedup record and the counter
// increment commit together, so totalVotes always equals the number of
// dedup records.
func (p Poll) VoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pollID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req voteRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.OptionID == nil {
		respondError(w, r, badRequest("optionId is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	poll, err := p.Polls.FindOne(ctx, bson.M{"_id": pollID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "poll not found"))
		return
	}
	option := *req.OptionID
	if option < 0 || option >= len(poll.Options) {
		respondError(w, r, badRequest("invalid option"))
		return
	}
	t := now()
	if !poll.IsOpen(t) {
		respondError(w, r, badRequest("poll closed"))
		return
	}

	err = p.Tx.WithTransaction(ctx, func(tctx context.Context) error {
		_, err := p.Votes.InsertOne(tctx, models.PollVote{PollID: pollID, VoterID: id.UID, OptionID: option, CreatedAt: t})
		if mongo.IsDuplicateKeyError(err) {
			return badRequest("already voted")
		}
		if err != nil {
			return err
		}
		res, err := p.Polls.UpdateOne(tctx, openPollFilter(pollID, t), bson.M{
			"$inc": bson.M{fmt.Sprintf("options.%d.votes", option): 1, "totalVotes": 1},
			"$set": bson.M{"updatedAt": t},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return badRequest("poll closed")
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := p.Polls.FindOne(ctx, bson.M{"_id": pollID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	served := updated.Served(t)
	p.Hub.Broadcast(served.Slug, served)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"poll": served})
}

type updatePollRequest struct {
	Question    *string    `json:"question"`
	Active      *bool      `json:"active"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	ClearExpiry bool       `json:"clearExpiry"`
}

// UpdatePollHandler edits the question, the active flag or the expiry of a poll
func (p Poll) UpdatePollHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pollID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updatePollRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	poll, err := p.Polls.FindOne(ctx, bson.M{"_id": pollID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "poll not found"))
		return
	}
	if err := ownerOf(r, p.Pages, id.UID, poll.Slug); err != nil {
		respondError(w, r, err)
		return
	}

	t := now()
	set := bson.M{"updatedAt": t}
	update := bson.M{"$set": set}
	if req.Question != nil {
		q := sanitize.Text(*req.Question, MaxPollQuestion)
		if q == "" {
			respondError(w, r, badRequest("question is required"))
			return
		}
		set["question"] = q
	}
	if req.Active != nil {
		set["active"] = *req.Active
	}
	switch {
	case req.ClearExpiry:
		update["$unset"] = bson.M{"expiresAt": ""}
	case req.ExpiresAt != nil:
		if !req.ExpiresAt.After(t) {
			respondError(w, r, badRequest("expiresAt must be in the future"))
			return
		}
		set["expiresAt"] = req.ExpiresAt.UTC()
	}
	if len(set) == 1 && update["$unset"] == nil {
		respondError(w, r, badRequest("nothing to update"))
		return
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	updated, err := p.Polls.FindOneAndUpdate(ctx, bson.M{"_id": pollID}, update, opts)
	if err != nil {
		respondError(w, r, notFoundAs(err, "poll not found"))
		return
	}
	served := updated.Served(t)
	p.Hub.Broadcast(served.Slug, served)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"poll": served})
}

// DeletePollHandler removes a poll with its votes
func (p Poll) DeletePollHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pollID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	poll, err := p.Polls.FindOne(ctx, bson.M{"_id": pollID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "poll not found"))
		return
	}
	if err := ownerOf(r, p.Pages, id.UID, poll.Slug); err != nil {
		respondError(w, r, err)
		return
	}
	if err := p.Cascade.PurgePoll(ctx, *poll); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// requireLivePage fails with 404 unless slug names a live page
func requireLivePage(ctx context.Context, pages databases.PageDatabase, slug string) error {
	if strings.TrimSpace(slug) == "" {
		return notFound("page not found")
	}
	n, err := pages.CountDocuments(ctx, databases.LivePageFilter(slug))
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("page not found")
	}
	return nil
}
