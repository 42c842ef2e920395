package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
)

type pollFixture struct {
	pages *mocks.Store[models.Page]
	polls *mocks.Store[models.Poll]
	votes *mocks.Store[models.PollVote]
	subs  *mocks.Store[models.Subscription]
	plans *mocks.Store[models.Plan]
	h     handlers.Poll
}

func newPollFixture(t *testing.T) *pollFixture {
	f := &pollFixture{
		pages: mocks.NewStore[models.Page](t),
		polls: mocks.NewStore[models.Poll](t),
		votes: mocks.NewStore[models.PollVote](t),
		subs:  mocks.NewStore[models.Subscription](t),
		plans: mocks.NewStore[models.Plan](t),
	}
	f.h = handlers.Poll{
		Pages: f.pages,
		Polls: f.polls,
		Votes: f.votes,
		Subs:  f.subs,
		Plans: f.plans,
		Tx:    passThroughTx(t),
		Hub:   handlers.NewPollHub(),
	}
	return f
}

func (f *pollFixture) freePlan() {
	f.subs.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	f.plans.On("FindOne", mock.Anything, bson.M{"_id": models.FreePlanID}, mock.Anything).Return(nil, mongo.ErrNoDocuments)
}

func votePoll(id primitive.ObjectID, expires *time.Time) *models.Poll {
	return &models.Poll{
		ID:        id,
		Slug:      "alice",
		Question:  "Tea or coffee?",
		Options:   []models.PollOption{{ID: 0, Text: "Tea"}, {ID: 1, Text: "Coffee"}},
		Active:    true,
		ExpiresAt: expires,
	}
}

func voteRequest(t *testing.T, id primitive.ObjectID, option int) *http.Request {
	req := newRequest(t, "POST", "/polls/"+id.Hex()+"/vote", map[string]int{"optionId": option})
	return as(mux.SetURLVars(req, map[string]string{"id": id.Hex()}), "voter")
}

func TestCreatePoll_PlanLimit(t *testing.T) {
	f := newPollFixture(t)
	f.pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)
	f.freePlan()
	f.polls.On("CountDocuments", mock.Anything, bson.M{"slug": "alice"}, mock.Anything).Return(int64(3), nil)

	rr := serve(f.h.CreatePollHandler, as(newRequest(t, "POST", "/polls", map[string]interface{}{
		"slug":     "alice",
		"question": "Tea or coffee?",
		"options":  []string{"Tea", "Coffee"},
	}), "u1"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "your plan allows 3 polls", decode(t, rr)["error"])
}

func TestCreatePoll(t *testing.T) {
	f := newPollFixture(t)
	f.pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)
	f.freePlan()
	f.polls.On("CountDocuments", mock.Anything, bson.M{"slug": "alice"}, mock.Anything).Return(int64(0), nil)
	f.polls.On("InsertOne", mock.Anything, mock.MatchedBy(func(p models.Poll) bool {
		return p.Slug == "alice" && len(p.Options) == 2 && p.Active
	})).Return(nil, nil)
	f.pages.On("UpdateOne", mock.Anything, bson.M{"_id": "alice"}, mock.MatchedBy(func(u bson.M) bool {
		_, ok := u["$addToSet"]
		return ok
	}), mock.Anything).Return(updated(1), nil)

	rr := serve(f.h.CreatePollHandler, as(newRequest(t, "POST", "/polls", map[string]interface{}{
		"slug":     "alice",
		"question": "Tea or coffee?",
		"options":  []string{"Tea", " ", "Coffee"},
	}), "u1"))

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreatePoll_TooFewOptions(t *testing.T) {
	f := newPollFixture(t)
	f.pages.On("FindOne", mock.Anything, ownerFilter("u1"), mock.Anything).Return(&models.Page{Slug: "alice", UID: "u1"}, nil)

	rr := serve(f.h.CreatePollHandler, as(newRequest(t, "POST", "/polls", map[string]interface{}{
		"slug":     "alice",
		"question": "Tea?",
		"options":  []string{"Tea"},
	}), "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVote(t *testing.T) {
	f := newPollFixture(t)
	id := primitive.NewObjectID()
	f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(votePoll(id, nil), nil).Once()
	f.votes.On("InsertOne", mock.Anything, mock.MatchedBy(func(v models.PollVote) bool {
		return v.PollID == id && v.VoterID == "voter" && v.OptionID == 1
	})).Return(nil, nil)
	f.polls.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(u bson.M) bool {
		inc := u["$inc"].(bson.M)
		return inc["options.1.votes"] == 1 && inc["totalVotes"] == 1
	}), mock.Anything).Return(updated(1), nil)
	after := votePoll(id, nil)
	after.Options[1].Votes = 1
	after.TotalVotes = 1
	f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(after, nil).Once()

	rr := serve(f.h.VoteHandler, voteRequest(t, id, 1))

	assert.Equal(t, http.StatusOK, rr.Code)
	poll := decode(t, rr)["poll"].(map[string]interface{})
	assert.EqualValues(t, 1, poll["totalVotes"])
}

func TestVote_Twice(t *testing.T) {
	f := newPollFixture(t)
	id := primitive.NewObjectID()
	f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(votePoll(id, nil), nil)
	f.votes.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errDuplicate)

	rr := serve(f.h.VoteHandler, voteRequest(t, id, 0))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "already voted", decode(t, rr)["error"])
	f.polls.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVote_Expired(t *testing.T) {
	f := newPollFixture(t)
	id := primitive.NewObjectID()
	past := time.Now().Add(-time.Minute)
	f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(votePoll(id, &past), nil)

	rr := serve(f.h.VoteHandler, voteRequest(t, id, 0))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "poll closed", decode(t, rr)["error"])
	f.votes.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestVote_ClosedBetweenReadAndWrite(t *testing.T) {
	f := newPollFixture(t)
	id := primitive.NewObjectID()
	f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(votePoll(id, nil), nil)
	f.votes.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	f.polls.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(updated(0), nil)

	rr := serve(f.h.VoteHandler, voteRequest(t, id, 0))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "poll closed", decode(t, rr)["error"])
}

func TestVote_InvalidOption(t *testing.T) {
	for _, option := range []int{-1, 2} {
		t.Run(fmt.Sprint(option), func(t *testing.T) {
			f := newPollFixture(t)
			id := primitive.NewObjectID()
			f.polls.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).Return(votePoll(id, nil), nil)

			rr := serve(f.h.VoteHandler, voteRequest(t, id, option))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestListPolls_DerivesActive(t *testing.T) {
	f := newPollFixture(t)
	past := time.Now().Add(-time.Hour)
	f.pages.On("CountDocuments", mock.Anything, bson.M{"_id": "alice", "deletedAt": bson.M{"$exists": false}}, mock.Anything).Return(int64(1), nil)
	f.polls.On("Find", mock.Anything, bson.M{"slug": "alice"}, mock.Anything).
		Return([]models.Poll{*votePoll(primitive.NewObjectID(), &past), *votePoll(primitive.NewObjectID(), nil)}, nil)

	req := mux.SetURLVars(newRequest(t, "GET", "/polls/alice", nil), map[string]string{"slug": "alice"})
	rr := serve(f.h.ListPollsHandler, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	polls := decode(t, rr)["polls"].([]interface{})
	assert.Equal(t, false, polls[0].(map[string]interface{})["active"])
	assert.Equal(t, true, polls[1].(map[string]interface{})["active"])
}
