package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
)

type cascadeFixture struct {
	pages      *mocks.Store[models.Page]
	polls      *mocks.Store[models.Poll]
	votes      *mocks.Store[models.PollVote]
	questions  *mocks.Store[models.Question]
	answers    *mocks.Store[models.Answer]
	likes      *mocks.Store[models.AnswerLike]
	userBadges *mocks.Store[models.UserBadge]
	links      *mocks.Store[models.ShortLink]
	agencies   *mocks.Store[models.Agency]
	cascade    databases.Cascade
	steps      []string
}

func newCascadeFixture(t *testing.T) *cascadeFixture {
	f := &cascadeFixture{
		pages:      mocks.NewStore[models.Page](t),
		polls:      mocks.NewStore[models.Poll](t),
		votes:      mocks.NewStore[models.PollVote](t),
		questions:  mocks.NewStore[models.Question](t),
		answers:    mocks.NewStore[models.Answer](t),
		likes:      mocks.NewStore[models.AnswerLike](t),
		userBadges: mocks.NewStore[models.UserBadge](t),
		links:      mocks.NewStore[models.ShortLink](t),
		agencies:   mocks.NewStore[models.Agency](t),
	}
	f.cascade = databases.Cascade{
		Pages:       f.pages,
		Polls:       f.polls,
		PollVotes:   f.votes,
		Questions:   f.questions,
		Answers:     f.answers,
		AnswerLikes: f.likes,
		UserBadges:  f.userBadges,
		Links:       f.links,
		Agencies:    f.agencies,
	}
	return f
}

// step records the order in which the mocked calls happen
func (f *cascadeFixture) step(name string) func(mock.Arguments) {
	return func(mock.Arguments) { f.steps = append(f.steps, name) }
}

func TestPurgePage_ChildrenBeforePage(t *testing.T) {
	f := newCascadeFixture(t)
	pollID, answerID := primitive.NewObjectID(), primitive.NewObjectID()

	f.polls.On("Find", mock.Anything, bson.M{"slug": "alice"}, mock.Anything).Return([]models.Poll{{ID: pollID}}, nil)
	f.votes.On("DeleteMany", mock.Anything, bson.M{"pollId": bson.M{"$in": []primitive.ObjectID{pollID}}}).Return(int64(4), nil).Run(f.step("votes"))
	f.polls.On("DeleteMany", mock.Anything, bson.M{"slug": "alice"}).Return(int64(1), nil).Run(f.step("polls"))
	f.answers.On("Find", mock.Anything, bson.M{"slug": "alice"}, mock.Anything).Return([]models.Answer{{ID: answerID}}, nil)
	f.likes.On("DeleteMany", mock.Anything, bson.M{"answerId": bson.M{"$in": []primitive.ObjectID{answerID}}}).Return(int64(2), nil).Run(f.step("likes"))
	f.answers.On("DeleteMany", mock.Anything, bson.M{"slug": "alice"}).Return(int64(1), nil).Run(f.step("answers"))
	f.questions.On("DeleteMany", mock.Anything, bson.M{"slug": "alice"}).Return(int64(1), nil).Run(f.step("questions"))
	f.userBadges.On("DeleteMany", mock.Anything, bson.M{"slug": "alice"}).Return(int64(0), nil).Run(f.step("badges"))
	f.links.On("DeleteMany", mock.Anything, bson.M{"slug": "alice"}).Return(int64(0), nil).Run(f.step("links"))
	f.agencies.On("UpdateMany", mock.Anything, bson.M{"members": "alice"}, bson.M{"$pull": bson.M{"members": "alice"}}, mock.Anything).
		Return(&mongo.UpdateResult{}, nil).Run(f.step("agencies"))
	f.pages.On("DeleteOne", mock.Anything, bson.M{"_id": "alice", "deletedAt": bson.M{"$exists": true}}).Return(int64(1), nil).Run(f.step("page"))

	require.NoError(t, f.cascade.PurgePage(context.Background(), "alice"))
	assert.Equal(t, []string{"votes", "polls", "likes", "answers", "questions", "badges", "links", "agencies", "page"}, f.steps)
}

func TestPurgePage_StopsBeforePageOnFailure(t *testing.T) {
	f := newCascadeFixture(t)
	f.polls.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Poll{}, nil)
	f.polls.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(0), mongo.ErrClientDisconnected)

	err := f.cascade.PurgePage(context.Background(), "alice")

	assert.ErrorIs(t, err, mongo.ErrClientDisconnected)
	f.pages.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestPurgeAnswer_DecrementsOnlyWhenDeleted(t *testing.T) {
	tests := []struct {
		name    string
		deleted int64
	}{
		{"deleted", 1},
		{"already gone", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCascadeFixture(t)
			answer := models.Answer{ID: primitive.NewObjectID(), QuestionID: primitive.NewObjectID()}
			f.likes.On("DeleteMany", mock.Anything, bson.M{"answerId": answer.ID}).Return(int64(0), nil)
			f.answers.On("DeleteOne", mock.Anything, bson.M{"_id": answer.ID}).Return(tt.deleted, nil)
			if tt.deleted > 0 {
				f.questions.On("UpdateOne", mock.Anything, bson.M{"_id": answer.QuestionID}, bson.M{"$inc": bson.M{"answerCount": -1}}, mock.Anything).
					Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
			}

			require.NoError(t, f.cascade.PurgeAnswer(context.Background(), answer))
		})
	}
}

func TestPurgePoll(t *testing.T) {
	f := newCascadeFixture(t)
	poll := models.Poll{ID: primitive.NewObjectID(), Slug: "alice"}
	f.votes.On("DeleteMany", mock.Anything, bson.M{"pollId": poll.ID}).Return(int64(3), nil).Run(f.step("votes"))
	f.polls.On("DeleteOne", mock.Anything, bson.M{"_id": poll.ID}).Return(int64(1), nil).Run(f.step("poll"))
	f.pages.On("UpdateOne", mock.Anything, bson.M{"_id": "alice"}, bson.M{"$pull": bson.M{"pollIds": poll.ID.Hex()}}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(f.step("unlink"))

	require.NoError(t, f.cascade.PurgePoll(context.Background(), poll))
	assert.Equal(t, []string{"votes", "poll", "unlink"}, f.steps)
}
