package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/notifications"
)

type recordingMailer struct {
	to []string
}

func (m *recordingMailer) Send(ctx context.Context, toEmail, subject, plain, html string) error {
	m.to = append(m.to, toEmail)
	return nil
}

type recordingPusher struct {
	tokens []string
}

func (p *recordingPusher) Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) (int, error) {
	p.tokens = append(p.tokens, tokens...)
	return len(tokens), nil
}

func likeRequest(t *testing.T, questionID, answerID primitive.ObjectID) *http.Request {
	req := newRequest(t, "POST", "/questions/x/answers/y/like", nil)
	return as(mux.SetURLVars(req, map[string]string{"id": questionID.Hex(), "answerId": answerID.Hex()}), "fan")
}

func TestLike_Toggles(t *testing.T) {
	tests := []struct {
		name      string
		removed   int64
		delta     int
		likes     int64
		wantLiked bool
	}{
		{"first like", 0, 1, 5, true},
		{"unlike", 1, -1, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := mocks.NewStore[models.Answer](t)
			likes := mocks.NewStore[models.AnswerLike](t)
			qid, aid := primitive.NewObjectID(), primitive.NewObjectID()

			answers.On("FindOne", mock.Anything, bson.M{"_id": aid, "questionId": qid}, mock.Anything).Return(&models.Answer{ID: aid, QuestionID: qid}, nil)
			likes.On("DeleteOne", mock.Anything, bson.M{"answerId": aid, "voterId": "fan"}).Return(tt.removed, nil)
			if tt.removed == 0 {
				likes.On("InsertOne", mock.Anything, mock.MatchedBy(func(l models.AnswerLike) bool {
					return l.AnswerID == aid && l.VoterID == "fan"
				})).Return(nil, nil)
			}
			answers.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": aid}, bson.M{"$inc": bson.M{"likes": tt.delta}}, mock.Anything).
				Return(&models.Answer{ID: aid, Likes: tt.likes}, nil)

			q := handlers.Question{Answers: answers, Likes: likes, Tx: passThroughTx(t)}
			rr := serve(q.LikeHandler, likeRequest(t, qid, aid))

			assert.Equal(t, http.StatusOK, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, tt.wantLiked, body["liked"])
			assert.EqualValues(t, tt.likes, body["likes"])
		})
	}
}

func TestAnswer_NotifiesOwner(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	questions := mocks.NewStore[models.Question](t)
	answers := mocks.NewStore[models.Answer](t)
	tokens := mocks.NewStore[models.PushToken](t)
	qid := primitive.NewObjectID()

	questions.On("FindOne", mock.Anything, bson.M{"_id": qid}, mock.Anything).
		Return(&models.Question{ID: qid, Slug: "alice", Text: "Favourite book?", Active: true}, nil)
	answers.On("InsertOne", mock.Anything, mock.MatchedBy(func(a models.Answer) bool {
		return a.QuestionID == qid && a.AuthorName == "Anonymous" && a.Text == "Dune"
	})).Return(nil, nil)
	questions.On("UpdateOne", mock.Anything, bson.M{"_id": qid}, bson.M{"$inc": bson.M{"answerCount": 1}}, mock.Anything).Return(updated(1), nil)
	pages.On("FindOne", mock.Anything, bson.M{"_id": "alice", "deletedAt": bson.M{"$exists": false}}, mock.Anything).
		Return(&models.Page{Slug: "alice", UID: "u1", OwnerEmail: "alice@example.com"}, nil)
	tokens.On("Find", mock.Anything, bson.M{"uid": "u1"}, mock.Anything).Return([]models.PushToken{{Token: "ExponentPushToken[a]"}}, nil)

	mailer := &recordingMailer{}
	pusher := &recordingPusher{}
	q := handlers.Question{
		Pages:      pages,
		Questions:  questions,
		Answers:    answers,
		PushTokens: tokens,
		Notifier:   notifications.Notifier{Mailer: mailer, Pusher: pusher},
	}
	req := mux.SetURLVars(newRequest(t, "POST", "/questions/x/answer", map[string]string{"text": " Dune "}), map[string]string{"id": qid.Hex()})
	rr := serve(q.AnswerHandler, as(req, "reader"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"alice@example.com"}, mailer.to)
	assert.Equal(t, []string{"ExponentPushToken[a]"}, pusher.tokens)
}

func TestAnswer_ClosedQuestion(t *testing.T) {
	questions := mocks.NewStore[models.Question](t)
	qid := primitive.NewObjectID()
	questions.On("FindOne", mock.Anything, bson.M{"_id": qid}, mock.Anything).Return(&models.Question{ID: qid, Slug: "alice"}, nil)

	q := handlers.Question{Questions: questions}
	req := mux.SetURLVars(newRequest(t, "POST", "/questions/x/answer", map[string]string{"text": "hi"}), map[string]string{"id": qid.Hex()})
	rr := serve(q.AnswerHandler, as(req, "reader"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteAnswer_StrangerIsForbidden(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	answers := mocks.NewStore[models.Answer](t)
	qid, aid := primitive.NewObjectID(), primitive.NewObjectID()
	answers.On("FindOne", mock.Anything, bson.M{"_id": aid, "questionId": qid}, mock.Anything).
		Return(&models.Answer{ID: aid, QuestionID: qid, Slug: "alice", AuthorID: "author"}, nil)
	pages.On("FindOne", mock.Anything, ownerFilter("stranger"), mock.Anything).Return(&models.Page{Slug: "mallory"}, nil)

	q := handlers.Question{Pages: pages, Answers: answers}
	req := mux.SetURLVars(newRequest(t, "DELETE", "/questions/x/answers/y", nil), map[string]string{"id": qid.Hex(), "answerId": aid.Hex()})
	rr := serve(q.DeleteAnswerHandler, as(req, "stranger"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
