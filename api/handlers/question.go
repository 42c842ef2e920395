package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/notifications"
)

// Q&A limits
const (
	MaxQuestionText = 300
	MaxAnswerText   = 1000
	MaxAuthorName   = 60
)

// Question handles page questions, answers and likes
type Question struct {
	Pages      databases.PageDatabase
	Questions  databases.QuestionDatabase
	Answers    databases.AnswerDatabase
	Likes      databases.AnswerLikeDatabase
	Subs       databases.SubscriptionDatabase
	Plans      databases.PlanDatabase
	PushTokens databases.PushTokenDatabase
	Tx         databases.Transactor
	Cascade    databases.Cascade
	Notifier   notifications.Notifier
}

type createQuestionRequest struct {
	Slug string `json:"slug"`
	Text string `json:"text"`
}

// CreateQuestionHandler adds a question to the caller's page
func (q Question) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createQuestionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(req.Slug)
	if err := ownerOf(r, q.Pages, id.UID, slug); err != nil {
		respondError(w, r, err)
		return
	}
	text := sanitize.Text(req.Text, MaxQuestionText)
	if text == "" {
		respondError(w, r, badRequest("text is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	limits, _, err := databases.ResolveLimits(ctx, q.Subs, q.Plans, id.UID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	count, err := q.Questions.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if count >= int64(limits.MaxQuestions) {
		respondError(w, r, forbidden(fmt.Sprintf("your plan allows %d questions", limits.MaxQuestions)))
		return
	}

	question := models.Question{
		ID:        primitive.NewObjectID(),
		Slug:      slug,
		OwnerID:   id.UID,
		Text:      text,
		Active:    true,
		CreatedAt: now(),
	}
	if _, err := q.Questions.InsertOne(ctx, question); err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := q.Pages.UpdateOne(ctx, bson.M{"_id": slug}, bson.M{"$addToSet": bson.M{"questionIds": question.ID.Hex()}}); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"question": question})
}

// ListQuestionsHandler returns the questions of a page with their answers,
// answers sorted by likes
func (q Question) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if err := requireLivePage(ctx, q.Pages, slug); err != nil {
		respondError(w, r, err)
		return
	}
	questions, err := q.Questions.Find(ctx, bson.M{"slug": slug}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	answers, err := q.Answers.Find(ctx, bson.M{"slug": slug},
		options.Find().SetSort(bson.D{{Key: "likes", Value: -1}, {Key: "createdAt", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}

	byQuestion := map[primitive.ObjectID][]models.Answer{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	out := make([]models.QuestionWithAnswers, 0, len(questions))
	for _, question := range questions {
		list := byQuestion[question.ID]
		if list == nil {
			list = []models.Answer{}
		}
		out = append(out, models.QuestionWithAnswers{Question: question, Answers: list})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"questions": out})
}

type answerRequest struct {
	Text       string `json:"text"`
	AuthorName string `json:"authorName"`
}

// AnswerHandler posts an answer to an active question and notifies the page owner
func (q Question) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	questionID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	text := sanitize.Text(req.Text, MaxAnswerText)
	if text == "" {
		respondError(w, r, badRequest("text is required"))
		return
	}
	author := sanitize.Text(req.AuthorName, MaxAuthorName)
	if author == "" {
		author = "Anonymous"
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	question, err := q.Questions.FindOne(ctx, bson.M{"_id": questionID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "question not found"))
		return
	}
	if !question.Active {
		respondError(w, r, badRequest("question is closed"))
		return
	}

	answer := models.Answer{
		ID:         primitive.NewObjectID(),
		QuestionID: questionID,
		Slug:       question.Slug,
		AuthorID:   id.UID,
		AuthorName: author,
		Text:       text,
		CreatedAt:  now(),
	}
	if _, err := q.Answers.InsertOne(ctx, answer); err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := q.Questions.UpdateOne(ctx, bson.M{"_id": questionID}, bson.M{"$inc": bson.M{"answerCount": 1}}); err != nil {
		respondError(w, r, err)
		return
	}

	to := ownerRecipient(ctx, q.Pages, q.PushTokens, question.Slug)
	q.Notifier.NewAnswer(ctx, to, question.Slug, question.Text, text)
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"answer": answer})
}

// LikeHandler toggles the caller's like on an answer
func (q Question) LikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	questionID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	answerID, err := objectIDVar(r, "answerId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := q.Answers.FindOne(ctx, bson.M{"_id": answerID, "questionId": questionID}); err != nil {
		respondError(w, r, notFoundAs(err, "answer not found"))
		return
	}

	var liked bool
	var likes int64
	err = q.Tx.WithTransaction(ctx, func(tctx context.Context) error {
		removed, err := q.Likes.DeleteOne(tctx, bson.M{"answerId": answerID, "voterId": id.UID})
		if err != nil {
			return err
		}
		delta := -1
		if removed == 0 {
			_, err := q.Likes.InsertOne(tctx, models.AnswerLike{AnswerID: answerID, VoterID: id.UID, CreatedAt: now()})
			if mongo.IsDuplicateKeyError(err) {
				return conflict("like already recorded")
			}
			if err != nil {
				return err
			}
			delta = 1
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		updated, err := q.Answers.FindOneAndUpdate(tctx, bson.M{"_id": answerID}, bson.M{"$inc": bson.M{"likes": delta}}, opts)
		if err != nil {
			return err
		}
		liked = delta > 0
		likes = updated.Likes
		return nil
	})
	if err != nil {
		respondError(w, r, notFoundAs(err, "answer not found"))
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"liked": liked, "likes": likes})
}

// DeleteQuestionHandler removes a question with its answers and likes
func (q Question) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	questionID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	question, err := q.Questions.FindOne(ctx, bson.M{"_id": questionID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "question not found"))
		return
	}
	if err := ownerOf(r, q.Pages, id.UID, question.Slug); err != nil {
		respondError(w, r, err)
		return
	}
	if err := q.Cascade.PurgeQuestion(ctx, *question); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// DeleteAnswerHandler lets the page owner or the answer author remove an answer
func (q Question) DeleteAnswerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	questionID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	answerID, err := objectIDVar(r, "answerId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	answer, err := q.Answers.FindOne(ctx, bson.M{"_id": answerID, "questionId": questionID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "answer not found"))
		return
	}
	if answer.AuthorID != id.UID {
		if err := ownerOf(r, q.Pages, id.UID, answer.Slug); err != nil {
			respondError(w, r, forbidden("only the page owner or the author can delete this answer"))
			return
		}
	}
	if err := q.Cascade.PurgeAnswer(ctx, *answer); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}
