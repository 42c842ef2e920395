package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question holds the structure for the questions collection in mongo
type Question struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug        string             `json:"slug" bson:"slug"`
	OwnerID     string             `json:"-" bson:"ownerId"`
	Text        string             `json:"text" bson:"text"`
	AnswerCount int64              `json:"answerCount" bson:"answerCount"`
	Active      bool               `json:"active" bson:"active"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// Answer holds the structure for the answers collection in mongo
type Answer struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	QuestionID primitive.ObjectID `json:"questionId" bson:"questionId"`
	Slug       string             `json:"slug" bson:"slug"`
	AuthorID   string             `json:"-" bson:"authorId"`
	AuthorName string             `json:"authorName" bson:"authorName"`
	Text       string             `json:"text" bson:"text"`
	Likes      int64              `json:"likes" bson:"likes"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// AnswerLike is the dedup record for an (answer, voter) pair
type AnswerLike struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AnswerID  primitive.ObjectID `json:"answerId" bson:"answerId"`
	VoterID   string             `json:"voterId" bson:"voterId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// QuestionWithAnswers is the public view of a question and its answers
type QuestionWithAnswers struct {
	Question
	Answers []Answer `json:"answers"`
}
