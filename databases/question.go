package databases

import "github.com/lengapp/leng-api/models"

const (
	questionCollectionName   = "questions"
	answerCollectionName     = "answers"
	answerLikeCollectionName = "answerLikes"
)

// QuestionDatabase contains the methods to use with the questions collection
type QuestionDatabase interface {
	Store[models.Question]
}

// NewQuestionDatabase initializes a new instance of question database with the provided db connection
func NewQuestionDatabase(db DatabaseHelper) QuestionDatabase {
	return newCollection[models.Question](db, questionCollectionName)
}

// AnswerDatabase contains the methods to use with the answers collection
type AnswerDatabase interface {
	Store[models.Answer]
}

// NewAnswerDatabase initializes a new instance of answer database with the provided db connection
func NewAnswerDatabase(db DatabaseHelper) AnswerDatabase {
	return newCollection[models.Answer](db, answerCollectionName)
}

// AnswerLikeDatabase contains the methods to use with the answer like dedup records
type AnswerLikeDatabase interface {
	Store[models.AnswerLike]
}

// NewAnswerLikeDatabase initializes a new instance of answer like database with the provided db connection
func NewAnswerLikeDatabase(db DatabaseHelper) AnswerLikeDatabase {
	return newCollection[models.AnswerLike](db, answerLikeCollectionName)
}
