package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/models"
)

// Cascade removes a resource together with the records that reference it.
// Children are always removed before their parent so that an interrupted
// purge can be resumed from the parent.
type Cascade struct {
	Pages       PageDatabase
	Polls       PollDatabase
	PollVotes   PollVoteDatabase
	Questions   QuestionDatabase
	Answers     AnswerDatabase
	AnswerLikes AnswerLikeDatabase
	UserBadges  UserBadgeDatabase
	Links       ShortLinkDatabase
	Agencies    AgencyDatabase
}

// NewCascade wires a Cascade over the given database
func NewCascade(db DatabaseHelper) Cascade {
	return Cascade{
		Pages:       NewPageDatabase(db),
		Polls:       NewPollDatabase(db),
		PollVotes:   NewPollVoteDatabase(db),
		Questions:   NewQuestionDatabase(db),
		Answers:     NewAnswerDatabase(db),
		AnswerLikes: NewAnswerLikeDatabase(db),
		UserBadges:  NewUserBadgeDatabase(db),
		Links:       NewShortLinkDatabase(db),
		Agencies:    NewAgencyDatabase(db),
	}
}

var idsOnly = options.Find().SetProjection(bson.M{"_id": 1})

// PurgePoll deletes a poll, its votes and its back-reference on the page
func (c Cascade) PurgePoll(ctx context.Context, poll models.Poll) error {
	if _, err := c.PollVotes.DeleteMany(ctx, bson.M{"pollId": poll.ID}); err != nil {
		return fmt.Errorf("delete poll votes: %w", err)
	}
	if _, err := c.Polls.DeleteOne(ctx, bson.M{"_id": poll.ID}); err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	if _, err := c.Pages.UpdateOne(ctx, bson.M{"_id": poll.Slug}, bson.M{"$pull": bson.M{"pollIds": poll.ID.Hex()}}); err != nil {
		return fmt.Errorf("unlink poll from page: %w", err)
	}
	return nil
}

// PurgeAnswer deletes an answer with its likes and decrements the question counter
func (c Cascade) PurgeAnswer(ctx context.Context, answer models.Answer) error {
	if _, err := c.AnswerLikes.DeleteMany(ctx, bson.M{"answerId": answer.ID}); err != nil {
		return fmt.Errorf("delete answer likes: %w", err)
	}
	n, err := c.Answers.DeleteOne(ctx, bson.M{"_id": answer.ID})
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	if n == 0 {
		return nil
	}
	if _, err := c.Questions.UpdateOne(ctx, bson.M{"_id": answer.QuestionID}, bson.M{"$inc": bson.M{"answerCount": -1}}); err != nil {
		return fmt.Errorf("decrement answer count: %w", err)
	}
	return nil
}

// PurgeQuestion deletes a question, its answers and likes, and its back-reference on the page
func (c Cascade) PurgeQuestion(ctx context.Context, question models.Question) error {
	answers, err := c.Answers.Find(ctx, bson.M{"questionId": question.ID}, idsOnly)
	if err != nil {
		return fmt.Errorf("find answers: %w", err)
	}
	if err := c.deleteLikes(ctx, answers); err != nil {
		return err
	}
	if _, err := c.Answers.DeleteMany(ctx, bson.M{"questionId": question.ID}); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if _, err := c.Questions.DeleteOne(ctx, bson.M{"_id": question.ID}); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if _, err := c.Pages.UpdateOne(ctx, bson.M{"_id": question.Slug}, bson.M{"$pull": bson.M{"questionIds": question.ID.Hex()}}); err != nil {
		return fmt.Errorf("unlink question from page: %w", err)
	}
	return nil
}

// PurgePage removes every child of a soft deleted page and then the page
// itself, which frees the slug. Only pages carrying deletedAt are removed.
func (c Cascade) PurgePage(ctx context.Context, slug string) error {
	polls, err := c.Polls.Find(ctx, bson.M{"slug": slug}, idsOnly)
	if err != nil {
		return fmt.Errorf("find polls: %w", err)
	}
	if len(polls) > 0 {
		ids := make([]primitive.ObjectID, 0, len(polls))
		for _, p := range polls {
			ids = append(ids, p.ID)
		}
		if _, err := c.PollVotes.DeleteMany(ctx, bson.M{"pollId": bson.M{"$in": ids}}); err != nil {
			return fmt.Errorf("delete poll votes: %w", err)
		}
	}
	if _, err := c.Polls.DeleteMany(ctx, bson.M{"slug": slug}); err != nil {
		return fmt.Errorf("delete polls: %w", err)
	}

	answers, err := c.Answers.Find(ctx, bson.M{"slug": slug}, idsOnly)
	if err != nil {
		return fmt.Errorf("find answers: %w", err)
	}
	if err := c.deleteLikes(ctx, answers); err != nil {
		return err
	}
	if _, err := c.Answers.DeleteMany(ctx, bson.M{"slug": slug}); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if _, err := c.Questions.DeleteMany(ctx, bson.M{"slug": slug}); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	if _, err := c.UserBadges.DeleteMany(ctx, bson.M{"slug": slug}); err != nil {
		return fmt.Errorf("delete user badges: %w", err)
	}
	if _, err := c.Links.DeleteMany(ctx, bson.M{"slug": slug}); err != nil {
		return fmt.Errorf("delete short links: %w", err)
	}
	if _, err := c.Agencies.UpdateMany(ctx, bson.M{"members": slug}, bson.M{"$pull": bson.M{"members": slug}}); err != nil {
		return fmt.Errorf("remove from agencies: %w", err)
	}
	if _, err := c.Pages.DeleteOne(ctx, bson.M{"_id": slug, "deletedAt": bson.M{"$exists": true}}); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

func (c Cascade) deleteLikes(ctx context.Context, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
	}
	if _, err := c.AnswerLikes.DeleteMany(ctx, bson.M{"answerId": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete answer likes: %w", err)
	}
	return nil
}
