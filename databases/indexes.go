package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collectionIndexes lists the indexes each collection relies on. The unique
// indexes are what make claims, votes, likes and redemptions race free.
var collectionIndexes = map[string][]mongo.IndexModel{
	pageCollectionName: {
		{
			Keys: bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"uid": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "deletedAt", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	pollCollectionName: {
		{Keys: bson.D{{Key: "slug", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	pollVoteCollectionName: {
		{Keys: bson.D{{Key: "pollId", Value: 1}, {Key: "voterId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	questionCollectionName: {
		{Keys: bson.D{{Key: "slug", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	answerCollectionName: {
		{Keys: bson.D{{Key: "questionId", Value: 1}, {Key: "likes", Value: -1}}},
	},
	answerLikeCollectionName: {
		{Keys: bson.D{{Key: "answerId", Value: 1}, {Key: "voterId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	badgeCollectionName: {
		{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	userBadgeCollectionName: {
		{Keys: bson.D{{Key: "badgeId", Value: 1}, {Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	},
	codeRedemptionCollectionName: {
		{Keys: bson.D{{Key: "code", Value: 1}, {Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	shortLinkCollectionName: {
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	},
	orderCollectionName: {
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	},
	pushTokenCollectionName: {
		{Keys: bson.D{{Key: "uid", Value: 1}}},
	},
	subscriptionCollectionName: {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
	},
}

// EnsureIndexes creates every index the service depends on
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for name, models := range collectionIndexes {
		if err := db.Collection(name).CreateIndexes(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
