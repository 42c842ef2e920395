package databases

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoTransactions is returned for a standalone mongod. Votes, likes,
// redemptions and plan verification run in transactions, which a standalone
// server rejects.
var ErrNoTransactions = errors.New("mongodb deployment does not support transactions: run a replica set (a single node replica set is enough) or a sharded cluster")

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// RequireTransactions asks the server for its topology and fails unless it is
// a replica set member or a mongos router
func RequireTransactions(ctx context.Context, db DatabaseHelper) error {
	var reply helloReply
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if reply.SetName == "" && reply.Msg != "isdbgrid" {
		return ErrNoTransactions
	}
	return nil
}
