package databases

// go generate: mockery --name PollDatabase

import "github.com/lengapp/leng-api/models"

const (
	pollCollectionName     = "polls"
	pollVoteCollectionName = "pollVotes"
)

// PollDatabase contains the methods to use with the polls collection
type PollDatabase interface {
	Store[models.Poll]
}

// NewPollDatabase initializes a new instance of poll database with the provided db connection
func NewPollDatabase(db DatabaseHelper) PollDatabase {
	return newCollection[models.Poll](db, pollCollectionName)
}

// PollVoteDatabase contains the methods to use with the poll vote dedup records
type PollVoteDatabase interface {
	Store[models.PollVote]
}

// NewPollVoteDatabase initializes a new instance of poll vote database with the provided db connection
func NewPollVoteDatabase(db DatabaseHelper) PollVoteDatabase {
	return newCollection[models.PollVote](db, pollVoteCollectionName)
}
