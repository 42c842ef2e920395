package databases

import (
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxPageSize caps the page size a caller may request
const MaxPageSize = 200

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// Paginate returns find options for a 1-based page of the given size
func Paginate(limit, page int) *options.FindOptions {
	return newMongoPaginate(limit, page).getPaginatedOpts()
}
