package api

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultQueryTimeout is the default timeout for database queries
const DefaultQueryTimeout = 10 * time.Second

var queryTimeout atomic.Int64

func init() {
	queryTimeout.Store(int64(DefaultQueryTimeout))
}

// SetQueryTimeout changes the timeout applied by WithQueryTimeout. It is
// called once at start-up from the loaded config.
func SetQueryTimeout(d time.Duration) {
	if d > 0 {
		queryTimeout.Store(int64(d))
	}
}

// QueryTimeout returns the timeout applied to database queries
func QueryTimeout() time.Duration {
	return time.Duration(queryTimeout.Load())
}

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout())
}
