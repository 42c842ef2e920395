package scheduler

import (
	"context"
	"time"
)

// SetClock replaces the clock used by the jobs
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run executes fn the way a cron tick would
func (s *Scheduler) Run(name string, ttl time.Duration, fn func(context.Context) error) {
	s.run(name, ttl, fn)
}
