package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// Job schedules, all in UTC
const (
	ReconcileSpec           = "*/10 * * * *"
	ExpireSubscriptionsSpec = "0 * * * *"
	CancelStaleOrdersSpec   = "30 3 * * *"
)

// StaleOrderAge is how long an order may stay PENDING before it is cancelled
const StaleOrderAge = 7 * 24 * time.Hour

// reconcileBatch caps the pages purged by one sweep
const reconcileBatch = 200

// Purger removes a soft deleted page with everything that hangs off it
type Purger interface {
	PurgePage(ctx context.Context, slug string) error
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron       *cron.Cron
	Pages      databases.PageDatabase
	Subs       databases.SubscriptionDatabase
	Orders     databases.OrderDatabase
	Purger     Purger
	Lock       Locker
	instanceID string
	now        func() time.Time
}

// NewScheduler wires the jobs to db. A nil lock means a LocalLocker.
func NewScheduler(db databases.DatabaseHelper, lock Locker) *Scheduler {
	if lock == nil {
		lock = LocalLocker{}
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Pages:      databases.NewPageDatabase(db),
		Subs:       databases.NewSubscriptionDatabase(db),
		Orders:     databases.NewOrderDatabase(db),
		Purger:     databases.NewCascade(db),
		Lock:       lock,
		instanceID: uuid.NewString(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start registers every job and starts the cron loop
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec, name string
		ttl        time.Duration
		fn         func(context.Context) error
	}{
		{ReconcileSpec, "reconcile_deleted_pages", 9 * time.Minute, s.reconcileJob},
		{ExpireSubscriptionsSpec, "expire_subscriptions", 10 * time.Minute, s.expireJob},
		{CancelStaleOrdersSpec, "cancel_stale_orders", 30 * time.Minute, s.cancelOrdersJob},
	}
	for _, j := range jobs {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.ttl, j.fn) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.instanceID)
	return nil
}

// Stop waits for running jobs and stops the cron loop
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// run executes fn while holding the named lock. The lock ttl doubles as the
// job deadline.
func (s *Scheduler) run(name string, ttl time.Duration, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), ttl)
	defer cancel()

	acquired, err := s.Lock.TryAcquire(ctx, name, s.instanceID, ttl)
	if err != nil {
		zap.S().Errorw("failed to acquire job lock", "job", name, "error", err)
		return
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", name)
		return
	}
	defer func() {
		if err := s.Lock.Release(context.Background(), name, s.instanceID); err != nil {
			zap.S().Warnw("failed to release job lock", "job", name, "error", err)
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		zap.S().Errorw("job failed", "job", name, "error", err)
		return
	}
	zap.S().Debugw("job finished", "job", name, "took", time.Since(start))
}

func (s *Scheduler) reconcileJob(ctx context.Context) error {
	_, err := s.Reconcile(ctx)
	return err
}

func (s *Scheduler) expireJob(ctx context.Context) error {
	_, err := s.ExpireSubscriptions(ctx)
	return err
}

func (s *Scheduler) cancelOrdersJob(ctx context.Context) error {
	_, err := s.CancelStaleOrders(ctx)
	return err
}

// Reconcile purges soft deleted pages. A page whose purge fails keeps its
// deletedAt marker and is retried by the next sweep.
func (s *Scheduler) Reconcile(ctx context.Context) (int, error) {
	pages, err := s.Pages.Find(ctx, bson.M{"deletedAt": bson.M{"$exists": true}},
		options.Find().
			SetProjection(bson.M{"_id": 1}).
			SetSort(bson.D{{Key: "deletedAt", Value: 1}}).
			SetLimit(reconcileBatch))
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, p := range pages {
		if err := s.Purger.PurgePage(ctx, p.Slug); err != nil {
			zap.S().Errorw("failed to purge page", "slug", p.Slug, "error", err)
			continue
		}
		purged++
	}
	if len(pages) > 0 {
		zap.S().Infow("reconciled deleted pages", "found", len(pages), "purged", purged)
	}
	return purged, nil
}

// ExpireSubscriptions marks active subscriptions past their end as expired
func (s *Scheduler) ExpireSubscriptions(ctx context.Context) (int64, error) {
	t := s.now()
	res, err := s.Subs.UpdateMany(ctx,
		bson.M{"status": models.SubscriptionActive, "expiresAt": bson.M{"$lte": t}},
		bson.M{"$set": bson.M{"status": models.SubscriptionExpired, "updatedAt": t}})
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		zap.S().Infow("expired subscriptions", "count", res.ModifiedCount)
	}
	return res.ModifiedCount, nil
}

// CancelStaleOrders cancels orders left PENDING for longer than StaleOrderAge
func (s *Scheduler) CancelStaleOrders(ctx context.Context) (int64, error) {
	t := s.now()
	res, err := s.Orders.UpdateMany(ctx,
		bson.M{"status": models.OrderPending, "createdAt": bson.M{"$lt": t.Add(-StaleOrderAge)}},
		bson.M{"$set": bson.M{"status": models.OrderCancelled, "updatedAt": t}})
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		zap.S().Infow("cancelled stale orders", "count", res.ModifiedCount)
	}
	return res.ModifiedCount, nil
}
