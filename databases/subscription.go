package databases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/models"
)

const (
	planCollectionName         = "plans"
	subscriptionCollectionName = "subscriptions"
	usedSessionCollectionName  = "usedSessions"
)

// PlanDatabase contains the methods to use with the plans collection
type PlanDatabase interface {
	Store[models.Plan]
}

// NewPlanDatabase initializes a new instance of plan database with the provided db connection
func NewPlanDatabase(db DatabaseHelper) PlanDatabase {
	return newCollection[models.Plan](db, planCollectionName)
}

// SubscriptionDatabase contains the methods to use with the subscriptions collection
type SubscriptionDatabase interface {
	Store[models.Subscription]
}

// NewSubscriptionDatabase initializes a new instance of subscription database with the provided db connection
func NewSubscriptionDatabase(db DatabaseHelper) SubscriptionDatabase {
	return newCollection[models.Subscription](db, subscriptionCollectionName)
}

// UsedSessionDatabase records the checkout sessions already applied to a
// subscription. The session id is the _id, so a second insert fails.
type UsedSessionDatabase interface {
	Store[models.UsedSession]
}

// NewUsedSessionDatabase initializes a new instance of used session database with the provided db connection
func NewUsedSessionDatabase(db DatabaseHelper) UsedSessionDatabase {
	return newCollection[models.UsedSession](db, usedSessionCollectionName)
}

// ResolveLimits returns the plan limits that currently apply to uid. An
// expired or missing subscription falls back to the free plan, and a missing
// free plan falls back to models.DefaultLimits.
func ResolveLimits(ctx context.Context, subs SubscriptionDatabase, plans PlanDatabase, uid string, now time.Time) (models.PlanLimits, string, error) {
	planID := models.FreePlanID
	sub, err := subs.FindOne(ctx, bson.M{"_id": uid})
	switch {
	case err == nil && sub.IsCurrent(now):
		planID = sub.PlanID
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return models.PlanLimits{}, "", err
	}

	plan, err := plans.FindOne(ctx, bson.M{"_id": planID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultLimits, planID, nil
	}
	if err != nil {
		return models.PlanLimits{}, "", err
	}
	return plan.Limits, planID, nil
}

// UpsertPlans writes every plan of the catalog, replacing stored fields of
// plans with the same id. It returns how many plans were inserted.
func UpsertPlans(ctx context.Context, plans PlanDatabase, catalog []models.Plan) (int, error) {
	inserted := 0
	for _, p := range catalog {
		res, err := plans.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": PlanFields(p)}, options.Update().SetUpsert(true))
		if err != nil {
			return inserted, fmt.Errorf("upsert plan %s: %w", p.ID, err)
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// PlanFields returns the settable fields of p
func PlanFields(p models.Plan) bson.M {
	return bson.M{
		"name":          p.Name,
		"priceCents":    p.PriceCents,
		"currency":      p.Currency,
		"stripePriceId": p.StripePriceID,
		"durationDays":  p.DurationDays,
		"features":      p.Features,
		"limits":        p.Limits,
		"active":        p.Active,
	}
}
