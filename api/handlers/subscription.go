package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/payments"
)

var planIDPattern = regexp.MustCompile(`^[a-z0-9_-]{2,32}$`)

// Subscription handles plans, checkout and the caller's subscription
type Subscription struct {
	Plans    databases.PlanDatabase
	Subs     databases.SubscriptionDatabase
	Sessions databases.UsedSessionDatabase
	Payments payments.Provider
	Tx       databases.Transactor
}

var errSessionUsed = errors.New("checkout session already applied")

// ListPlansHandler returns the active plans, cheapest first
func (s Subscription) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	plans, err := s.Plans.Find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// MySubscriptionHandler returns the caller's subscription and the limits in effect
func (s Subscription) MySubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sub, err := s.Subs.FindOne(ctx, bson.M{"_id": id.UID})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		sub = &models.Subscription{UID: id.UID, PlanID: models.FreePlanID, Status: models.SubscriptionActive}
	case err != nil:
		respondError(w, r, err)
		return
	}
	limits, planID, err := databases.ResolveLimits(ctx, s.Subs, s.Plans, id.UID, now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"subscription":  sub,
		"effectivePlan": planID,
		"limits":        limits,
	})
}

type checkoutRequest struct {
	PlanID string `json:"planId"`
}

// CheckoutHandler opens a Stripe checkout session for a plan
func (s Subscription) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	plan, err := s.Plans.FindOne(ctx, bson.M{"_id": req.PlanID, "active": true})
	if err != nil {
		respondError(w, r, notFoundAs(err, "plan not found"))
		return
	}
	if plan.PriceCents <= 0 && plan.StripePriceID == "" {
		respondError(w, r, badRequest("plan is free"))
		return
	}

	checkout, err := s.Payments.CreateCheckout(payments.CheckoutRequest{
		Subscription: plan.StripePriceID != "",
		Reference:    id.UID,
		Email:        id.Email,
		Currency:     plan.Currency,
		Items: []payments.LineItem{{
			PriceID:     plan.StripePriceID,
			Name:        plan.Name,
			AmountCents: plan.PriceCents,
			Quantity:    1,
		}},
		Metadata: map[string]string{"uid": id.UID, "planId": plan.ID},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	t := now()
	set := bson.M{"stripeSessionId": checkout.ID, "updatedAt": t}
	current, err := s.Subs.FindOne(ctx, bson.M{"_id": id.UID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		respondError(w, r, err)
		return
	}
	if current == nil || !current.IsCurrent(t) {
		set["status"] = models.SubscriptionPending
		set["planId"] = plan.ID
		set["source"] = models.SourceStripe
	}
	if _, err := s.Subs.UpdateOne(ctx, bson.M{"_id": id.UID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": t}},
		options.Update().SetUpsert(true)); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"url": checkout.URL, "sessionId": checkout.ID})
}

type verifyRequest struct {
	SessionID string `json:"sessionId"`
}

// VerifyHandler activates the plan bought in a completed checkout session
func (s Subscription) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req verifyRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.SessionID == "" {
		respondError(w, r, badRequest("sessionId is required"))
		return
	}

	status, err := s.Payments.GetSession(req.SessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if status.Reference != id.UID {
		respondError(w, r, forbidden("this session does not belong to you"))
		return
	}
	if !status.Complete || !status.Paid {
		respondError(w, r, badRequest("payment not completed"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	plan, err := s.Plans.FindOne(ctx, bson.M{"_id": status.Metadata["planId"]})
	if err != nil {
		respondError(w, r, notFoundAs(err, "plan not found"))
		return
	}

	var sub models.Subscription
	err = s.Tx.WithTransaction(ctx, func(tctx context.Context) error {
		var err error
		sub, err = s.consumeSession(tctx, id.UID, plan, status.ID)
		return err
	})
	if errors.Is(err, errSessionUsed) {
		current, err := s.Subs.FindOne(ctx, bson.M{"_id": id.UID})
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondSuccess(w, http.StatusOK, map[string]interface{}{"subscription": current, "note": "already verified"})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	zap.S().Infow("subscription activated", "uid", id.UID, "planId", plan.ID, "sessionId", status.ID)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

// consumeSession marks the session used and activates the plan. A session
// that was applied before yields errSessionUsed and leaves the subscription
// untouched.
func (s Subscription) consumeSession(ctx context.Context, uid string, plan *models.Plan, sessionID string) (models.Subscription, error) {
	_, err := s.Sessions.InsertOne(ctx, models.UsedSession{ID: sessionID, UID: uid, PlanID: plan.ID, UsedAt: now()})
	if mongo.IsDuplicateKeyError(err) {
		return models.Subscription{}, errSessionUsed
	}
	if err != nil {
		return models.Subscription{}, err
	}
	return activatePlan(ctx, s.Subs, uid, plan.ID, models.SourceStripe, plan.DurationDays, sessionID)
}

// AdminListPlansHandler returns every plan including inactive ones
func (s Subscription) AdminListPlansHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	plans, err := s.Plans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// UpsertPlanHandler creates or replaces a plan
func (s Subscription) UpsertPlanHandler(w http.ResponseWriter, r *http.Request) {
	planID := strings.ToLower(mux.Vars(r)["id"])
	if !planIDPattern.MatchString(planID) {
		respondError(w, r, badRequest("invalid plan id"))
		return
	}
	var plan models.Plan
	if err := decodeJSON(r, w, &plan); err != nil {
		respondError(w, r, err)
		return
	}
	plan.ID = planID
	plan.Name = sanitize.Text(plan.Name, 60)
	if plan.Name == "" {
		respondError(w, r, badRequest("name is required"))
		return
	}
	if plan.PriceCents < 0 {
		respondError(w, r, badRequest("priceCents must not be negative"))
		return
	}
	if plan.DurationDays <= 0 {
		plan.DurationDays = 30
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := s.Plans.UpdateOne(ctx, bson.M{"_id": planID}, bson.M{"$set": databases.PlanFields(plan)},
		options.Update().SetUpsert(true)); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"plan": plan})
}

// DeletePlanHandler removes a plan. The free plan is kept.
func (s Subscription) DeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	planID := strings.ToLower(mux.Vars(r)["id"])
	if planID == models.FreePlanID {
		respondError(w, r, badRequest("the free plan cannot be deleted"))
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := s.Plans.DeleteOne(ctx, bson.M{"_id": planID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("plan not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

type grantPlanRequest struct {
	PlanID string `json:"planId"`
	Days   int    `json:"days"`
}

// GrantSubscriptionHandler sets a user's plan by hand
func (s Subscription) GrantSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	var req grantPlanRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	plan, err := s.Plans.FindOne(ctx, bson.M{"_id": req.PlanID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "plan not found"))
		return
	}
	days := req.Days
	if days <= 0 {
		days = plan.DurationDays
	}
	sub, err := activatePlan(ctx, s.Subs, uid, plan.ID, models.SourceAdmin, days, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	zap.S().Infow("subscription granted", "uid", uid, "planId", plan.ID, "days", days, "by", actor(r))
	respondSuccess(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}
