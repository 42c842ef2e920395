package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9-]{4,32}$`)

// AccessCode handles plan access codes
type AccessCode struct {
	Codes       databases.AccessCodeDatabase
	Redemptions databases.CodeRedemptionDatabase
	Plans       databases.PlanDatabase
	Subs        databases.SubscriptionDatabase
	Tx          databases.Transactor
}

type createCodeRequest struct {
	Code         string     `json:"code"`
	PlanID       string     `json:"planId"`
	DurationDays int        `json:"durationDays"`
	MaxUses      int        `json:"maxUses"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// newAccessCode generates an 8 character code
func newAccessCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateCodeHandler creates an access code for a plan
func (a AccessCode) CreateCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req createCodeRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = newAccessCode()
	}
	if !accessCodePattern.MatchString(code) {
		respondError(w, r, badRequest("code must be 4-32 characters from A-Z, 0-9 and -"))
		return
	}
	if req.DurationDays <= 0 {
		req.DurationDays = 30
	}
	if req.MaxUses <= 0 {
		req.MaxUses = 1
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := a.Plans.FindOne(ctx, bson.M{"_id": req.PlanID}); err != nil {
		respondError(w, r, notFoundAs(err, "plan not found"))
		return
	}
	ac := models.AccessCode{
		Code:          code,
		PlanID:        req.PlanID,
		DurationDays:  req.DurationDays,
		MaxUses:       req.MaxUses,
		RemainingUses: req.MaxUses,
		ExpiresAt:     req.ExpiresAt,
		CreatedBy:     actor(r),
		CreatedAt:     now(),
	}
	if _, err := a.Codes.InsertOne(ctx, ac); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = conflict("code already exists")
		}
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"code": ac})
}

// ListCodesHandler returns every access code, newest first
func (a AccessCode) ListCodesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	codes, err := a.Codes.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"codes": codes})
}

// DeleteCodeHandler removes an access code
func (a AccessCode) DeleteCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := a.Codes.DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("code not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

type redeemRequest struct {
	Code string `json:"code"`
}

// RedeemHandler spends one use of a code and grants its plan to the caller
func (a AccessCode) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req redeemRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !accessCodePattern.MatchString(code) {
		respondError(w, r, badRequest("invalid or exhausted code"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	var sub models.Subscription
	err = a.Tx.WithTransaction(ctx, func(tctx context.Context) error {
		var err error
		sub, err = a.redeem(tctx, id.UID, code)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	zap.S().Infow("access code redeemed", "code", code, "uid", id.UID, "planId", sub.PlanID)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

// redeem runs the three redemption steps. Any error aborts the surrounding
// transaction, which drops the dedup record again.
func (a AccessCode) redeem(ctx context.Context, uid, code string) (models.Subscription, error) {
	t := now()
	_, err := a.Redemptions.InsertOne(ctx, models.CodeRedemption{Code: code, UID: uid, RedeemedAt: t})
	if mongo.IsDuplicateKeyError(err) {
		return models.Subscription{}, conflict("code already redeemed")
	}
	if err != nil {
		return models.Subscription{}, err
	}

	filter := bson.M{
		"_id":           code,
		"remainingUses": bson.M{"$gt": 0},
		"$or": bson.A{
			bson.M{"expiresAt": bson.M{"$exists": false}},
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": t}},
		},
	}
	ac, err := a.Codes.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"remainingUses": -1, "uses": 1}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Subscription{}, badRequest("invalid or exhausted code")
	}
	if err != nil {
		return models.Subscription{}, err
	}

	return activatePlan(ctx, a.Subs, uid, ac.PlanID, models.SourceCode, ac.DurationDays, "")
}

// activatePlan upserts the subscription of uid onto planID for days days
func activatePlan(ctx context.Context, subs databases.SubscriptionDatabase, uid, planID, source string, days int, sessionID string) (models.Subscription, error) {
	t := now()
	expires := t.AddDate(0, 0, days)
	set := bson.M{
		"planId":    planID,
		"status":    models.SubscriptionActive,
		"source":    source,
		"expiresAt": expires,
		"updatedAt": t,
	}
	if sessionID != "" {
		set["stripeSessionId"] = sessionID
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	sub, err := subs.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": t},
	}, opts)
	if err != nil {
		return models.Subscription{}, err
	}
	return *sub, nil
}
