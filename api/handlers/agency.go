package handlers

import (
	"net/http"
	"net/mail"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/notifications"
)

// MaxAgencyName caps agency names
const MaxAgencyName = 100

// Agency handles agencies and their member pages
type Agency struct {
	Agencies databases.AgencyDatabase
	Pages    databases.PageDatabase
	Notifier notifications.Notifier
}

type createAgencyRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
}

// CreateAgencyHandler creates an agency and welcomes its contact
func (a Agency) CreateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	var req createAgencyRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name := sanitize.Text(req.Name, MaxAgencyName)
	if name == "" {
		respondError(w, r, badRequest("name is required"))
		return
	}
	email := ""
	if req.ContactEmail != "" {
		addr, err := mail.ParseAddress(req.ContactEmail)
		if err != nil {
			respondError(w, r, badRequest("invalid contactEmail"))
			return
		}
		email = addr.Address
	}

	t := now()
	agency := models.Agency{
		ID:           primitive.NewObjectID(),
		Name:         name,
		ContactEmail: email,
		Members:      []string{},
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := a.Agencies.InsertOne(ctx, agency); err != nil {
		respondError(w, r, err)
		return
	}
	if email != "" {
		a.Notifier.AgencyWelcome(ctx, email, name)
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"agency": agency})
}

// ListAgenciesHandler returns every agency
func (a Agency) ListAgenciesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	agencies, err := a.Agencies.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"agencies": agencies})
}

// DeleteAgencyHandler removes an agency. Member pages are untouched.
func (a Agency) DeleteAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := a.Agencies.DeleteOne(ctx, bson.M{"_id": agencyID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("agency not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

type memberRequest struct {
	Slug string `json:"slug"`
}

// AddMemberHandler adds an existing page to an agency
func (a Agency) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(req.Slug)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if err := requireLivePage(ctx, a.Pages, slug); err != nil {
		respondError(w, r, err)
		return
	}
	agency, err := a.Agencies.FindOneAndUpdate(ctx, bson.M{"_id": agencyID},
		bson.M{"$addToSet": bson.M{"members": slug}, "$set": bson.M{"updatedAt": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		respondError(w, r, notFoundAs(err, "agency not found"))
		return
	}
	a.Notifier.AgencyJoined(ctx, ownerRecipient(ctx, a.Pages, nil, slug), slug, agency.Name)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"agency": agency})
}

// RemoveMemberHandler removes a page from an agency
func (a Agency) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	agency, err := a.Agencies.FindOneAndUpdate(ctx, bson.M{"_id": agencyID},
		bson.M{"$pull": bson.M{"members": slug}, "$set": bson.M{"updatedAt": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err != nil {
		respondError(w, r, notFoundAs(err, "agency not found"))
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"agency": agency})
}

// PublicAgencyHandler returns an agency with cards of its live member pages
func (a Agency) PublicAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	agency, err := a.Agencies.FindOne(ctx, bson.M{"_id": agencyID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "agency not found"))
		return
	}

	cards := []models.PageCard{}
	if len(agency.Members) > 0 {
		pages, err := a.Pages.Find(ctx, bson.M{
			"_id":       bson.M{"$in": agency.Members},
			"deletedAt": bson.M{"$exists": false},
			"suspended": bson.M{"$ne": true},
		}, options.Find().SetProjection(bson.M{"_id": 1, "displayName": 1, "photoUrl": 1}))
		if err != nil {
			respondError(w, r, err)
			return
		}
		for _, p := range pages {
			cards = append(cards, models.PageCard{Slug: p.Slug, DisplayName: p.DisplayName, PhotoURL: p.PhotoURL})
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      agency.ID,
		"name":    agency.Name,
		"members": cards,
	})
}
