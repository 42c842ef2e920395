package handlers

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// Document limits
const (
	MaxDocumentTitle = 200
	MaxDocumentBody  = 50000
)

var documentKeyPattern = regexp.MustCompile(`^[a-z0-9-]{2,40}$`)

// Document handles static documents such as terms and privacy
type Document struct {
	Documents databases.DocumentDatabase
}

// ListDocumentsHandler returns the document titles without their bodies
func (d Document) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	docs, err := d.Documents.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"body": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// DocumentHandler returns one document
func (d Document) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	doc, err := d.Documents.FindOne(ctx, bson.M{"_id": mux.Vars(r)["key"]})
	if err != nil {
		respondError(w, r, notFoundAs(err, "document not found"))
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

type documentRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PutDocumentHandler creates or replaces a document
func (d Document) PutDocumentHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !documentKeyPattern.MatchString(key) {
		respondError(w, r, badRequest("key must be 2-40 characters from a-z, 0-9 and -"))
		return
	}
	var req documentRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	doc := models.Document{
		Key:       key,
		Title:     sanitize.Text(req.Title, MaxDocumentTitle),
		Body:      sanitize.Text(req.Body, MaxDocumentBody),
		UpdatedAt: now(),
		UpdatedBy: actor(r),
	}
	if doc.Title == "" {
		respondError(w, r, badRequest("title is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	_, err := d.Documents.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{
		"title":     doc.Title,
		"body":      doc.Body,
		"updatedAt": doc.UpdatedAt,
		"updatedBy": doc.UpdatedBy,
	}}, options.Update().SetUpsert(true))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"document": doc})
}

// DeleteDocumentHandler removes a document
func (d Document) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	n, err := d.Documents.DeleteOne(ctx, bson.M{"_id": mux.Vars(r)["key"]})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, notFound("document not found"))
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}
