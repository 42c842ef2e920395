package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
)

func TestRedirect(t *testing.T) {
	links := mocks.NewStore[models.ShortLink](t)
	links.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": "promo"}, bson.M{"$inc": bson.M{"clicks": 1}}, mock.Anything).
		Return(&models.ShortLink{Code: "promo", URL: "https://example.com/sale"}, nil)

	s := handlers.ShortLink{Links: links}
	req := mux.SetURLVars(newRequest(t, "GET", "/s/promo", nil), map[string]string{"code": "promo"})
	rr := serve(s.RedirectHandler, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://example.com/sale", rr.Header().Get("Location"))
}

func TestRedirect_UnknownCode(t *testing.T) {
	links := mocks.NewStore[models.ShortLink](t)
	links.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": "nope"}, mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	s := handlers.ShortLink{Links: links}
	req := mux.SetURLVars(newRequest(t, "GET", "/s/nope", nil), map[string]string{"code": "nope"})
	rr := serve(s.RedirectHandler, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "link not found", decode(t, rr)["error"])
}

func TestRedirect_MalformedCodeSkipsLookup(t *testing.T) {
	links := mocks.NewStore[models.ShortLink](t)

	s := handlers.ShortLink{Links: links}
	req := mux.SetURLVars(newRequest(t, "GET", "/s/x", nil), map[string]string{"code": "../etc"})
	rr := serve(s.RedirectHandler, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
