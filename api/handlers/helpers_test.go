package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/databases/mocks"
)

var errDuplicate = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// as attaches an authenticated identity to req
func as(req *http.Request, uid string) *http.Request {
	return req.WithContext(api.WithIdentity(req.Context(), api.Identity{UID: uid, Email: uid + "@example.com"}))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

// passThroughTx runs the transaction body directly
func passThroughTx(t *testing.T) *mocks.Transactor {
	tx := &mocks.Transactor{}
	tx.Test(t)
	tx.On("WithTransaction", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }).
		Maybe()
	t.Cleanup(func() { tx.AssertExpectations(t) })
	return tx
}

func updated(matched int64) *mongo.UpdateResult {
	return &mongo.UpdateResult{MatchedCount: matched, ModifiedCount: matched}
}
