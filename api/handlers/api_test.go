package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/testhelpers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/notifications"
	"github.com/lengapp/leng-api/payments"
	"github.com/lengapp/leng-api/storage"
)

// newTestApp builds an App whose every collection answers CountDocuments
// with zero
func newTestApp(t *testing.T) (*App, *mocks.ClientHelper) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conf := testhelpers.TestConfig(t)
	verifier, err := api.NewTokenVerifier(conf.Identity)
	require.NoError(t, err)

	conn := &mocks.CollectionHelper{}
	conn.On("CountDocuments", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	db := &mocks.DatabaseHelper{}
	db.On("Collection", mock.Anything).Return(conn)
	client := &mocks.ClientHelper{}

	a := &App{
		Config:   conf,
		Client:   client,
		Gate:     api.NewGate(ctx, conf, verifier),
		Store:    storage.Disabled{},
		Payments: payments.Disabled{},
		Notifier: notifications.Notifier{},
		Started:  time.Now().Add(-time.Minute),
		dbHelper: db,
	}
	a.initializeRoutes()
	t.Cleanup(a.Hub.Close)
	return a, client
}

func (a *App) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func TestNotFoundCatchAll(t *testing.T) {
	a, _ := newTestApp(t)

	req, err := http.NewRequest("GET", "/asdf", nil)
	require.NoError(t, err)
	rr := a.do(req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"endpoint not found: GET /asdf"}`, rr.Body.String())
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    bool
	}{
		{"database up", nil, true},
		{"database down", errors.New("no reachable servers"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, client := newTestApp(t)
			client.On("Ping", mock.Anything).Return(tt.pingErr)

			req, err := http.NewRequest("GET", "/health", nil)
			require.NoError(t, err)
			rr := a.do(req)

			require.Equal(t, http.StatusOK, rr.Code)
			var body models.HealthCheckResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "ok", body.Status)
			assert.Equal(t, tt.want, body.Env.HasDatabase)
			assert.GreaterOrEqual(t, body.Uptime, 60.0)
		})
	}
}

func TestAdminGate(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T, r *http.Request)
		want   int
	}{
		{"anonymous", func(t *testing.T, r *http.Request) {}, http.StatusUnauthorized},
		{"wrong admin key", func(t *testing.T, r *http.Request) {
			r.Header.Set(api.AdminKeyHeader, "guess")
		}, http.StatusUnauthorized},
		{"signed in but not an admin", func(t *testing.T, r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+testhelpers.SignToken(t, "u1", "user@example.com"))
		}, http.StatusForbidden},
		{"admin email", func(t *testing.T, r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+testhelpers.SignToken(t, "u2", "Admin@leng.app"))
		}, http.StatusOK},
		{"admin key", func(t *testing.T, r *http.Request) {
			r.Header.Set(api.AdminKeyHeader, testhelpers.AdminKey)
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)
			req, err := http.NewRequest("GET", "/admin/stats", nil)
			require.NoError(t, err)
			tt.header(t, req)

			rr := a.do(req)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	a, _ := newTestApp(t)
	for _, route := range []struct{ method, path string }{
		{"POST", "/claim"},
		{"GET", "/my-slug"},
		{"PUT", "/page"},
		{"POST", "/polls"},
		{"POST", "/codes/redeem"},
		{"POST", "/upload/presign"},
	} {
		req, err := http.NewRequest(route.method, route.path, nil)
		require.NoError(t, err)
		rr := a.do(req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
	}
}
