package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
)

// Health serves liveness endpoints
type Health struct {
	Client  databases.ClientHelper
	Started time.Time
}

// HealthHandler reports uptime and whether the database answers a ping
func (h Health) HealthHandler(w http.ResponseWriter, r *http.Request) {
	hasDB := false
	if h.Client != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		hasDB = h.Client.Ping(ctx) == nil
		cancel()
	}
	t := now()
	respondJSON(w, http.StatusOK, models.HealthCheckResponse{
		Status:    "ok",
		Uptime:    t.Sub(h.Started).Seconds(),
		Timestamp: t.UnixMilli(),
		Env:       models.HealthEnv{HasDatabase: hasDB, GoVersion: runtime.Version()},
	})
}

// PingHandler answers with a timestamp
func (h Health) PingHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "timestamp": now().UnixMilli()})
}

// NotFoundHandler answers every unknown route
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, models.ErrorResponse{
		Error: fmt.Sprintf("endpoint not found: %s %s", r.Method, r.URL.Path),
	})
}
