package api

import (
	"net/http"
	"time"
)

// Wrap applies the cross-cutting middleware in order: CORS, request log,
// timeout, then the router
func Wrap(router http.Handler, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return CORS(LoggingMiddleware(TimeoutMiddleware(requestTimeout)(router)))
}
