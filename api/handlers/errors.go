package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/config"
	"github.com/lengapp/leng-api/payments"
	"github.com/lengapp/leng-api/storage"
)

// Error is a failure with a client facing message and status
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(msg string) *Error { return &Error{Status: http.StatusBadRequest, Message: msg} }

func unauthorized() *Error { return &Error{Status: http.StatusUnauthorized, Message: "unauthorized"} }

func forbidden(msg string) *Error { return &Error{Status: http.StatusForbidden, Message: msg} }

func notFound(msg string) *Error { return &Error{Status: http.StatusNotFound, Message: msg} }

func conflict(msg string) *Error { return &Error{Status: http.StatusConflict, Message: msg} }

func unavailable(msg string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Message: msg}
}

const internalMessage = "internal server error"

// respondError maps err onto the error taxonomy and writes it. Untyped errors
// become a 500 with a generic message and are logged with the request id.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	switch {
	case errors.As(err, &e):
	case errors.Is(err, mongo.ErrNoDocuments):
		e = notFound("not found")
	case mongo.IsDuplicateKeyError(err):
		e = conflict("already exists")
	case errors.Is(err, storage.ErrDisabled), errors.Is(err, payments.ErrDisabled):
		e = unavailable("feature not configured")
	default:
		e = &Error{Status: http.StatusInternalServerError, Message: internalMessage, Err: err}
	}

	if e.Status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed",
			"requestId", api.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"timeout", errors.Is(err, context.DeadlineExceeded))
	}
	config.ErrorStatus(e.Message, e.Status, w, nil)
}
