// Package render writes JSON responses and maps service errors to HTTP status codes.
package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
)

func JSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error *apperr.Error `json:"error"`
}

// StatusOf maps err to the status code it is reported with.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// Error writes err as JSON. Errors outside the apperr taxonomy are logged and
// reported as a generic internal error.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	JSON(w, log, StatusOf(err), errorResponse{Error: Describe(log, err)})
}

// Describe returns the client-facing form of err, nil for a nil error. It is
// used for per-item failures inside an otherwise successful reply.
func Describe(log *zap.Logger, err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("request failed", zap.Error(err))
		return &apperr.Error{Kind: "INTERNAL", Message: "internal error"}
	}

	return appErr
}

// BadRequest reports a malformed request that never reached a service.
func BadRequest(w http.ResponseWriter, log *zap.Logger, msg string) {
	JSON(w, log, http.StatusBadRequest, errorResponse{Error: &apperr.Error{Kind: "BAD_REQUEST", Message: msg}})
}
