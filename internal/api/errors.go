package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/db8labs/db8-agent/internal/store"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	writeJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeStoreError maps store sentinels to HTTP replies. Anything unknown is
// logged and reported as a 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found", "NOT_FOUND")
	case errors.Is(err, store.ErrNoCredits):
		writeError(w, r, http.StatusForbidden, "no credits remaining", "NO_CREDITS")
	case errors.Is(err, store.ErrAlreadyPublished):
		writeError(w, r, http.StatusConflict, "listing is already published", "ALREADY_PUBLISHED")
	case errors.Is(err, store.ErrInvalidStatus), errors.Is(err, store.ErrApproveViaPublish):
		writeError(w, r, http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}
