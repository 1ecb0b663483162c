package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lifesync/internal/engine"
	"lifesync/internal/session"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeOutOfBounds         = "out_of_bounds"
	ErrCodeInvalidWhilePlaying = "invalid_while_playing"
	ErrCodeSessionLimit        = "session_limit"
	ErrCodeSessionClosed       = "session_closed"
	ErrCodeRateLimited         = "rate_limited"
	ErrCodeInternal            = "internal_error"
)

// errBadCommand reports a malformed or incomplete command.
var errBadCommand = errors.New("bad command")

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeFailure maps a domain error onto a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err.Error())
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrOutOfBounds):
		return http.StatusBadRequest, ErrCodeOutOfBounds
	case errors.Is(err, engine.ErrInvalidWhilePlaying):
		return http.StatusConflict, ErrCodeInvalidWhilePlaying
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, session.ErrSessionLimit):
		return http.StatusTooManyRequests, ErrCodeSessionLimit
	case errors.Is(err, engine.ErrClosed):
		return http.StatusGone, ErrCodeSessionClosed
	case errors.Is(err, errBadCommand),
		errors.Is(err, session.ErrInvalidSpec),
		errors.Is(err, engine.ErrSchedulerMisuse):
		return http.StatusBadRequest, ErrCodeBadRequest
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
