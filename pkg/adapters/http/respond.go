package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/runner"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details []auth.FieldError `json:"details,omitempty"`
}

// internalErrorResponse carries the cause in development mode.
type internalErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, ErrorResponse{Error: title, Message: message})
}

// fail maps a service error to its HTTP response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Message: "The request contains invalid data",
			Details: verr.Fields,
		})
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "User already exists", "An account with this email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "Email or password is incorrect")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "Invalid token", "The token does not belong to an existing user")
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusForbidden, "Token expired", "The access token has expired, log in again")
	case errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusForbidden, "Invalid token", "The access token is malformed or has been tampered with")
	case errors.Is(err, domain.ErrOperationNotFound):
		writeError(w, http.StatusNotFound, "Operation not found", "The operation does not exist or does not belong to you")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found", "The calculator session does not exist")
	case errors.Is(err, domain.ErrSessionForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", "The calculator session belongs to another user")
	case errors.Is(err, domain.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "Invalid key", err.Error())
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		writeError(w, http.StatusBadRequest, "Invalid input", err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp := internalErrorResponse{
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
		}
		if s.development {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
}

// decode reads a JSON body into v. An empty body leaves v untouched so the
// field validation reports what is missing.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large",
			fmt.Sprintf("The request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON", "The request body contains malformed JSON")
	return false
}
