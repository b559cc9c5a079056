package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-compare/internal/intake"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// validationErrorResponse is the body of a rejected selection.
type validationErrorResponse struct {
	Error  string        `json:"error"`
	Reason intake.Reason `json:"reason"`
	Index  *int          `json:"index,omitempty"`
	Name   string        `json:"name,omitempty"`
}

// respondValidationError reports an intake rejection with its reason, or a
// plain 400 for any other error.
func respondValidationError(w http.ResponseWriter, err error) {
	var ve *intake.ValidationError
	if !errors.As(err, &ve) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := validationErrorResponse{Error: ve.Message, Reason: ve.Reason, Name: ve.Name}
	if ve.Index >= 0 {
		resp.Index = &ve.Index
	}
	respondJSON(w, http.StatusBadRequest, resp)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
