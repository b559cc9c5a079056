package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/kozaktomas/face-compare/internal/web/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	gate *session.Gate
	msgs *config.Messages
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(gate *session.Gate, msgs *config.Messages) *AuthHandler {
	return &AuthHandler{
		gate: gate,
		msgs: msgs,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

// Login handles login with the shared credential
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}

	marker, err := h.gate.Login(r.Context(), req.Password)
	if errors.Is(err, session.ErrLoginFailed) {
		respondError(w, http.StatusUnauthorized, h.msgs.LoginFailed)
		return
	}
	if err != nil {
		log.Printf("login: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	middleware.SetSessionCookie(w, r, marker)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   marker,
	})
}

// Logout ends the session and discards the whole workflow state
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.gate.Verify(middleware.MarkerFromRequest(r)) {
		if err := h.gate.Logout(r.Context()); err != nil {
			log.Printf("logout: %v", err)
		}
	}

	middleware.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Status reports whether the request carries the current session marker.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: h.gate.Verify(middleware.MarkerFromRequest(r)),
	})
}
