// Package http provides the development backend's HTTP handlers and routing.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/middleware"
	"github.com/atinyakov/GophMall/internal/models"
)

// AuthService defines the authentication and profile operations required
// by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, username, password, role string) (*models.User, string, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Profile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, nickname string) (*models.User, error)
}

// AuthHandler handles login, registration and the customer profile.
type AuthHandler struct {
	AuthService AuthService
	Logger      *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SessionPayload is returned by login and registration.
type SessionPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles GET /auth/login?username=&password=.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username, password := q.Get("username"), q.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, token, err := h.AuthService.Login(r.Context(), username, password)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, SessionPayload{Token: token, User: u})
}

// Register handles POST /auth/register. A successful registration signs
// the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	u, token, err := h.AuthService.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, SessionPayload{Token: token, User: u})
}

// Profile handles GET /api/customer/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, u)
}

// UpdateProfile handles PUT /api/customer/profile with {"nickname": ...}.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	u, err := h.AuthService.UpdateProfile(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Nickname)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, u)
}
