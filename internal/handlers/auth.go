package handlers

import (
	"encoding/json"
	"net/http"

	"celebration-backend/internal/middleware"
	"celebration-backend/internal/models"
	"celebration-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration and authentication HTTP requests
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", user.UID).
		Str("username", user.Username).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to log in user")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", user.UID).Msg("User logged in")

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to change password")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
