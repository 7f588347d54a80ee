package handlers

import (
	"encoding/json"
	"net/http"

	"celebration-backend/internal/middleware"
	"celebration-backend/internal/repository"
	"celebration-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userService  *services.UserService
	photoService *services.PhotoService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, photoService *services.PhotoService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		photoService: photoService,
	}
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get profile")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/{user_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var upd repository.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdateProfile(ctx, userID, upd); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UploadProfilePicture handles POST /api/v1/users/me/picture
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	uploads, err := parseUploads(r, 1)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(uploads) == 0 {
		respondError(w, "photo file is required", http.StatusBadRequest)
		return
	}

	url, err := h.photoService.UploadProfilePicture(ctx, uploads[0])
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload profile picture")
		respondError(w, "Failed to upload profile picture", http.StatusInternalServerError)
		return
	}

	if err := h.userService.SetProfilePicture(ctx, userID, url); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"profilePicture": url})
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req struct {
		Token *string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.Token); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update push token")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchUsers handles GET /api/v1/users/search?q=term
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	results, err := h.userService.SearchUsers(ctx, userID, r.URL.Query().Get("q"))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to search users")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": results})
}
