package handlers

import (
	"net/http"

	"celebration-backend/internal/middleware"
	"celebration-backend/internal/models"
	"celebration-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friend-graph HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// SendRequest handles POST /api/v1/friends/requests/{user_id}
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	receiverID := chi.URLParam(r, "user_id")

	if err := h.friendService.SendRequest(ctx, userID, receiverID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("receiver", receiverID).Msg("Failed to send friend request")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "pending"})
}

// AcceptRequest handles POST /api/v1/friends/requests/{user_id}/accept
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	senderID := chi.URLParam(r, "user_id")

	if err := h.friendService.AcceptRequest(ctx, userID, senderID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("sender", senderID).Msg("Failed to accept friend request")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// RejectRequest handles POST /api/v1/friends/requests/{user_id}/reject
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	senderID := chi.URLParam(r, "user_id")

	if err := h.friendService.RejectRequest(ctx, userID, senderID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// CancelRequest handles DELETE /api/v1/friends/requests/{user_id}
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	receiverID := chi.URLParam(r, "user_id")

	if err := h.friendService.CancelRequest(ctx, userID, receiverID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// RemoveFriend handles DELETE /api/v1/friends/{user_id}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendID := chi.URLParam(r, "user_id")

	if err := h.friendService.RemoveFriend(ctx, userID, friendID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("friend", friendID).Msg("Failed to remove friend")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	friends, err := h.friendService.ListFriends(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}

// ListRequests handles GET /api/v1/friends/requests?direction=sent|received
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	direction := models.RequestDirection(r.URL.Query().Get("direction"))

	requests, err := h.friendService.ListRequests(ctx, userID, direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// GetRequestStatus handles GET /api/v1/friends/requests/{user_id}/status
func (h *FriendHandler) GetRequestStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "user_id")

	status, err := h.friendService.GetRequestStatus(ctx, userID, peerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
