package handlers

import (
	"encoding/json"
	"net/http"

	"celebration-backend/internal/middleware"
	"celebration-backend/internal/models"
	"celebration-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService *services.EventService
	photoService *services.PhotoService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService, photoService *services.PhotoService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		photoService: photoService,
	}
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.eventService.Create(ctx, userID, &event)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create event")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("event_id", created.ID).
		Str("user_id", userID).
		Str("type", string(created.Type)).
		Msg("Event created")

	respondJSON(w, http.StatusCreated, created)
}

// GetEvent handles GET /events/{event_id}. The route is public so deep
// links and QR scans resolve without a session.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "event_id")

	event, err := h.eventService.GetByID(ctx, eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// GetEventQR handles GET /events/{event_id}/qr and returns a PNG
// encoding the event's deep link.
func (h *EventHandler) GetEventQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "event_id")

	if _, err := h.eventService.GetByID(ctx, eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	png, err := qrcode.Encode(h.eventService.DeepLink(eventID), qrcode.Medium, 512)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to encode QR code")
		respondError(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// UpdateEvent handles PATCH /api/v1/events/{event_id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	var upd services.EventUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.Update(ctx, userID, eventID, upd)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", userID).Msg("Failed to update event")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/v1/events/{event_id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	if err := h.eventService.Delete(ctx, userID, eventID); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", userID).Msg("Failed to delete event")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("Event deleted")
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RemoveFromMyEvents handles DELETE /api/v1/events/{event_id}/saved
func (h *EventHandler) RemoveFromMyEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	if err := h.eventService.RemoveFromMyEvents(ctx, userID, eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListFeed handles GET /api/v1/events/feed
func (h *EventHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.ListFeed(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list feed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ListMine handles GET /api/v1/events/mine
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.ListMine(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ListUploadTargets handles GET /api/v1/events/saved
func (h *EventHandler) ListUploadTargets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.ListUploadTargets(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ListShared handles GET /api/v1/events/shared
func (h *EventHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.ListShared(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ShareEvent handles POST /api/v1/events/{event_id}/share
func (h *EventHandler) ShareEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	var req struct {
		ReceiverUID string `json:"receiver_uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.eventService.Share(ctx, userID, eventID, req.ReceiverUID); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", userID).Msg("Failed to share event")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

// AcceptSharedEvent handles POST /api/v1/events/{event_id}/shared/accept
func (h *EventHandler) AcceptSharedEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	if err := h.eventService.AcceptShared(ctx, userID, eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// DeclineSharedEvent handles POST /api/v1/events/{event_id}/shared/decline
func (h *EventHandler) DeclineSharedEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	if err := h.eventService.DeclineShared(ctx, userID, eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// UploadEventPhotos handles POST /api/v1/events/{event_id}/photos
func (h *EventHandler) UploadEventPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	eventID := chi.URLParam(r, "event_id")

	if err := h.eventService.AuthorizeUpload(ctx, userID, eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	uploads, err := parseUploads(r, maxUploadFiles)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(uploads) == 0 {
		respondError(w, "at least one photo file is required", http.StatusBadRequest)
		return
	}

	photos, err := h.photoService.UploadToEvent(ctx, eventID, uploads)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", userID).Msg("Failed to upload photos")
		respondError(w, "Failed to upload photos", http.StatusInternalServerError)
		return
	}

	if err := h.eventService.AddPhotos(ctx, userID, eventID, photos); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("event_id", eventID).
		Str("user_id", userID).
		Int("count", len(photos)).
		Msg("Event photos uploaded")

	respondJSON(w, http.StatusOK, map[string]interface{}{"photos": photos})
}
