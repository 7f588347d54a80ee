package handlers

import (
	"encoding/json"
	"net/http"

	"celebration-backend/internal/middleware"
	"celebration-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AlbumHandler handles album HTTP requests
type AlbumHandler struct {
	albumService *services.AlbumService
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(albumService *services.AlbumService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
	}
}

// CreateAlbum handles POST /api/v1/albums
func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Default the album to the caller when no event id is supplied.
	if req.Owner == "" {
		req.Owner = userID
	}

	album, err := h.albumService.Create(ctx, req.Name, req.Owner)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create album")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("album_id", album.ID).Str("owner", album.Owner).Msg("Album created")
	respondJSON(w, http.StatusCreated, album)
}

// GetAlbum handles GET /api/v1/albums/{album_id}
func (h *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albumID := chi.URLParam(r, "album_id")

	album, err := h.albumService.GetByID(ctx, albumID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, album)
}

// ListAlbums handles GET /api/v1/albums?owner=id. Owner is an event id
// or a user uid; it defaults to the caller.
func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = userID
	}

	albums, err := h.albumService.ListByOwner(ctx, owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("Failed to list albums")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"albums": albums})
}

// AddAlbumPhotos handles POST /api/v1/albums/{album_id}/photos. The
// multipart form may carry photo files, a "urls" field of already hosted
// photo URLs, or both.
func (h *AlbumHandler) AddAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	albumID := chi.URLParam(r, "album_id")

	uploads, err := parseUploads(r, maxUploadFiles)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	urls := r.MultipartForm.Value["urls"]

	album, err := h.albumService.AddPhotos(ctx, albumID, urls, uploads)
	if err != nil {
		log.Error().Err(err).Str("album_id", albumID).Str("user_id", userID).Msg("Failed to add album photos")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, album)
}

// AddAlbumFriends handles POST /api/v1/albums/{album_id}/friends
func (h *AlbumHandler) AddAlbumFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albumID := chi.URLParam(r, "album_id")

	var req struct {
		FriendUIDs []string `json:"friend_uids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.albumService.AddFriends(ctx, albumID, req.FriendUIDs); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
