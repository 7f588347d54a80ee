package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"celebration-backend/internal/models"
	"celebration-backend/internal/repository"

	"github.com/google/uuid"
)

// AlbumStore is the persistence surface the album service needs.
type AlbumStore interface {
	Create(ctx context.Context, album *models.Album) error
	GetByID(ctx context.Context, id string) (*models.Album, error)
	ListByOwner(ctx context.Context, owner string) ([]*models.Album, error)
	AppendPhotos(ctx context.Context, albumID string, urls []string) error
}

// AlbumService handles album creation and photo appends. Albums are
// never deleted.
type AlbumService struct {
	albums AlbumStore
	photos *PhotoService
}

// NewAlbumService creates a new album service
func NewAlbumService(albums AlbumStore, photos *PhotoService) *AlbumService {
	return &AlbumService{
		albums: albums,
		photos: photos,
	}
}

// Create creates an empty album. Owner is an event id or a user uid.
func (s *AlbumService) Create(ctx context.Context, name, owner string) (*models.Album, error) {
	if name == "" {
		return nil, validationErrorf("album name is required")
	}
	if owner == "" {
		return nil, validationErrorf("album owner is required")
	}

	album := &models.Album{
		ID:        uuid.New().String(),
		Name:      name,
		Owner:     owner,
		CreatedAt: time.Now(),
	}
	if err := s.albums.Create(ctx, album); err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return album, nil
}

// GetByID returns an album with its photos.
func (s *AlbumService) GetByID(ctx context.Context, albumID string) (*models.Album, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("album %s: %w", albumID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return album, nil
}

// ListByOwner returns the albums attached to an event id or user uid.
func (s *AlbumService) ListByOwner(ctx context.Context, owner string) ([]*models.Album, error) {
	return s.albums.ListByOwner(ctx, owner)
}

// AddPhotos appends photos to an album. Inputs already hosted elsewhere
// pass through as URLs (re-escaped if a round trip decoded them); raw
// uploads are stored first.
func (s *AlbumService) AddPhotos(ctx context.Context, albumID string, existingURLs []string, uploads []Upload) (*models.Album, error) {
	album, err := s.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(existingURLs)+len(uploads))
	for _, raw := range existingURLs {
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return nil, validationErrorf("photo reference %q is not a URL", raw)
		}
		urls = append(urls, NormalizeDownloadURL(raw))
	}

	if len(uploads) > 0 {
		uploaded, err := s.photos.UploadToAlbum(ctx, albumID, uploads)
		if err != nil {
			return nil, err
		}
		urls = append(urls, uploaded...)
	}

	if len(urls) == 0 {
		return album, nil
	}
	if err := s.albums.AppendPhotos(ctx, albumID, urls); err != nil {
		return nil, fmt.Errorf("failed to append photos: %w", err)
	}
	return s.GetByID(ctx, albumID)
}

// AddFriends is the album-sharing affordance. The flow has never been
// wired to storage; reporting success here would be a lie, so it
// surfaces as unimplemented instead.
// TODO: persist album membership once the sharedAlbums index has a schema.
func (s *AlbumService) AddFriends(ctx context.Context, albumID string, friendUIDs []string) error {
	if _, err := s.GetByID(ctx, albumID); err != nil {
		return err
	}
	return fmt.Errorf("adding friends to an album: %w", ErrNotImplemented)
}
