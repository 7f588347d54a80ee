package repository

import (
	"context"
	"errors"
	"fmt"

	"celebration-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlbumRepository handles database operations for albums
type AlbumRepository struct {
	db *pgxpool.Pool
}

// NewAlbumRepository creates a new album repository
func NewAlbumRepository(db *pgxpool.Pool) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create creates a new album
func (r *AlbumRepository) Create(ctx context.Context, album *models.Album) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO albums (id, name, owner, number_of_photos, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		album.ID, album.Name, album.Owner, album.NumberOfPhotos, album.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// GetByID retrieves an album with its ordered photo list
func (r *AlbumRepository) GetByID(ctx context.Context, id string) (*models.Album, error) {
	var album models.Album
	err := r.db.QueryRow(ctx,
		`SELECT id, name, owner, number_of_photos, created_at FROM albums WHERE id = $1`, id,
	).Scan(&album.ID, &album.Name, &album.Owner, &album.NumberOfPhotos, &album.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT url FROM album_photos WHERE album_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load album photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan album photo: %w", err)
		}
		album.Photos = append(album.Photos, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating album photos: %w", err)
	}
	return &album, nil
}

// ListByOwner retrieves albums by owner id (an event id or user uid)
func (r *AlbumRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Album, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, owner, number_of_photos, created_at
		 FROM albums WHERE owner = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.Album
	for rows.Next() {
		var album models.Album
		err := rows.Scan(&album.ID, &album.Name, &album.Owner, &album.NumberOfPhotos, &album.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return albums, nil
}

// AppendPhotos appends URLs to an album's ordered photo list and bumps
// the photo count, in one transaction.
func (r *AlbumRepository) AppendPhotos(ctx context.Context, albumID string, urls []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM album_photos WHERE album_id = $1`,
		albumID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get next photo position: %w", err)
	}

	for i, url := range urls {
		_, err := tx.Exec(ctx,
			`INSERT INTO album_photos (album_id, position, url) VALUES ($1, $2, $3)`,
			albumID, next+i, url,
		)
		if err != nil {
			return fmt.Errorf("failed to append album photo: %w", err)
		}
	}

	result, err := tx.Exec(ctx,
		`UPDATE albums SET number_of_photos = number_of_photos + $1 WHERE id = $2`,
		len(urls), albumID,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("album %s: %w", albumID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit album photos: %w", err)
	}
	return nil
}
