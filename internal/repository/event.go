package repository

import (
	"context"
	"errors"
	"fmt"

	"celebration-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles database operations for events and the
// per-user event and shared-event index pointers.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, event_type, event_date, start_time, end_time,
	celebrant, graduate, bride_name, groom_name, host,
	number_of_guests, street_address, city, state, zip,
	description, info, owner, owner_username, privacy,
	latitude, longitude, created_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var lat, lng *float64
	err := row.Scan(
		&e.ID, &e.Title, &e.Type, &e.DateTime.Date, &e.DateTime.StartTime, &e.DateTime.EndTime,
		&e.Celebrant, &e.Graduate, &e.BrideName, &e.GroomName, &e.Host,
		&e.NumberOfGuests, &e.Location.StreetAddress, &e.Location.City, &e.Location.State, &e.Location.Zip,
		&e.Description, &e.Info, &e.Owner, &e.Username, &e.Privacy,
		&lat, &lng, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		e.Geocode = &models.Geocode{Latitude: *lat, Longitude: *lng}
	}
	return &e, nil
}

// Create inserts an event and the owner's index pointer in one transaction.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	var lat, lng *float64
	if event.Geocode != nil {
		lat, lng = &event.Geocode.Latitude, &event.Geocode.Longitude
	}
	_, err = tx.Exec(ctx, query,
		event.ID, event.Title, event.Type,
		event.DateTime.Date, event.DateTime.StartTime, event.DateTime.EndTime,
		event.Celebrant, event.Graduate, event.BrideName, event.GroomName, event.Host,
		event.NumberOfGuests,
		event.Location.StreetAddress, event.Location.City, event.Location.State, event.Location.Zip,
		event.Description, event.Info, event.Owner, event.Username, event.Privacy,
		lat, lng, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_events (user_uid, event_id, owner_uid) VALUES ($1, $2, $3)`,
		event.Owner, event.ID, event.Owner,
	)
	if err != nil {
		return fmt.Errorf("failed to create owner event pointer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit event creation: %w", err)
	}
	return nil
}

// GetByID retrieves an event with its photos. Works for any privacy tier;
// this is the direct link / QR path.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if err := r.attachPhotos(ctx, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

// Update overwrites an event's mutable fields. Owner and owner username
// are immutable after creation.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			title = $2, event_type = $3,
			event_date = $4, start_time = $5, end_time = $6,
			celebrant = $7, graduate = $8, bride_name = $9, groom_name = $10, host = $11,
			number_of_guests = $12,
			street_address = $13, city = $14, state = $15, zip = $16,
			description = $17, info = $18, privacy = $19,
			latitude = $20, longitude = $21
		WHERE id = $1
	`
	var lat, lng *float64
	if event.Geocode != nil {
		lat, lng = &event.Geocode.Latitude, &event.Geocode.Longitude
	}
	result, err := r.db.Exec(ctx, query,
		event.ID, event.Title, event.Type,
		event.DateTime.Date, event.DateTime.StartTime, event.DateTime.EndTime,
		event.Celebrant, event.Graduate, event.BrideName, event.GroomName, event.Host,
		event.NumberOfGuests,
		event.Location.StreetAddress, event.Location.City, event.Location.State, event.Location.Zip,
		event.Description, event.Info, event.Privacy,
		lat, lng,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", event.ID, ErrNotFound)
	}
	return nil
}

// Delete removes an event and the owner's index pointer in one
// transaction. Pointers held by other users are intentionally left
// behind; listings resolve them against the events table and drop the
// ones that no longer exist.
func (r *EventRepository) Delete(ctx context.Context, eventID, ownerUID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM user_events WHERE user_uid = $1 AND event_id = $2`,
		ownerUID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete owner event pointer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit event deletion: %w", err)
	}
	return nil
}

// ListPublicFeed returns all events except Unlisted ones. Per-viewer
// privacy filtering happens in the service; Unlisted exclusion happens
// here, at the query stage.
func (r *EventRepository) ListPublicFeed(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE privacy <> $1`
	return r.listEvents(ctx, query, models.PrivacyUnlisted)
}

// ListByOwner returns the non-Unlisted events a user owns.
func (r *EventRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner = $1 AND privacy <> $2`
	return r.listEvents(ctx, query, ownerUID, models.PrivacyUnlisted)
}

// ListSaved resolves a user's event index pointers, excluding Unlisted
// events and silently dropping pointers to deleted events.
func (r *EventRepository) ListSaved(ctx context.Context, userUID string) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN user_events ue ON ue.event_id = e.id
		WHERE ue.user_uid = $1 AND e.privacy <> $2
	`
	return r.listEvents(ctx, query, userUID, models.PrivacyUnlisted)
}

// ListShared resolves a user's pending shared-event pointers.
func (r *EventRepository) ListShared(ctx context.Context, userUID string) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN shared_events se ON se.event_id = e.id
		WHERE se.user_uid = $1 AND e.privacy <> $2
	`
	return r.listEvents(ctx, query, userUID, models.PrivacyUnlisted)
}

func (r *EventRepository) listEvents(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	if err := r.attachPhotos(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) attachPhotos(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*models.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := r.db.Query(ctx,
		`SELECT event_id, photo_key, url FROM event_photos WHERE event_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to load event photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, key, url string
		if err := rows.Scan(&eventID, &key, &url); err != nil {
			return fmt.Errorf("failed to scan event photo: %w", err)
		}
		e := byID[eventID]
		if e.Photos == nil {
			e.Photos = make(map[string]string)
		}
		e.Photos[key] = url
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event photos: %w", err)
	}
	return nil
}

// AddPhotos appends photo URLs to an event, keyed by upload timestamp.
func (r *EventRepository) AddPhotos(ctx context.Context, eventID string, photos map[string]string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, url := range photos {
		_, err := tx.Exec(ctx,
			`INSERT INTO event_photos (event_id, photo_key, url) VALUES ($1, $2, $3)`,
			eventID, key, url,
		)
		if err != nil {
			return fmt.Errorf("failed to add event photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit event photos: %w", err)
	}
	return nil
}

// Share writes a pending shared-event pointer into the receiver's index.
func (r *EventRepository) Share(ctx context.Context, receiverUID, eventID, ownerUID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO shared_events (user_uid, event_id, owner_uid) VALUES ($1, $2, $3)
		 ON CONFLICT (user_uid, event_id) DO NOTHING`,
		receiverUID, eventID, ownerUID,
	)
	if err != nil {
		return fmt.Errorf("failed to share event: %w", err)
	}
	return nil
}

// HasShared reports whether the user has a pending share for the event.
func (r *EventRepository) HasShared(ctx context.Context, userUID, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shared_events WHERE user_uid = $1 AND event_id = $2)`,
		userUID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check shared event: %w", err)
	}
	return exists, nil
}

// HasSaved reports whether the user holds a saved pointer to the event.
func (r *EventRepository) HasSaved(ctx context.Context, userUID, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_events WHERE user_uid = $1 AND event_id = $2)`,
		userUID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check saved event: %w", err)
	}
	return exists, nil
}

// AcceptShared copies the share into the user's event index, preserving
// the original owner, and clears the pending entry in one transaction.
func (r *EventRepository) AcceptShared(ctx context.Context, userUID, eventID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerUID string
	err = tx.QueryRow(ctx,
		`SELECT owner_uid FROM shared_events WHERE user_uid = $1 AND event_id = $2`,
		userUID, eventID,
	).Scan(&ownerUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("shared event %s: %w", eventID, ErrNotFound)
		}
		return fmt.Errorf("failed to get shared event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_events (user_uid, event_id, owner_uid) VALUES ($1, $2, $3)
		 ON CONFLICT (user_uid, event_id) DO NOTHING`,
		userUID, eventID, ownerUID,
	)
	if err != nil {
		return fmt.Errorf("failed to save accepted event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM shared_events WHERE user_uid = $1 AND event_id = $2`,
		userUID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear pending share: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit share accept: %w", err)
	}
	return nil
}

// DeclineShared clears a pending share without saving the event.
func (r *EventRepository) DeclineShared(ctx context.Context, userUID, eventID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM shared_events WHERE user_uid = $1 AND event_id = $2`,
		userUID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to decline shared event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("shared event %s: %w", eventID, ErrNotFound)
	}
	return nil
}

// RemoveFromUser deletes only the caller's index pointer, leaving the
// event itself untouched.
func (r *EventRepository) RemoveFromUser(ctx context.Context, userUID, eventID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM user_events WHERE user_uid = $1 AND event_id = $2`,
		userUID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove event pointer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event pointer %s: %w", eventID, ErrNotFound)
	}
	return nil
}
