package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"celebration-backend/internal/models"
	"celebration-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventStore is the persistence surface the event service needs. Every
// listing method excludes Unlisted events at the query stage.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID, ownerUID string) error
	ListPublicFeed(ctx context.Context) ([]*models.Event, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]*models.Event, error)
	ListSaved(ctx context.Context, userUID string) ([]*models.Event, error)
	ListShared(ctx context.Context, userUID string) ([]*models.Event, error)
	AddPhotos(ctx context.Context, eventID string, photos map[string]string) error
	HasSaved(ctx context.Context, userUID, eventID string) (bool, error)
	Share(ctx context.Context, receiverUID, eventID, ownerUID string) error
	HasShared(ctx context.Context, userUID, eventID string) (bool, error)
	AcceptShared(ctx context.Context, userUID, eventID string) error
	DeclineShared(ctx context.Context, userUID, eventID string) error
	RemoveFromUser(ctx context.Context, userUID, eventID string) error
}

// EventService handles event lifecycle, sharing and visibility.
type EventService struct {
	events   EventStore
	users    UserStore
	friends  FriendStore
	hub      *WSHub
	notifier *Notifier
	baseURL  string
}

// NewEventService creates a new event service
func NewEventService(events EventStore, users UserStore, friends FriendStore, hub *WSHub, notifier *Notifier, baseURL string) *EventService {
	return &EventService{
		events:   events,
		users:    users,
		friends:  friends,
		hub:      hub,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// ValidateEvent checks the type-conditioned required fields and the
// date/time strings of an event submission.
func ValidateEvent(event *models.Event) error {
	if event.Title == "" {
		return validationErrorf("event title is required")
	}
	if !event.Type.Valid() {
		return validationErrorf("unknown event type %q", event.Type)
	}
	if !event.Privacy.Valid() {
		return validationErrorf("privacy must be 1 (public), 2 (private) or 3 (unlisted)")
	}
	if event.Location.StreetAddress == "" || event.Location.City == "" {
		return validationErrorf("street address and city are required")
	}
	if len(event.Location.Zip) != 5 {
		return validationErrorf("zip must be 5 digits")
	}
	if event.NumberOfGuests < 0 {
		return validationErrorf("number of guests cannot be negative")
	}

	// Exactly one featured-person field is required, selected by type.
	switch event.Type {
	case models.EventBirthday:
		if event.Celebrant == "" {
			return validationErrorf("birthday events require a celebrant")
		}
	case models.EventGraduation:
		if event.Graduate == "" {
			return validationErrorf("graduation events require a graduate")
		}
	case models.EventWedding:
		if event.BrideName == "" || event.GroomName == "" {
			return validationErrorf("wedding events require both bride and groom names")
		}
	case models.EventOther:
		if event.Host == "" {
			return validationErrorf("other events require a host")
		}
	}
	clearUnusedFeaturedFields(event)

	if _, err := ParseLongDate(event.DateTime.Date); err != nil {
		return validationErrorf("invalid event date %q", event.DateTime.Date)
	}
	start, err := FormatTimeTo24Hr(event.DateTime.StartTime)
	if err != nil {
		return validationErrorf("invalid start time %q", event.DateTime.StartTime)
	}
	end, err := FormatTimeTo24Hr(event.DateTime.EndTime)
	if err != nil {
		return validationErrorf("invalid end time %q", event.DateTime.EndTime)
	}
	// Normalized "HH:MM" strings compare chronologically.
	if start >= end {
		return validationErrorf("end time must be after start time")
	}
	return nil
}

// clearUnusedFeaturedFields drops the featured-person fields that do not
// belong to the event's type, mirroring how submissions strip empty keys.
func clearUnusedFeaturedFields(event *models.Event) {
	if event.Type != models.EventBirthday {
		event.Celebrant = ""
	}
	if event.Type != models.EventGraduation {
		event.Graduate = ""
	}
	if event.Type != models.EventWedding {
		event.BrideName = ""
		event.GroomName = ""
	}
	if event.Type != models.EventOther {
		event.Host = ""
	}
}

// Visible is the visibility filter: an event shows for a viewer when the
// viewer owns it, it is public, it is private and the viewer is a friend
// of the owner, or it sits in the viewer's pending shares. Unlisted
// exclusion is not this function's job; listings exclude Unlisted events
// at the query stage.
func Visible(event *models.Event, viewerUID string, isFriend, isShared bool) bool {
	if isShared {
		return true
	}
	if event.Owner == viewerUID {
		return true
	}
	switch event.Privacy {
	case models.PrivacyPublic:
		return true
	case models.PrivacyPrivate:
		return isFriend
	}
	return false
}

// Create validates and stores a new event owned by the acting user, and
// writes the owner's index pointer. The owner and denormalized username
// are stamped here and never change.
func (s *EventService) Create(ctx context.Context, actorUID string, event *models.Event) (*models.Event, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}

	actor, err := s.users.GetByUID(ctx, actorUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}

	event.ID = uuid.New().String()
	event.Owner = actor.UID
	event.Username = actor.Username
	event.CreatedAt = time.Now()
	event.Photos = nil

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.broadcastChange(ctx, MsgEventCreated, event)
	return event, nil
}

// EventUpdate carries the optional fields of a partial event edit. Nil
// fields are left unchanged.
type EventUpdate struct {
	Title          *string               `json:"eventTitle"`
	Type           *models.EventType     `json:"eventType"`
	DateTime       *models.EventDateTime `json:"eventDateTime"`
	Celebrant      *string               `json:"celebrant"`
	Graduate       *string               `json:"graduate"`
	BrideName      *string               `json:"brideName"`
	GroomName      *string               `json:"groomName"`
	Host           *string               `json:"host"`
	NumberOfGuests *int                  `json:"numberOfGuests"`
	Location       *models.Location      `json:"location"`
	Description    *string               `json:"description"`
	Info           *string               `json:"info"`
	Privacy        *models.Privacy       `json:"privacy"`
	Geocode        *models.Geocode       `json:"geocode"`
}

// Update applies a partial-field merge to an event, owner-only, with the
// same type-conditioned validation as creation.
func (s *EventService) Update(ctx context.Context, actorUID, eventID string, upd EventUpdate) (*models.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Owner != actorUID {
		return nil, fmt.Errorf("only the owner may edit an event: %w", ErrForbidden)
	}

	applyEventUpdate(event, upd)
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.broadcastChange(ctx, MsgEventUpdated, event)
	return event, nil
}

func applyEventUpdate(event *models.Event, upd EventUpdate) {
	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Type != nil {
		event.Type = *upd.Type
	}
	if upd.DateTime != nil {
		event.DateTime = *upd.DateTime
	}
	if upd.Celebrant != nil {
		event.Celebrant = *upd.Celebrant
	}
	if upd.Graduate != nil {
		event.Graduate = *upd.Graduate
	}
	if upd.BrideName != nil {
		event.BrideName = *upd.BrideName
	}
	if upd.GroomName != nil {
		event.GroomName = *upd.GroomName
	}
	if upd.Host != nil {
		event.Host = *upd.Host
	}
	if upd.NumberOfGuests != nil {
		event.NumberOfGuests = *upd.NumberOfGuests
	}
	if upd.Location != nil {
		event.Location = *upd.Location
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.Info != nil {
		event.Info = *upd.Info
	}
	if upd.Privacy != nil {
		event.Privacy = *upd.Privacy
	}
	if upd.Geocode != nil {
		event.Geocode = upd.Geocode
	}
}

// Delete hard-deletes an event and the owner's pointer, owner-only.
// Pointers other users hold are not cascaded; listings drop them when
// the event no longer resolves.
func (s *EventService) Delete(ctx context.Context, actorUID, eventID string) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Owner != actorUID {
		return fmt.Errorf("only the owner may delete an event: %w", ErrForbidden)
	}

	if err := s.events.Delete(ctx, eventID, actorUID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.broadcastChange(ctx, MsgEventDeleted, event)
	return nil
}

// RemoveFromMyEvents deletes only the caller's saved pointer to an
// event, leaving the event itself in place.
func (s *EventService) RemoveFromMyEvents(ctx context.Context, actorUID, eventID string) error {
	err := s.events.RemoveFromUser(ctx, actorUID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return err
	}
	return nil
}

// GetByID returns an event by direct id lookup. This is the deep link /
// QR path and works for Unlisted events.
func (s *EventService) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	return s.getEvent(ctx, eventID)
}

func (s *EventService) getEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Share pushes an event into another user's pending shares. Only the
// owner may share, and only with an existing user.
func (s *EventService) Share(ctx context.Context, actorUID, eventID, receiverUID string) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Owner != actorUID {
		return fmt.Errorf("only the owner may share an event: %w", ErrForbidden)
	}
	if receiverUID == actorUID {
		return validationErrorf("cannot share an event with yourself")
	}

	receiver, err := s.users.GetByUID(ctx, receiverUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", receiverUID, ErrNotFound)
		}
		return fmt.Errorf("failed to look up receiver: %w", err)
	}

	pending, err := s.events.HasShared(ctx, receiverUID, eventID)
	if err != nil {
		return fmt.Errorf("failed to check pending shares: %w", err)
	}
	if pending {
		return conflictErrorf("event already shared with this user")
	}

	if err := s.events.Share(ctx, receiverUID, eventID, event.Owner); err != nil {
		return fmt.Errorf("failed to share event: %w", err)
	}

	s.hub.NotifyUser(receiverUID, WSMessage{Type: MsgEventShared, EventID: eventID, FromUID: actorUID, Data: event})
	s.notifier.Push(receiver.PushToken,
		fmt.Sprintf("%s shared %q with you", event.Username, event.Title),
		map[string]interface{}{"type": MsgEventShared, "event_id": eventID})
	return nil
}

// AcceptShared saves a pending share into the user's events (keeping the
// original owner) and clears the pending entry.
func (s *EventService) AcceptShared(ctx context.Context, actorUID, eventID string) error {
	err := s.events.AcceptShared(ctx, actorUID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("shared event %s: %w", eventID, ErrNotFound)
		}
		return fmt.Errorf("failed to accept shared event: %w", err)
	}
	s.hub.NotifyUser(actorUID, WSMessage{Type: MsgSharedEventAccepted, EventID: eventID})
	return nil
}

// DeclineShared clears a pending share without saving the event.
func (s *EventService) DeclineShared(ctx context.Context, actorUID, eventID string) error {
	err := s.events.DeclineShared(ctx, actorUID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("shared event %s: %w", eventID, ErrNotFound)
		}
		return fmt.Errorf("failed to decline shared event: %w", err)
	}
	return nil
}

// ListFeed returns the events visible to the viewer in the public feed:
// public events, the viewer's own, and friends' private events, sorted
// chronologically. Unlisted events never appear.
func (s *EventService) ListFeed(ctx context.Context, viewerUID string) ([]*models.Event, error) {
	events, err := s.events.ListPublicFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	friendUIDs, err := s.friends.ListFriendUIDs(ctx, viewerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	friendSet := make(map[string]bool, len(friendUIDs))
	for _, uid := range friendUIDs {
		friendSet[uid] = true
	}

	visible := events[:0]
	for _, event := range events {
		if Visible(event, viewerUID, friendSet[event.Owner], false) {
			visible = append(visible, event)
		}
	}

	SortEventsChronologically(visible)
	return visible, nil
}

// ListMine returns the events the viewer owns, sorted chronologically.
func (s *EventService) ListMine(ctx context.Context, viewerUID string) ([]*models.Event, error) {
	events, err := s.events.ListByOwner(ctx, viewerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own events: %w", err)
	}
	SortEventsChronologically(events)
	return events, nil
}

// ListUploadTargets returns the viewer's saved events, the set photos
// can be uploaded to, sorted chronologically.
func (s *EventService) ListUploadTargets(ctx context.Context, viewerUID string) ([]*models.Event, error) {
	events, err := s.events.ListSaved(ctx, viewerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved events: %w", err)
	}
	SortEventsChronologically(events)
	return events, nil
}

// ListShared returns the viewer's pending shared events, sorted
// chronologically.
func (s *EventService) ListShared(ctx context.Context, viewerUID string) ([]*models.Event, error) {
	events, err := s.events.ListShared(ctx, viewerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared events: %w", err)
	}
	SortEventsChronologically(events)
	return events, nil
}

// AuthorizeUpload checks that the actor may add photos to an event: the
// owner always can, everyone else needs a saved pointer.
func (s *EventService) AuthorizeUpload(ctx context.Context, actorUID, eventID string) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Owner == actorUID {
		return nil
	}
	saved, err := s.events.HasSaved(ctx, actorUID, eventID)
	if err != nil {
		return fmt.Errorf("failed to check saved events: %w", err)
	}
	if !saved {
		return fmt.Errorf("only users who saved the event may add photos: %w", ErrForbidden)
	}
	return nil
}

// AddPhotos records uploaded photo URLs on an event, for the owner and
// saved pointer holders only.
func (s *EventService) AddPhotos(ctx context.Context, actorUID, eventID string, photos map[string]string) error {
	if len(photos) == 0 {
		return nil
	}
	if err := s.AuthorizeUpload(ctx, actorUID, eventID); err != nil {
		return err
	}
	if err := s.events.AddPhotos(ctx, eventID, photos); err != nil {
		return fmt.Errorf("failed to add photos: %w", err)
	}
	return nil
}

// broadcastChange fans an event change out to connected clients, scoped
// by the same owner/friend rule the listings apply: everyone may hear
// about public events, only the owner and their friends about private
// ones. Unlisted events never broadcast.
func (s *EventService) broadcastChange(ctx context.Context, msgType string, event *models.Event) {
	var ownerFriends map[string]bool
	if event.Privacy == models.PrivacyPrivate {
		uids, err := s.friends.ListFriendUIDs(ctx, event.Owner)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Str("type", msgType).
				Msg("Failed to resolve broadcast recipients")
			return
		}
		ownerFriends = make(map[string]bool, len(uids))
		for _, uid := range uids {
			ownerFriends[uid] = true
		}
	}
	s.hub.BroadcastEventChange(msgType, event, ownerFriends)
}

// DeepLink returns the shareable URL a QR code for the event encodes.
func (s *EventService) DeepLink(eventID string) string {
	return fmt.Sprintf("%s/events/%s", s.baseURL, eventID)
}
