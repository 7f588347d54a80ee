package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"celebration-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage is a change notification pushed to connected clients.
// Clients replace their view state wholesale when one arrives.
type WSMessage struct {
	Type    string      `json:"type"`
	EventID string      `json:"event_id,omitempty"`
	FromUID string      `json:"from_uid,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Message types pushed by the hub.
const (
	MsgEventCreated        = "event_created"
	MsgEventUpdated        = "event_updated"
	MsgEventDeleted        = "event_deleted"
	MsgEventShared         = "event_shared"
	MsgSharedEventAccepted = "shared_event_accepted"
	MsgFriendRequest       = "friend_request"
	MsgFriendAccepted      = "friend_request_accepted"
	MsgFriendRemoved       = "friend_removed"
	MsgError               = "error"
)

// WSHub manages WebSocket connections. Registering a connection is the
// subscribe operation; unregistering is the only cancellation primitive.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userUID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, ok := h.connections[userUID]; ok {
		existing.Close()
	}
	h.connections[userUID] = conn

	log.Info().Str("user_id", userUID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userUID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.connections[userUID]; ok {
		conn.Close()
		delete(h.connections, userUID)
		log.Info().Str("user_id", userUID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userUID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userUID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userUID string, message WSMessage) error {
	h.mu.RLock()
	conn, ok := h.connections[userUID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userUID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userUID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NotifyUser sends a message to a user if they are online, logging but
// not propagating delivery failures.
func (h *WSHub) NotifyUser(userUID string, message WSMessage) {
	if !h.IsOnline(userUID) {
		return
	}
	if err := h.SendToUser(userUID, message); err != nil {
		log.Error().Err(err).Str("user_id", userUID).Str("type", message.Type).
			Msg("Failed to notify user")
	}
}

// BroadcastEventChange pushes an event change notification to the
// connected clients allowed to see the event. ownerFriends marks the
// event owner's friends; private events reach only the owner and that
// set. Unlisted events never broadcast; they are excluded from all
// listings by construction.
func (h *WSHub) BroadcastEventChange(msgType string, event *models.Event, ownerFriends map[string]bool) {
	if event.Privacy == models.PrivacyUnlisted {
		return
	}

	h.mu.RLock()
	uids := make([]string, 0, len(h.connections))
	for uid := range h.connections {
		uids = append(uids, uid)
	}
	h.mu.RUnlock()

	msg := WSMessage{Type: msgType, EventID: event.ID, Data: event}
	for _, uid := range uids {
		if !Visible(event, uid, ownerFriends[uid], false) {
			continue
		}
		h.NotifyUser(uid, msg)
	}
}
