package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"celebration-backend/internal/models"
	"celebration-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

// FriendStore is the persistence surface the friend service needs. Its
// multi-row mutations (request create/accept/delete, friendship removal)
// are atomic: the edge and both users' index entries change together.
type FriendStore interface {
	GetRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error)
	RequestExists(ctx context.Context, a, b string) (bool, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	AcceptRequest(ctx context.Context, senderUID, receiverUID, senderUsername, receiverUsername string) error
	DeleteRequest(ctx context.Context, senderUID, receiverUID string) error
	RemoveFriendship(ctx context.Context, a, b string) error
	ListFriendUIDs(ctx context.Context, userUID string) ([]string, error)
	ListRequestPeers(ctx context.Context, userUID string, direction models.RequestDirection) ([]string, error)
}

// FriendService drives the friend-request state machine:
// none -> pending -> accepted, or pending -> none on reject/cancel.
type FriendService struct {
	friends  FriendStore
	users    UserStore
	hub      *WSHub
	notifier *Notifier
}

// NewFriendService creates a new friend service
func NewFriendService(friends FriendStore, users UserStore, hub *WSHub, notifier *Notifier) *FriendService {
	return &FriendService{
		friends:  friends,
		users:    users,
		hub:      hub,
		notifier: notifier,
	}
}

// SendRequest sends a friend request from sender to receiver. Fails if
// the two are the same user, already friends, or a pending request
// exists in either direction, without mutating any state.
func (s *FriendService) SendRequest(ctx context.Context, senderUID, receiverUID string) error {
	if senderUID == receiverUID {
		return validationErrorf("cannot send a friend request to yourself")
	}

	receiver, err := s.users.GetByUID(ctx, receiverUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", receiverUID, ErrNotFound)
		}
		return fmt.Errorf("failed to look up receiver: %w", err)
	}

	already, err := s.friends.AreFriends(ctx, senderUID, receiverUID)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if already {
		return conflictErrorf("already friends with this user")
	}

	exists, err := s.friends.RequestExists(ctx, senderUID, receiverUID)
	if err != nil {
		return fmt.Errorf("failed to check existing requests: %w", err)
	}
	if exists {
		return conflictErrorf("friend request already exists")
	}

	req := &models.FriendRequest{
		Sender:    senderUID,
		Receiver:  receiverUID,
		Status:    models.FriendPending,
		CreatedAt: time.Now(),
	}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}

	sender, err := s.users.GetByUID(ctx, senderUID)
	if err == nil {
		s.hub.NotifyUser(receiverUID, WSMessage{
			Type:    MsgFriendRequest,
			FromUID: senderUID,
			Data:    map[string]string{"username": sender.Username},
		})
		s.notifier.Push(receiver.PushToken,
			fmt.Sprintf("%s sent you a friend request", sender.Username),
			map[string]interface{}{"type": MsgFriendRequest, "from": senderUID})
	}
	return nil
}

// AcceptRequest accepts the pending request sent by senderUID to
// receiverUID: the edge becomes accepted, both users gain a friend entry
// for the other, and both index entries are removed.
func (s *FriendService) AcceptRequest(ctx context.Context, receiverUID, senderUID string) error {
	req, err := s.friends.GetRequest(ctx, senderUID, receiverUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("friend request: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to get friend request: %w", err)
	}
	if req.Status != models.FriendPending {
		return conflictErrorf("friend request is not pending")
	}

	sender, err := s.users.GetByUID(ctx, senderUID)
	if err != nil {
		return fmt.Errorf("failed to look up sender: %w", err)
	}
	receiver, err := s.users.GetByUID(ctx, receiverUID)
	if err != nil {
		return fmt.Errorf("failed to look up receiver: %w", err)
	}

	err = s.friends.AcceptRequest(ctx, senderUID, receiverUID, sender.Username, receiver.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("friend request: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to accept friend request: %w", err)
	}

	s.hub.NotifyUser(senderUID, WSMessage{
		Type:    MsgFriendAccepted,
		FromUID: receiverUID,
		Data:    map[string]string{"username": receiver.Username},
	})
	s.notifier.Push(sender.PushToken,
		fmt.Sprintf("%s accepted your friend request", receiver.Username),
		map[string]interface{}{"type": MsgFriendAccepted, "from": receiverUID})
	return nil
}

// RejectRequest removes the pending request received from senderUID.
func (s *FriendService) RejectRequest(ctx context.Context, receiverUID, senderUID string) error {
	return s.deleteRequest(ctx, senderUID, receiverUID)
}

// CancelRequest removes the pending request the sender previously sent.
func (s *FriendService) CancelRequest(ctx context.Context, senderUID, receiverUID string) error {
	return s.deleteRequest(ctx, senderUID, receiverUID)
}

func (s *FriendService) deleteRequest(ctx context.Context, senderUID, receiverUID string) error {
	err := s.friends.DeleteRequest(ctx, senderUID, receiverUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("friend request: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	return nil
}

// RemoveFriend deletes the symmetric friendship between the two users.
func (s *FriendService) RemoveFriend(ctx context.Context, userUID, friendUID string) error {
	err := s.friends.RemoveFriendship(ctx, userUID, friendUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("friendship: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	s.hub.NotifyUser(friendUID, WSMessage{Type: MsgFriendRemoved, FromUID: userUID})
	return nil
}

// IsFriend reports whether the two users have an accepted friendship.
func (s *FriendService) IsFriend(ctx context.Context, a, b string) (bool, error) {
	return s.friends.AreFriends(ctx, a, b)
}

// ListFriends returns the user's friends with resolved profiles.
func (s *FriendService) ListFriends(ctx context.Context, userUID string) ([]*models.FriendUser, error) {
	uids, err := s.friends.ListFriendUIDs(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return s.resolveProfiles(ctx, uids)
}

// ListRequests returns the peers in the user's sent or received request
// index with resolved profiles.
func (s *FriendService) ListRequests(ctx context.Context, userUID string, direction models.RequestDirection) ([]*models.FriendUser, error) {
	if direction != models.RequestSent && direction != models.RequestReceived {
		return nil, validationErrorf("direction must be %q or %q", models.RequestSent, models.RequestReceived)
	}
	uids, err := s.friends.ListRequestPeers(ctx, userUID, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return s.resolveProfiles(ctx, uids)
}

// RequestStatus describes the relationship between a viewer and a peer.
type RequestStatus struct {
	Exists    bool                    `json:"exists"`
	Direction models.RequestDirection `json:"type,omitempty"`
	Status    models.FriendStatus     `json:"status,omitempty"`
}

// GetRequestStatus reports whether a pending request exists between the
// viewer and the peer and from whose side it was sent.
func (s *FriendService) GetRequestStatus(ctx context.Context, viewerUID, peerUID string) (*RequestStatus, error) {
	req, err := s.friends.GetRequest(ctx, viewerUID, peerUID)
	if err == nil && req.Status == models.FriendPending {
		return &RequestStatus{Exists: true, Direction: models.RequestSent, Status: models.FriendPending}, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check sent request: %w", err)
	}

	req, err = s.friends.GetRequest(ctx, peerUID, viewerUID)
	if err == nil && req.Status == models.FriendPending {
		return &RequestStatus{Exists: true, Direction: models.RequestReceived, Status: models.FriendPending}, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check received request: %w", err)
	}

	return &RequestStatus{Exists: false}, nil
}

// resolveProfiles fetches the profiles for a set of uids concurrently.
// Users that no longer resolve are dropped rather than failing the call.
func (s *FriendService) resolveProfiles(ctx context.Context, uids []string) ([]*models.FriendUser, error) {
	profiles := make([]*models.FriendUser, 0, len(uids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, uid := range uids {
		uid := uid
		g.Go(func() error {
			user, err := s.users.GetByUID(ctx, uid)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			profiles = append(profiles, &models.FriendUser{
				UID:            user.UID,
				Username:       user.Username,
				Name:           user.Name,
				ProfilePicture: user.ProfilePicture,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve profiles: %w", err)
	}
	return profiles, nil
}
