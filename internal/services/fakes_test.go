package services

import (
	"context"
	"sort"
	"sync"

	"celebration-backend/internal/models"
	"celebration-backend/internal/repository"
)

// In-memory stores backing the service tests.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	hashes map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]*models.User),
		hashes: make(map[string]string),
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	s.users[user.UID] = user
	s.hashes[user.UID] = passwordHash
	return nil
}

func (s *fakeUserStore) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uid, u := range s.users {
		if u.Email == email {
			return u, s.hashes[uid], nil
		}
	}
	return nil, "", repository.ErrNotFound
}

func (s *fakeUserStore) GetPasswordHash(ctx context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[uid]
	if !ok {
		return "", repository.ErrNotFound
	}
	return h, nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[uid] = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, uid string, upd repository.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.City != nil {
		u.City = *upd.City
	}
	if upd.State != nil {
		u.State = *upd.State
	}
	return nil
}

func (s *fakeUserStore) UpdateProfilePicture(ctx context.Context, uid, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfilePicture = url
	return nil
}

func (s *fakeUserStore) UpdatePushToken(ctx context.Context, uid string, pushToken *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	u.PushToken = pushToken
	return nil
}

func (s *fakeUserStore) SearchByUsernamePrefix(ctx context.Context, viewerUID, prefix string, limit int) ([]*models.FriendUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FriendUser
	for uid, u := range s.users {
		if uid == viewerUID {
			continue
		}
		if len(u.Username) >= len(prefix) && u.Username[:len(prefix)] == prefix {
			out = append(out, &models.FriendUser{UID: uid, Username: u.Username, Name: u.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type requestKey struct{ sender, receiver string }

type fakeFriendStore struct {
	mu       sync.Mutex
	requests map[requestKey]*models.FriendRequest
	friends  map[string]map[string]bool
}

func newFakeFriendStore() *fakeFriendStore {
	return &fakeFriendStore{
		requests: make(map[requestKey]*models.FriendRequest),
		friends:  make(map[string]map[string]bool),
	}
}

func (s *fakeFriendStore) GetRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestKey{senderUID, receiverUID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return req, nil
}

func (s *fakeFriendStore) RequestExists(ctx context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[requestKey{a, b}]; ok && req.Status == models.FriendPending {
		return true, nil
	}
	if req, ok := s.requests[requestKey{b, a}]; ok && req.Status == models.FriendPending {
		return true, nil
	}
	return false, nil
}

func (s *fakeFriendStore) AreFriends(ctx context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[a][b], nil
}

func (s *fakeFriendStore) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[requestKey{req.Sender, req.Receiver}] = req
	return nil
}

func (s *fakeFriendStore) AcceptRequest(ctx context.Context, senderUID, receiverUID, senderUsername, receiverUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := requestKey{senderUID, receiverUID}
	req, ok := s.requests[key]
	if !ok || req.Status != models.FriendPending {
		return repository.ErrNotFound
	}
	// The accepted edge row is retained, matching storage.
	req.Status = models.FriendAccepted
	if s.friends[senderUID] == nil {
		s.friends[senderUID] = make(map[string]bool)
	}
	if s.friends[receiverUID] == nil {
		s.friends[receiverUID] = make(map[string]bool)
	}
	s.friends[senderUID][receiverUID] = true
	s.friends[receiverUID][senderUID] = true
	return nil
}

func (s *fakeFriendStore) DeleteRequest(ctx context.Context, senderUID, receiverUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := requestKey{senderUID, receiverUID}
	if _, ok := s.requests[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.requests, key)
	return nil
}

func (s *fakeFriendStore) RemoveFriendship(ctx context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.friends[a][b] {
		return repository.ErrNotFound
	}
	delete(s.friends[a], b)
	delete(s.friends[b], a)
	delete(s.requests, requestKey{a, b})
	delete(s.requests, requestKey{b, a})
	return nil
}

func (s *fakeFriendStore) ListFriendUIDs(ctx context.Context, userUID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for uid := range s.friends[userUID] {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeFriendStore) ListRequestPeers(ctx context.Context, userUID string, direction models.RequestDirection) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for key, req := range s.requests {
		if req.Status != models.FriendPending {
			continue
		}
		if direction == models.RequestSent && key.sender == userUID {
			out = append(out, key.receiver)
		}
		if direction == models.RequestReceived && key.receiver == userUID {
			out = append(out, key.sender)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
	// saved maps user -> event id -> owner uid, the user_events pointers.
	saved map[string]map[string]string
	// shared maps user -> event id -> owner uid, the pending shares.
	shared map[string]map[string]string
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events: make(map[string]*models.Event),
		saved:  make(map[string]map[string]string),
		shared: make(map[string]map[string]string),
	}
}

func (s *fakeEventStore) Create(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
	if s.saved[event.Owner] == nil {
		s.saved[event.Owner] = make(map[string]string)
	}
	s.saved[event.Owner][event.ID] = event.Owner
	return nil
}

func (s *fakeEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) Update(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return repository.ErrNotFound
	}
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) Delete(ctx context.Context, eventID, ownerUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, eventID)
	delete(s.saved[ownerUID], eventID)
	return nil
}

func (s *fakeEventStore) ListPublicFeed(ctx context.Context) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, e := range s.events {
		if e.Privacy != models.PrivacyUnlisted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) ListByOwner(ctx context.Context, ownerUID string) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, e := range s.events {
		if e.Owner == ownerUID && e.Privacy != models.PrivacyUnlisted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) ListSaved(ctx context.Context, userUID string) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for id := range s.saved[userUID] {
		if e, ok := s.events[id]; ok && e.Privacy != models.PrivacyUnlisted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) ListShared(ctx context.Context, userUID string) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for id := range s.shared[userUID] {
		if e, ok := s.events[id]; ok && e.Privacy != models.PrivacyUnlisted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) AddPhotos(ctx context.Context, eventID string, photos map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Photos == nil {
		e.Photos = make(map[string]string)
	}
	for k, v := range photos {
		e.Photos[k] = v
	}
	return nil
}

func (s *fakeEventStore) HasSaved(ctx context.Context, userUID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[userUID][eventID]
	return ok, nil
}

func (s *fakeEventStore) Share(ctx context.Context, receiverUID, eventID, ownerUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shared[receiverUID] == nil {
		s.shared[receiverUID] = make(map[string]string)
	}
	s.shared[receiverUID][eventID] = ownerUID
	return nil
}

func (s *fakeEventStore) HasShared(ctx context.Context, userUID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.shared[userUID][eventID]
	return ok, nil
}

func (s *fakeEventStore) AcceptShared(ctx context.Context, userUID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.shared[userUID][eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.saved[userUID] == nil {
		s.saved[userUID] = make(map[string]string)
	}
	s.saved[userUID][eventID] = owner
	delete(s.shared[userUID], eventID)
	return nil
}

func (s *fakeEventStore) DeclineShared(ctx context.Context, userUID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shared[userUID][eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.shared[userUID], eventID)
	return nil
}

func (s *fakeEventStore) RemoveFromUser(ctx context.Context, userUID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[userUID][eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.saved[userUID], eventID)
	return nil
}
