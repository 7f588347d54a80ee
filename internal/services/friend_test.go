package services

import (
	"context"
	"testing"

	"celebration-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFriendService(t *testing.T) (*FriendService, *fakeFriendStore, *fakeUserStore) {
	t.Helper()
	friends := newFakeFriendStore()
	users := newFakeUserStore()
	svc := NewFriendService(friends, users, NewWSHub(), &Notifier{})
	return svc, friends, users
}

func TestSendRequest(t *testing.T) {
	ctx := context.Background()
	svc, friends, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	t.Run("to yourself", func(t *testing.T) {
		err := svc.SendRequest(ctx, "alice-uid", "alice-uid")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("to a missing user", func(t *testing.T) {
		err := svc.SendRequest(ctx, "alice-uid", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))

	t.Run("duplicate in the same direction", func(t *testing.T) {
		err := svc.SendRequest(ctx, "alice-uid", "bob-uid")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("duplicate in the opposite direction", func(t *testing.T) {
		err := svc.SendRequest(ctx, "bob-uid", "alice-uid")
		assert.ErrorIs(t, err, ErrConflict)
		// The failed send leaves the original edge untouched.
		assert.Len(t, friends.requests, 1)
		req, getErr := friends.GetRequest(ctx, "alice-uid", "bob-uid")
		require.NoError(t, getErr)
		assert.Equal(t, models.FriendPending, req.Status)
	})
}

func TestAcceptRequestIsSymmetric(t *testing.T) {
	ctx := context.Background()
	svc, friends, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob-uid", "alice-uid"))

	aliceSide, err := svc.IsFriend(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	bobSide, err := svc.IsFriend(ctx, "bob-uid", "alice-uid")
	require.NoError(t, err)
	assert.True(t, aliceSide)
	assert.True(t, bobSide)

	// The edge survives as accepted; both index views are gone.
	req, err := friends.GetRequest(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.Equal(t, models.FriendAccepted, req.Status)
	sent, err := svc.ListRequests(ctx, "alice-uid", models.RequestSent)
	require.NoError(t, err)
	assert.Empty(t, sent)
	received, err := svc.ListRequests(ctx, "bob-uid", models.RequestReceived)
	require.NoError(t, err)
	assert.Empty(t, received)

	t.Run("accepting twice conflicts", func(t *testing.T) {
		err := svc.AcceptRequest(ctx, "bob-uid", "alice-uid")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("sending to a friend conflicts", func(t *testing.T) {
		err := svc.SendRequest(ctx, "alice-uid", "bob-uid")
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestRejectAndCancelRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))
	require.NoError(t, svc.RejectRequest(ctx, "bob-uid", "alice-uid"))

	isFriend, err := svc.IsFriend(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.False(t, isFriend)

	// A rejected pair can start over.
	require.NoError(t, svc.SendRequest(ctx, "bob-uid", "alice-uid"))
	require.NoError(t, svc.CancelRequest(ctx, "bob-uid", "alice-uid"))

	status, err := svc.GetRequestStatus(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.False(t, status.Exists)
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob-uid", "alice-uid"))
	require.NoError(t, svc.RemoveFriend(ctx, "alice-uid", "bob-uid"))

	aliceSide, err := svc.IsFriend(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	bobSide, err := svc.IsFriend(ctx, "bob-uid", "alice-uid")
	require.NoError(t, err)
	assert.False(t, aliceSide)
	assert.False(t, bobSide)

	t.Run("removing twice is not found", func(t *testing.T) {
		err := svc.RemoveFriend(ctx, "alice-uid", "bob-uid")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSendRequestAfterUnfriend(t *testing.T) {
	ctx := context.Background()
	svc, friends, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob-uid", "alice-uid"))
	require.NoError(t, svc.RemoveFriend(ctx, "alice-uid", "bob-uid"))

	// Unfriending purges the consumed edge, so the pair can go through
	// the whole request cycle again, in either direction.
	assert.Empty(t, friends.requests)
	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))
	require.NoError(t, svc.AcceptRequest(ctx, "bob-uid", "alice-uid"))

	isFriend, err := svc.IsFriend(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.True(t, isFriend)
}

func TestListFriendsResolvesProfiles(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")
	seedUser(t, users, "carol-uid", "carol")

	for _, uid := range []string{"bob-uid", "carol-uid"} {
		require.NoError(t, svc.SendRequest(ctx, "alice-uid", uid))
		require.NoError(t, svc.AcceptRequest(ctx, uid, "alice-uid"))
	}

	list, err := svc.ListFriends(ctx, "alice-uid")
	require.NoError(t, err)
	require.Len(t, list, 2)

	usernames := []string{list[0].Username, list[1].Username}
	assert.ElementsMatch(t, []string{"bob", "carol"}, usernames)

	// A friend whose account vanished is dropped, not an error.
	delete(users.users, "carol-uid")
	list, err = svc.ListFriends(ctx, "alice-uid")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Username)
}

func TestGetRequestStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")
	seedUser(t, users, "bob-uid", "bob")

	status, err := svc.GetRequestStatus(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.False(t, status.Exists)

	require.NoError(t, svc.SendRequest(ctx, "alice-uid", "bob-uid"))

	status, err = svc.GetRequestStatus(ctx, "alice-uid", "bob-uid")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, models.RequestSent, status.Direction)

	status, err = svc.GetRequestStatus(ctx, "bob-uid", "alice-uid")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, models.RequestReceived, status.Direction)
}

func TestListRequestsDirectionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, users := newTestFriendService(t)
	seedUser(t, users, "alice-uid", "alice")

	_, err := svc.ListRequests(ctx, "alice-uid", "sideways")
	assert.ErrorIs(t, err, ErrValidation)
}
