package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegister() RegisterRequest {
	return RegisterRequest{
		Name:     "Alice Smith",
		Username: "Alice",
		Email:    "Alice@Example.com",
		Password: "hunter2hunter2",
		City:     "Austin",
		State:    "TX",
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), "test-secret")

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{name: "missing name", mutate: func(r *RegisterRequest) { r.Name = "" }},
		{name: "missing username", mutate: func(r *RegisterRequest) { r.Username = "" }},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)
			_, _, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore(), "test-secret")

	user, token, err := svc.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.NotEmpty(t, user.UID)
	assert.NotEmpty(t, token)
	// Username and email are stored lowercased.
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		req := validRegister()
		req.Email = "other@example.com"
		_, _, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("login with mixed-case email", func(t *testing.T) {
		got, token, err := svc.Login(ctx, "ALICE@example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, user.UID, got.UID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore(), "test-secret")

	user, _, err := svc.Register(ctx, validRegister())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.UID, "wrong-password", "newpassword1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.ChangePassword(ctx, user.UID, "hunter2hunter2", "newpassword1"))

	_, _, err = svc.Login(ctx, "alice@example.com", "newpassword1")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), "test-secret")

	token, err := svc.GenerateJWT("some-uid")
	require.NoError(t, err)

	uid, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "some-uid", uid)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewUserService(newFakeUserStore(), "different-secret")
		_, err := other.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateJWT("not.a.token")
		assert.Error(t, err)
	})
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := NewUserService(store, "test-secret")

	for _, name := range []string{"anna", "annabel", "bob"} {
		req := validRegister()
		req.Username = name
		req.Email = name + "@example.com"
		_, _, err := svc.Register(ctx, req)
		require.NoError(t, err)
	}

	viewer, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Viewer", Username: "viewer", Email: "viewer@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	results, err := svc.SearchUsers(ctx, viewer.UID, "  ANN ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "anna", results[0].Username)
	assert.Equal(t, "annabel", results[1].Username)

	results, err = svc.SearchUsers(ctx, viewer.UID, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}
