package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"celebration-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository handles friend request edges, the per-user
// sent/received request indexes, and the symmetric friends adjacency.
// Every multi-row mutation runs inside a single transaction so the edge
// and its index entries can never drift apart.
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// GetRequest retrieves the request edge for the ordered (sender, receiver) pair.
func (r *FriendRepository) GetRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error) {
	query := `
		SELECT sender_uid, receiver_uid, status, created_at, accepted_at
		FROM friend_requests
		WHERE sender_uid = $1 AND receiver_uid = $2
	`
	var req models.FriendRequest
	err := r.db.QueryRow(ctx, query, senderUID, receiverUID).Scan(
		&req.Sender, &req.Receiver, &req.Status, &req.CreatedAt, &req.AcceptedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend request %s->%s: %w", senderUID, receiverUID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return &req, nil
}

// RequestExists reports whether a pending request exists in either direction.
func (r *FriendRepository) RequestExists(ctx context.Context, a, b string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE status = $3
			  AND ((sender_uid = $1 AND receiver_uid = $2)
			    OR (sender_uid = $2 AND receiver_uid = $1))
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, a, b, models.FriendPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friend request: %w", err)
	}
	return exists, nil
}

// AreFriends reports whether an accepted friend edge exists.
func (r *FriendRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friends WHERE user_uid = $1 AND friend_uid = $2)`,
		a, b,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// CreateRequest writes the edge plus the sender's sent index entry and
// the receiver's received index entry atomically.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO friend_requests (sender_uid, receiver_uid, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		req.Sender, req.Receiver, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friend_request_index (user_uid, peer_uid, direction) VALUES ($1, $2, $3)`,
		req.Sender, req.Receiver, models.RequestSent,
	)
	if err != nil {
		return fmt.Errorf("failed to index sent request: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friend_request_index (user_uid, peer_uid, direction) VALUES ($1, $2, $3)`,
		req.Receiver, req.Sender, models.RequestReceived,
	)
	if err != nil {
		return fmt.Errorf("failed to index received request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit friend request: %w", err)
	}
	return nil
}

// AcceptRequest marks the edge accepted, inserts the symmetric friend
// rows for both users, and removes both index entries in one transaction.
func (r *FriendRepository) AcceptRequest(ctx context.Context, senderUID, receiverUID, senderUsername, receiverUsername string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE friend_requests SET status = $3, accepted_at = $4
		 WHERE sender_uid = $1 AND receiver_uid = $2 AND status = $5`,
		senderUID, receiverUID, models.FriendAccepted, time.Now(), models.FriendPending,
	)
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friend request %s->%s: %w", senderUID, receiverUID, ErrNotFound)
	}

	// Both sides are written together; this is what keeps friendship symmetric.
	_, err = tx.Exec(ctx,
		`INSERT INTO friends (user_uid, friend_uid, friend_username) VALUES ($1, $2, $3)`,
		receiverUID, senderUID, senderUsername,
	)
	if err != nil {
		return fmt.Errorf("failed to add friend entry: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO friends (user_uid, friend_uid, friend_username) VALUES ($1, $2, $3)`,
		senderUID, receiverUID, receiverUsername,
	)
	if err != nil {
		return fmt.Errorf("failed to add friend entry: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM friend_request_index
		 WHERE (user_uid = $1 AND peer_uid = $2) OR (user_uid = $2 AND peer_uid = $1)`,
		senderUID, receiverUID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear request index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit friend accept: %w", err)
	}
	return nil
}

// DeleteRequest removes the edge and both index entries in one
// transaction. Used for both reject (by receiver) and cancel (by sender).
func (r *FriendRepository) DeleteRequest(ctx context.Context, senderUID, receiverUID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM friend_requests WHERE sender_uid = $1 AND receiver_uid = $2`,
		senderUID, receiverUID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friend request %s->%s: %w", senderUID, receiverUID, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM friend_request_index
		 WHERE (user_uid = $1 AND peer_uid = $2) OR (user_uid = $2 AND peer_uid = $1)`,
		senderUID, receiverUID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear request index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit request deletion: %w", err)
	}
	return nil
}

// RemoveFriendship deletes both symmetric friend rows and the consumed
// request edge in one transaction, so the pair can start over with a
// fresh request later.
func (r *FriendRepository) RemoveFriendship(ctx context.Context, a, b string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM friends
		 WHERE (user_uid = $1 AND friend_uid = $2) OR (user_uid = $2 AND friend_uid = $1)`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship %s/%s: %w", a, b, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM friend_requests
		 WHERE (sender_uid = $1 AND receiver_uid = $2) OR (sender_uid = $2 AND receiver_uid = $1)`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("failed to purge friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit friendship removal: %w", err)
	}
	return nil
}

// ListFriendUIDs returns the uids in a user's friends adjacency map.
func (r *FriendRepository) ListFriendUIDs(ctx context.Context, userUID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT friend_uid FROM friends WHERE user_uid = $1`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()
	return scanUIDs(rows)
}

// ListRequestPeers returns the peer uids in a user's sent or received
// request index.
func (r *FriendRepository) ListRequestPeers(ctx context.Context, userUID string, direction models.RequestDirection) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT peer_uid FROM friend_request_index WHERE user_uid = $1 AND direction = $2`,
		userUID, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s requests: %w", direction, err)
	}
	defer rows.Close()
	return scanUIDs(rows)
}

func scanUIDs(rows pgx.Rows) ([]string, error) {
	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("failed to scan uid: %w", err)
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uids: %w", err)
	}
	return uids, nil
}
