package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"celebration-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage errors callers can test with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
	ErrEmailTaken    = errors.New("email taken")
)

const uniqueViolation = "23505"

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uid, name, username, email, city, state, bio, profile_picture, latitude, longitude, push_token, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var lat, lng *float64
	err := row.Scan(
		&user.UID, &user.Name, &user.Username, &user.Email, &user.City,
		&user.State, &user.Bio, &user.ProfilePicture, &lat, &lng,
		&user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		user.Geocode = &models.Geocode{Latitude: *lat, Longitude: *lng}
	}
	return &user, nil
}

// Create creates a new user with the given password hash
func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	query := `
		INSERT INTO users (uid, name, username, email, password_hash, city, state, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		user.UID, user.Name, user.Username, user.Email, passwordHash,
		user.City, user.State, user.Bio, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return ErrUsernameTaken
			case "users_email_key":
				return ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUID retrieves a user by uid
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user and password hash by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`
	var user models.User
	var lat, lng *float64
	var hash string
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.UID, &user.Name, &user.Username, &user.Email, &user.City,
		&user.State, &user.Bio, &user.ProfilePicture, &lat, &lng,
		&user.PushToken, &user.CreatedAt, &hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to get user by email: %w", err)
	}
	if lat != nil && lng != nil {
		user.Geocode = &models.Geocode{Latitude: *lat, Longitude: *lng}
	}
	return &user, hash, nil
}

// GetPasswordHash retrieves the password hash for a user
func (r *UserRepository) GetPasswordHash(ctx context.Context, uid string) (string, error) {
	var hash string
	err := r.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE uid = $1`, uid).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash, nil
}

// UpdatePassword stores a new password hash for a user
func (r *UserRepository) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE uid = $2`, passwordHash, uid)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return nil
}

// ProfileUpdate carries the optional fields of a partial profile edit.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name     *string
	Username *string
	Email    *string
	Bio      *string
	City     *string
	State    *string
	Geocode  *models.Geocode
}

// UpdateProfile applies a partial-field merge to a user record
func (r *UserRepository) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) error {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Bio != nil {
		add("bio", *upd.Bio)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.State != nil {
		add("state", *upd.State)
	}
	if upd.Geocode != nil {
		add("latitude", upd.Geocode.Latitude)
		add("longitude", upd.Geocode.Longitude)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, uid)
	query := fmt.Sprintf("UPDATE users SET %s WHERE uid = $%d", strings.Join(set, ", "), len(args))
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return ErrUsernameTaken
			case "users_email_key":
				return ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return nil
}

// UpdateProfilePicture sets the profile picture URL for a user
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, uid, url string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET profile_picture = $1 WHERE uid = $2`, url, uid)
	if err != nil {
		return fmt.Errorf("failed to update profile picture: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, uid string, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE uid = $2`, pushToken, uid)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SearchByUsernamePrefix finds users whose username starts with the given
// prefix (case-insensitive), excluding the viewer.
func (r *UserRepository) SearchByUsernamePrefix(ctx context.Context, viewerUID, prefix string, limit int) ([]*models.FriendUser, error) {
	query := `
		SELECT uid, username, name, profile_picture
		FROM users
		WHERE uid <> $1 AND username ILIKE $2 || '%'
		ORDER BY username
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, viewerUID, escapeLike(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.FriendUser
	for rows.Next() {
		var u models.FriendUser
		if err := rows.Scan(&u.UID, &u.Username, &u.Name, &u.ProfilePicture); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
