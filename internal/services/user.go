package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"celebration-backend/internal/models"
	"celebration-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const jwtExpDays = 365

var emailRegex = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.[a-zA-Z]{2,}$`)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User, passwordHash string) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string, error)
	GetPasswordHash(ctx context.Context, uid string) (string, error)
	UpdatePassword(ctx context.Context, uid, passwordHash string) error
	UpdateProfile(ctx context.Context, uid string, upd repository.ProfileUpdate) error
	UpdateProfilePicture(ctx context.Context, uid, url string) error
	UpdatePushToken(ctx context.Context, uid string, pushToken *string) error
	SearchByUsernamePrefix(ctx context.Context, viewerUID, prefix string, limit int) ([]*models.FriendUser, error)
}

// UserService handles registration, authentication and profiles.
type UserService struct {
	users     UserStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: jwtSecret,
	}
}

// RegisterRequest carries a sign-up submission.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
	State    string `json:"state"`
	Bio      string `json:"bio"`
}

// Register creates a new account and returns the user with a session token.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	if req.Name == "" || req.Username == "" {
		return nil, "", validationErrorf("name and username are required")
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, "", validationErrorf("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, "", validationErrorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UID:       uuid.New().String(),
		Name:      req.Name,
		Username:  strings.ToLower(req.Username),
		Email:     strings.ToLower(req.Email),
		City:      req.City,
		State:     req.State,
		Bio:       req.Bio,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user, string(hash)); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, "", conflictErrorf("username already taken")
		}
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", conflictErrorf("email already registered")
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.UID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates by email and password and returns a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, hash, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	token, err := s.GenerateJWT(user.UID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *UserService) ChangePassword(ctx context.Context, uid, current, newPassword string) error {
	if len(newPassword) < 8 {
		return validationErrorf("password must be at least 8 characters")
	}

	hash, err := s.users.GetPasswordHash(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to get password hash: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return fmt.Errorf("current password is incorrect: %w", ErrUnauthorized)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, uid, string(newHash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userUID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userUID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user uid
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	userUID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userUID, nil
}

// GetProfile returns a user's profile.
func (s *UserService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial profile edit; only supplied fields change.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, upd repository.ProfileUpdate) error {
	if upd.Email != nil && !emailRegex.MatchString(*upd.Email) {
		return validationErrorf("invalid email address")
	}
	if upd.Username != nil {
		if *upd.Username == "" {
			return validationErrorf("username cannot be empty")
		}
		lower := strings.ToLower(*upd.Username)
		upd.Username = &lower
	}

	err := s.users.UpdateProfile(ctx, uid, upd)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return conflictErrorf("username already taken")
		}
		if errors.Is(err, repository.ErrEmailTaken) {
			return conflictErrorf("email already registered")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// SetProfilePicture stores the URL of a freshly uploaded profile photo.
func (s *UserService) SetProfilePicture(ctx context.Context, uid, url string) error {
	err := s.users.UpdateProfilePicture(ctx, uid, url)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile picture: %w", err)
	}
	return nil
}

// UpdatePushToken stores the APNs device token for a user.
func (s *UserService) UpdatePushToken(ctx context.Context, uid string, token *string) error {
	return s.users.UpdatePushToken(ctx, uid, token)
}

// SearchUsers finds users by case-insensitive username prefix, excluding
// the viewer.
func (s *UserService) SearchUsers(ctx context.Context, viewerUID, term string) ([]*models.FriendUser, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*models.FriendUser{}, nil
	}
	return s.users.SearchByUsernamePrefix(ctx, viewerUID, strings.ToLower(term), 50)
}
