package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finora/internal/auth"
	"finora/internal/core"
	"finora/internal/storage"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 8
)

var (
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	ErrUsernameTooLong  = errors.New("username must be at most 50 characters")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// AuthService handles registration, login sessions and logout.
type AuthService struct {
	storage         *storage.SQLiteRepository
	sessionDuration time.Duration
}

func NewAuthService(storage *storage.SQLiteRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		storage:         storage,
		sessionDuration: sessionDuration,
	}
}

// Register creates an account. The username is trimmed; the password is
// stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, password string) (*core.UserAccount, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return nil, ErrUsernameTooShort
	}
	if len(username) > maxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.storage.CreateUser(ctx, username, hash)
}

// Login verifies credentials and opens a session, returning its token and
// expiry. Unknown users and wrong passwords are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error) {
	user, err := s.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			return "", time.Time{}, core.ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", time.Time{}, core.ErrInvalidCredentials
	}

	token, err = auth.GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt = time.Now().Add(s.sessionDuration)
	if err := s.storage.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "username", user.Username)
	return token, expiresAt, nil
}

// Authenticate resolves a session token to its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.UserAccount, error) {
	return s.storage.ValidateSession(ctx, token)
}

// Logout invalidates the session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}
