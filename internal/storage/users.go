package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finora/internal/core"
)

// CreateUser registers a new account. A taken username maps to
// core.ErrDuplicateUser so handlers can surface it as a user-facing message.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (*core.UserAccount, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, core.ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "username", username, "owner_id", id)
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByUsername retrieves an account by its unique username.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*core.UserAccount, error) {
	u, err := r.getUser(ctx, "username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrInvalidCredentials
	}
	return u, err
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any) (*core.UserAccount, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+where, arg)

	var u core.UserAccount
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateSession stores a login session token with its expiry.
func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ValidateSession resolves a token to its account, rejecting expired sessions.
func (r *SQLiteRepository) ValidateSession(ctx context.Context, token string) (*core.UserAccount, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.created_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`,
		token, time.Now().UTC(),
	)

	var u core.UserAccount
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &u, nil
}

// DeleteSession removes a session on logout.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions drops sessions past their expiry.
func (r *SQLiteRepository) CleanExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("clean expired sessions: %w", err)
	}
	return nil
}
