package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a logged-in browser or CLI.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create starts a session for userID lasting ttl.
func (sr *SessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := sr.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// GetActive returns the session if it exists and has not expired at now.
// It returns nil, nil otherwise.
func (sr *SessionRepository) GetActive(ctx context.Context, id string, now time.Time) (*Session, error) {
	var s Session
	err := sr.db.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return &s, nil
}

// Delete removes a session
func (sr *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := sr.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all sessions expired at now and reports how many.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
