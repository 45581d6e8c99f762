package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles session persistence. Times are stored as unix
// milliseconds so expiry comparisons behave the same on every dialect.
type SessionRepository struct {
	db  *DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Create starts a session for userID that expires after ttl.
func (r *SessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	id, err := crypto.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	session := &model.Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	query := r.db.rebind(`INSERT INTO sessions (id, user_id, created_at, last_seen_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt.UnixMilli(),
		session.LastSeenAt.UnixMilli(),
		session.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return session, nil
}

// Get retrieves a live session. Absent and expired sessions both return ErrSessionNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	query := r.db.rebind(`SELECT id, user_id, created_at, last_seen_at, expires_at
		FROM sessions WHERE id = ?`)

	var (
		session                        model.Session
		createdAt, lastSeen, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &createdAt, &lastSeen, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	session.LastSeenAt = time.UnixMilli(lastSeen).UTC()
	session.ExpiresAt = time.UnixMilli(expiresAt).UTC()

	if session.Expired(r.now()) {
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// Touch slides a live session's expiry to now+ttl in a single statement.
func (r *SessionRepository) Touch(ctx context.Context, id string, ttl time.Duration) (*model.Session, error) {
	now := r.now().UTC().Truncate(time.Millisecond)

	query := r.db.rebind(`UPDATE sessions SET last_seen_at = ?, expires_at = ?
		WHERE id = ? AND expires_at > ?`)

	result, err := r.db.ExecContext(ctx, query,
		now.UnixMilli(), now.Add(ttl).UnixMilli(), id, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	if rows == 0 {
		return nil, ErrSessionNotFound
	}

	return r.Get(ctx, id)
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := r.db.rebind(`DELETE FROM sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session belonging to userID.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	query := r.db.rebind(`DELETE FROM sessions WHERE user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired evicts every session whose expiry has passed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := r.db.rebind(`DELETE FROM sessions WHERE expires_at <= ?`)
	result, err := r.db.ExecContext(ctx, query, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
