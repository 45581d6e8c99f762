package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID and timestamps on the user struct.
// Email uniqueness is enforced by the database; a violation returns ErrDuplicateEmail
// and leaves the table unchanged.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := r.db.rebind(`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := r.db.ExecContext(ctx, query, id, user.Name, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves the credential record for an email, password hash included.
// Only the login path should call it.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := r.db.rebind(`SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?`)

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID. The password hash is not selected.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := r.db.rebind(`SELECT id, name, email, created_at, updated_at
		FROM users WHERE id = ?`)

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}

	return user, nil
}

// UpdateName changes a user's display name and returns the updated public record.
func (r *UserRepository) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	query := r.db.rebind(`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`)

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := r.db.ExecContext(ctx, query, name, now, id); err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}

	// MySQL reports zero affected rows for no-op updates, so existence is
	// decided by reading the row back.
	return r.GetByID(ctx, id)
}
