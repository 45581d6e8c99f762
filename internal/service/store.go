package service

import (
	"context"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/model"
)

// UserStore is the credential store the auth flow depends on.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateName(ctx context.Context, id, name string) (*model.User, error)
}

// SessionStore owns session records.
type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Touch(ctx context.Context, id string, ttl time.Duration) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// Config holds the session and hashing policy shared by the auth components.
type Config struct {
	SessionSecret string
	SessionTTL    time.Duration
	// TouchAfter is how stale last_seen_at must be before a request slides
	// the expiry forward. Zero keeps a fixed TTL.
	TouchAfter   time.Duration
	StoreTimeout time.Duration
	BcryptCost   int
}

func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
