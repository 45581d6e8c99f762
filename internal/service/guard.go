package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
)

// Principal is the identity a valid session cookie resolves to.
type Principal struct {
	User    *model.User
	Session *model.Session
	// Refreshed is set when this request slid the session expiry forward.
	Refreshed bool
}

// SessionGuard resolves a session cookie value to an authenticated user.
type SessionGuard struct {
	users    UserStore
	sessions SessionStore
	cfg      Config
	now      func() time.Time
}

// NewSessionGuard creates a new SessionGuard.
func NewSessionGuard(users UserStore, sessions SessionStore, cfg Config) *SessionGuard {
	return &SessionGuard{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Authenticate checks the cookie token and returns the session's user with the
// password hash excluded. Every rejection is ErrUnauthorized; a session whose
// user no longer exists is destroyed on the way out.
func (g *SessionGuard) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	sessionID, err := crypto.ParseSessionToken(token, g.cfg.SessionSecret)
	if err != nil {
		return nil, ErrUnauthorized
	}

	session, err := g.getSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeError("get session", err)
	}

	user, err := g.getUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			g.dropOrphan(ctx, session)
			return nil, ErrUnauthorized
		}
		return nil, storeError("get session user", err)
	}
	user.PasswordHash = ""

	principal := &Principal{User: user, Session: session}

	if g.cfg.TouchAfter > 0 && g.now().Sub(session.LastSeenAt) >= g.cfg.TouchAfter {
		touched, err := g.touch(ctx, session.ID)
		switch {
		case err == nil:
			principal.Session = touched
			principal.Refreshed = true
		case errors.Is(err, repository.ErrSessionNotFound):
			// Expired or logged out between the read and the update.
			return nil, ErrUnauthorized
		default:
			slog.Warn("session refresh failed", "user_id", user.ID, "error", err)
		}
	}

	return principal, nil
}

func (g *SessionGuard) getSession(ctx context.Context, id string) (*model.Session, error) {
	ctx, cancel := storeContext(ctx, g.cfg.StoreTimeout)
	defer cancel()
	return g.sessions.Get(ctx, id)
}

func (g *SessionGuard) getUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := storeContext(ctx, g.cfg.StoreTimeout)
	defer cancel()
	return g.users.GetByID(ctx, id)
}

func (g *SessionGuard) touch(ctx context.Context, id string) (*model.Session, error) {
	ctx, cancel := storeContext(ctx, g.cfg.StoreTimeout)
	defer cancel()
	return g.sessions.Touch(ctx, id, g.cfg.SessionTTL)
}

// dropOrphan removes every session still pointing at a deleted user.
func (g *SessionGuard) dropOrphan(ctx context.Context, session *model.Session) {
	ctx, cancel := storeContext(ctx, g.cfg.StoreTimeout)
	defer cancel()

	n, err := g.sessions.DeleteByUser(ctx, session.UserID)
	if err != nil {
		slog.Warn("failed to remove sessions of deleted user", "user_id", session.UserID, "error", err)
		return
	}
	slog.Info("removed sessions of deleted user", "user_id", session.UserID, "count", n)
}
