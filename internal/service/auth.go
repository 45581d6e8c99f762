package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
)

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	User      model.UserResponse
	Token     string
	ExpiresAt time.Time
}

// AuthService handles authentication business logic.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	guard    *SessionGuard
	cfg      Config

	// dummyHash is compared against on unknown emails so that both login
	// failures cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, sessions SessionStore, guard *SessionGuard, cfg Config) (*AuthService, error) {
	dummy, err := crypto.HashPassword("bengaltrails-timing-equaliser", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:     users,
		sessions:  sessions,
		guard:     guard,
		cfg:       cfg,
		dummyHash: dummy,
	}, nil
}

// Signup creates a new user account and starts a session for it.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.FullName)
	}
	email := normalizeEmail(req.Email)

	if name == "" {
		return AuthResult{}, ErrNameRequired
	}
	if email == "" {
		return AuthResult{}, ErrEmailRequired
	}
	if req.Password == "" {
		return AuthResult{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password, s.cfg.BcryptCost)
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return AuthResult{}, ErrPasswordTooLong
	}
	if err != nil {
		return AuthResult{}, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.createUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, storeError("create user", err)
	}

	return s.startSession(ctx, user)
}

// Login authenticates a user and starts a session.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return AuthResult{}, ErrEmailRequired
	}
	if req.Password == "" {
		return AuthResult{}, ErrPasswordRequired
	}

	user, err := s.findCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = crypto.VerifyPassword(req.Password, s.dummyHash)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, storeError("get user", err)
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return AuthResult{}, err
	}
	if !match {
		return AuthResult{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return s.startSession(ctx, user)
}

// Logout destroys the session named by token. Missing, forged and already
// destroyed sessions are not errors.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sessionID, err := crypto.ParseSessionToken(token, s.cfg.SessionSecret)
	if err != nil {
		return nil
	}

	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return storeError("delete session", err)
	}
	return nil
}

// CurrentUser resolves a session token to the public user projection.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (model.UserResponse, error) {
	principal, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return model.UserResponse{}, err
	}
	return principal.User.ToResponse(), nil
}

// UpdateName changes the display name of an existing user.
func (s *AuthService) UpdateName(ctx context.Context, userID, name string) (model.UserResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.UserResponse{}, ErrNameRequired
	}

	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.users.UpdateName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, storeError("update user", err)
	}

	return user.ToResponse(), nil
}

// Guard returns the session guard used by CurrentUser.
func (s *AuthService) Guard() *SessionGuard {
	return s.guard
}

// SessionTTL returns the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

func (s *AuthService) createUser(ctx context.Context, user *model.User) error {
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.users.Create(ctx, user)
}

func (s *AuthService) findCredentials(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.users.GetByEmail(ctx, email)
}

// startSession persists a session and returns once the write is acknowledged.
func (s *AuthService) startSession(ctx context.Context, user *model.User) (AuthResult, error) {
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	session, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return AuthResult{}, storeError("create session", err)
	}

	token, err := crypto.SignSessionID(session.ID, s.cfg.SessionSecret)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign session: %w", err)
	}

	return AuthResult{
		User:      user.ToResponse(),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// normalizeEmail makes email uniqueness case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
