package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"golang.org/x/sync/singleflight"
)

// Backend is the server surface AuthContext depends on. *API implements it.
type Backend interface {
	Signup(ctx context.Context, name, email, password string) (model.UserResponse, error)
	Login(ctx context.Context, email, password string) (model.UserResponse, error)
	Logout(ctx context.Context, reason string) error
	Profile(ctx context.Context) (model.UserResponse, error)
	UpdateName(ctx context.Context, name string) (model.UserResponse, error)
}

// Snapshot is a consistent view of the auth state.
type Snapshot struct {
	User    *model.UserResponse
	Loading bool
}

func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

// AuthContext caches who is signed in. The cache is never authoritative: the
// last server answer always replaces it.
type AuthContext struct {
	backend Backend

	mu      sync.RWMutex
	user    *model.UserResponse
	loading bool
	// gen counts local cache writes; a reconcile started before one is stale.
	gen uint64

	reconcile singleflight.Group
	mountOnce sync.Once
	mountErr  error
}

// NewAuthContext returns a context that reports Loading until Mount completes.
func NewAuthContext(backend Backend) *AuthContext {
	return &AuthContext{backend: backend, loading: true}
}

func (c *AuthContext) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{Loading: c.loading}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

func (c *AuthContext) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated()
}

// Mount runs the first reconciliation. Later calls return the first result.
func (c *AuthContext) Mount(ctx context.Context) error {
	c.mountOnce.Do(func() {
		c.mountErr = c.Reconcile(ctx)
	})
	return c.mountErr
}

// Reconcile asks the server who is signed in and overwrites the cache with
// the answer. Any failure, network or 401, clears the cache. Concurrent calls
// share one request. An answer that arrives after a login, signup, logout or
// rename has updated the cache is discarded.
func (c *AuthContext) Reconcile(ctx context.Context) error {
	_, err, _ := c.reconcile.Do("profile", func() (any, error) {
		c.mu.Lock()
		c.loading = true
		gen := c.gen
		c.mu.Unlock()

		user, err := c.backend.Profile(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading = false
		if c.gen != gen {
			return nil, err
		}
		if err != nil {
			c.user = nil
			return nil, err
		}
		c.user = &user
		return nil, nil
	})
	return err
}

// Signup creates an account and caches it. A failure leaves the cache as it was.
func (c *AuthContext) Signup(ctx context.Context, name, email, password string) (model.UserResponse, error) {
	user, err := c.backend.Signup(ctx, name, email, password)
	if err != nil {
		return model.UserResponse{}, err
	}
	c.setUser(&user)
	return user, nil
}

// Login signs in and caches the user. A failure leaves the cache as it was.
func (c *AuthContext) Login(ctx context.Context, email, password string) (model.UserResponse, error) {
	user, err := c.backend.Login(ctx, email, password)
	if err != nil {
		return model.UserResponse{}, err
	}
	c.setUser(&user)
	return user, nil
}

// Logout tells the server and clears the cache whether or not the server
// could be reached.
func (c *AuthContext) Logout(ctx context.Context, reason string) {
	if err := c.backend.Logout(ctx, reason); err != nil {
		slog.Debug("logout request failed", "reason", reason, "error", err)
	}
	c.setUser(nil)
}

// UpdateName renames the signed-in user and refreshes the cache.
func (c *AuthContext) UpdateName(ctx context.Context, name string) (model.UserResponse, error) {
	user, err := c.backend.UpdateName(ctx, name)
	if err != nil {
		if IsUnauthorized(err) {
			c.setUser(nil)
		}
		return model.UserResponse{}, err
	}
	c.setUser(&user)
	return user, nil
}

func (c *AuthContext) setUser(u *model.UserResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
	c.loading = false
	c.gen++
}
