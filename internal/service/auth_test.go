package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *repository.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	guard    *SessionGuard
	auth     *AuthService
}

func testConfig() Config {
	return Config{
		SessionSecret: "test-secret",
		SessionTTL:    7 * 24 * time.Hour,
		TouchAfter:    24 * time.Hour,
		StoreTimeout:  5 * time.Second,
		BcryptCost:    crypto.MinCost,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	guard := NewSessionGuard(users, sessions, testConfig())
	auth, err := NewAuthService(users, sessions, guard, testConfig())
	require.NoError(t, err)

	return &testEnv{db: db, users: users, sessions: sessions, guard: guard, auth: auth}
}

func (e *testEnv) signup(t *testing.T, name, email, password string) AuthResult {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), model.SignupRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func TestNewAuthService_InvalidCost(t *testing.T) {
	cfg := testConfig()
	cfg.BcryptCost = 99
	_, err := NewAuthService(nil, nil, nil, cfg)
	assert.ErrorIs(t, err, crypto.ErrInvalidCost)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  model.SignupRequest
		want error
	}{
		{"empty name", model.SignupRequest{Email: "a@x.com", Password: "p1"}, ErrNameRequired},
		{"blank name", model.SignupRequest{Name: "   ", Email: "a@x.com", Password: "p1"}, ErrNameRequired},
		{"empty email", model.SignupRequest{Name: "Asha", Password: "p1"}, ErrEmailRequired},
		{"empty password", model.SignupRequest{Name: "Asha", Email: "a@x.com"}, ErrPasswordRequired},
		{"password too long", model.SignupRequest{Name: "Asha", Email: "a@x.com", Password: strings.Repeat("p", 73)}, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}

	_, err := env.users.GetByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound, "failed validation must not create a user")
}

func TestSignup_Success(t *testing.T) {
	env := newTestEnv(t)

	res := env.signup(t, "Asha", "a@x.com", "p1")
	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "Asha", res.User.Name)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotNil(t, res.User.CreatedAt)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), res.ExpiresAt, time.Minute)

	stored, err := env.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", stored.PasswordHash, "raw password must never be stored")
	cost, err := crypto.HashCost(stored.PasswordHash)
	require.NoError(t, err)
	assert.Equal(t, crypto.MinCost, cost)
}

func TestSignup_FullNameAlias(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.auth.Signup(context.Background(), model.SignupRequest{FullName: "Asha Sen", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Sen", res.User.Name)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.signup(t, "First", "dup@x.com", "p1")

	_, err := env.auth.Signup(ctx, model.SignupRequest{Name: "Second", Email: "dup@x.com", Password: "p2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Case and surrounding space do not make a new address.
	_, err = env.auth.Signup(ctx, model.SignupRequest{Name: "Third", Email: "  DUP@X.com ", Password: "p3"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int
	require.NoError(t, env.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)

	// The original account still logs in with its own password.
	res, err := env.auth.Login(ctx, model.LoginRequest{Email: "dup@x.com", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, res.User.ID)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.auth.Signup(ctx, model.SignupRequest{Name: "Racer", Email: "dup@x.com", Password: "p1"})
		}()
	}
	close(start)
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailTaken):
			taken++
		default:
			t.Errorf("unexpected signup error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, taken)

	var count int
	require.NoError(t, env.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Asha", "a@x.com", "p1")

	res, err := env.auth.Login(context.Background(), model.LoginRequest{Email: "A@X.COM", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, res.User.ID)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotEqual(t, created.Token, res.Token, "each login starts a new session")

	current, err := env.auth.CurrentUser(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, current.ID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Asha", "a@x.com", "p1")

	_, wrongPassword := env.auth.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "nope"})
	_, unknownEmail := env.auth.Login(context.Background(), model.LoginRequest{Email: "ghost@x.com", Password: "p1"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), model.LoginRequest{Password: "p1"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = env.auth.Login(context.Background(), model.LoginRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.signup(t, "Asha", "a@x.com", "p1")

	_, err := env.auth.CurrentUser(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, res.Token))

	_, err = env.auth.CurrentUser(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Idempotent with the same, no, or a garbage token.
	assert.NoError(t, env.auth.Logout(ctx, res.Token))
	assert.NoError(t, env.auth.Logout(ctx, ""))
	assert.NoError(t, env.auth.Logout(ctx, "garbage"))
}

func TestUpdateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.signup(t, "Asha", "a@x.com", "p1")

	before, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	updated, err := env.auth.UpdateName(ctx, res.User.ID, "  Asha Sen ")
	require.NoError(t, err)
	assert.Equal(t, "Asha Sen", updated.Name)
	assert.Equal(t, "a@x.com", updated.Email)

	after, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, before.Email, after.Email)

	_, err = env.auth.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "p1"})
	assert.NoError(t, err)
}

func TestUpdateName_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.UpdateName(context.Background(), "any", "  ")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = env.auth.UpdateName(context.Background(), "00000000-0000-0000-0000-000000000000", "Ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// unavailableStore fails every call the way an unreachable database does.
type unavailableStore struct{}

var errStoreDown = errors.Join(errors.New("dial tcp: connection refused"), context.DeadlineExceeded)

func (unavailableStore) Create(context.Context, *model.User) error { return errStoreDown }
func (unavailableStore) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}
func (unavailableStore) GetByID(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}
func (unavailableStore) UpdateName(context.Context, string, string) (*model.User, error) {
	return nil, errStoreDown
}

type unavailableSessions struct{}

func (unavailableSessions) Create(context.Context, string, time.Duration) (*model.Session, error) {
	return nil, errStoreDown
}
func (unavailableSessions) Get(context.Context, string) (*model.Session, error) {
	return nil, errStoreDown
}
func (unavailableSessions) Touch(context.Context, string, time.Duration) (*model.Session, error) {
	return nil, errStoreDown
}
func (unavailableSessions) Delete(context.Context, string) error { return errStoreDown }
func (unavailableSessions) DeleteByUser(context.Context, string) (int64, error) {
	return 0, errStoreDown
}
func (unavailableSessions) DeleteExpired(context.Context) (int64, error) { return 0, errStoreDown }

func TestStoreOutageIsServiceUnavailable(t *testing.T) {
	cfg := testConfig()
	guard := NewSessionGuard(unavailableStore{}, unavailableSessions{}, cfg)
	auth, err := NewAuthService(unavailableStore{}, unavailableSessions{}, guard, cfg)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = auth.Signup(ctx, model.SignupRequest{Name: "Asha", Email: "a@x.com", Password: "p1"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	_, err = auth.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "p1"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	sessionID, err := crypto.NewSessionID()
	require.NoError(t, err)
	token, err := crypto.SignSessionID(sessionID, cfg.SessionSecret)
	require.NoError(t, err)

	assert.ErrorIs(t, auth.Logout(ctx, token), ErrServiceUnavailable)

	_, err = auth.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	_, err = auth.UpdateName(ctx, "id", "Asha")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

// slowSessions blocks until the store deadline passes.
type slowSessions struct{ unavailableSessions }

func (slowSessions) Get(ctx context.Context, _ string) (*model.Session, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeoutBoundsSlowStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreTimeout = 20 * time.Millisecond
	guard := NewSessionGuard(unavailableStore{}, slowSessions{}, cfg)

	sessionID, err := crypto.NewSessionID()
	require.NoError(t, err)
	token, err := crypto.SignSessionID(sessionID, cfg.SessionSecret)
	require.NoError(t, err)

	start := time.Now()
	_, err = guard.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}
