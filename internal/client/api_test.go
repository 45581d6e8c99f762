package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/catalogue"
	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/handler"
	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	cfg := service.Config{
		SessionSecret: "client-test-secret",
		SessionTTL:    time.Hour,
		StoreTimeout:  5 * time.Second,
		BcryptCost:    crypto.MinCost,
	}
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	guard := service.NewSessionGuard(users, sessions, cfg)
	auth, err := service.NewAuthService(users, sessions, guard, cfg)
	require.NoError(t, err)
	cat, err := catalogue.Load()
	require.NoError(t, err)

	srv := httptest.NewServer(handler.NewRouter(handler.RouterDeps{
		Auth:      auth,
		Catalogue: cat,
		Cookie:    middleware.SessionCookie{Name: "bengalTrails.sid"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	api, err := NewAPI(srv.URL+"/", nil)
	require.NoError(t, err)

	_, err = api.Profile(ctx)
	assert.True(t, IsUnauthorized(err))

	user, err := api.Signup(ctx, "Asha", "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)

	renamed, err := api.UpdateName(ctx, "Asha Sen")
	require.NoError(t, err)
	assert.Equal(t, "Asha Sen", renamed.Name)

	require.NoError(t, api.Logout(ctx, "test"))
	require.NoError(t, api.Logout(ctx, ""))

	_, err = api.Profile(ctx)
	assert.True(t, IsUnauthorized(err))

	_, err = api.Signup(ctx, "Other", "a@x.com", "p2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)

	_, err = api.Login(ctx, "a@x.com", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestAuthContext_AgainstServer(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	api, err := NewAPI(srv.URL, nil)
	require.NoError(t, err)
	ac := NewAuthContext(api)

	assert.Error(t, ac.Mount(ctx))
	assert.False(t, ac.IsAuthenticated())

	_, err = ac.Signup(ctx, "Asha", "a@x.com", "p1")
	require.NoError(t, err)
	require.NoError(t, ac.Reconcile(ctx))
	assert.True(t, ac.IsAuthenticated())

	watcher := NewAutoLogout(ac, AutoLogoutPolicy{HiddenDelay: 10 * time.Millisecond})
	watcher.Hidden()
	assert.Eventually(t, func() bool { return !ac.IsAuthenticated() }, 2*time.Second, 5*time.Millisecond)
	watcher.Stop()

	// The server session is gone too.
	_, err = api.Profile(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "boom", (&APIError{Status: 500, Message: "boom"}).Error())
	assert.Equal(t, "request failed with status 502", (&APIError{Status: 502}).Error())
	assert.False(t, IsUnauthorized(nil))
}
