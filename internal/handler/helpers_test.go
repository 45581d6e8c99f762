package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/catalogue"
	"github.com/bengaltrails/bengaltrails-go/internal/crypto"
	"github.com/bengaltrails/bengaltrails-go/internal/handler"
	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "test-secret-for-handler-tests"
	testCookieName = "bengalTrails.sid"
	testOrigin     = "http://localhost:5173"
)

type testServer struct {
	*httptest.Server
	db *repository.DB
}

type serverOption func(*handler.RouterDeps)

func withRateLimit(t *testing.T, rps float64, burst int) serverOption {
	return func(d *handler.RouterDeps) {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		d.AuthLimiter = middleware.NewIPRateLimiter(ctx, rps, burst)
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	cfg := service.Config{
		SessionSecret: testSecret,
		SessionTTL:    7 * 24 * time.Hour,
		TouchAfter:    24 * time.Hour,
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

	deps := handler.RouterDeps{
		Auth:           auth,
		Catalogue:      cat,
		Cookie:         middleware.SessionCookie{Name: testCookieName},
		FrontendOrigin: testOrigin,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv := httptest.NewServer(handler.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, db: db}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := client.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

func userField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "response has no user object: %v", body)
	return user
}

func sessionCookie(t *testing.T, client *http.Client, rawURL string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == testCookieName {
			return c
		}
	}
	return nil
}

func countRows(t *testing.T, db *repository.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}
