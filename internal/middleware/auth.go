package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator resolves a cookie value to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// RequireSession returns middleware that admits only requests carrying a live
// session cookie. A session refreshed by this request gets a fresh cookie.
func RequireSession(auth Authenticator, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Read(r)

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthorized):
					if token != "" {
						cookie.Clear(w)
					}
					writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				case errors.Is(err, service.ErrServiceUnavailable):
					slog.Error("session lookup failed", "error", err)
					writeJSONError(w, http.StatusServiceUnavailable, service.ErrServiceUnavailable.Error())
				default:
					slog.Error("session lookup failed", "error", err)
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			if principal.Refreshed {
				cookie.Set(w, token, principal.Session.ExpiresAt)
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the principal attached by RequireSession, or nil.
func PrincipalFromContext(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalKey).(*service.Principal)
	return p
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.User
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
