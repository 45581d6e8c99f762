package handler

import (
	"net/http"

	"github.com/bengaltrails/bengaltrails-go/internal/catalogue"
	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps is everything the HTTP surface is built from.
type RouterDeps struct {
	Auth      *service.AuthService
	Catalogue *catalogue.Catalogue
	Cookie    middleware.SessionCookie
	// AuthLimiter throttles signup and login per client IP. Nil disables it.
	AuthLimiter    *middleware.IPRateLimiter
	FrontendOrigin string
	TrustProxy     bool
}

// NewRouter wires the routes and middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Auth, deps.Cookie)
	userHandler := NewUserHandler(deps.Auth)
	catHandler := NewCatalogueHandler(deps.Catalogue)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.FrontendOrigin))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Backend running with sessions"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(middleware.RateLimit(deps.AuthLimiter))
			}
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
		})
		r.Post("/logout", authHandler.HandleLogout)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Auth.Guard(), deps.Cookie))
		r.Get("/profile", userHandler.HandleProfile)
		r.Post("/update", userHandler.HandleUpdate)
	})

	r.Route("/catalogue", func(r chi.Router) {
		r.Get("/categories", catHandler.HandleCategories)
		r.Get("/locations", catHandler.HandleLocations)
		r.Get("/locations/{id}", catHandler.HandleLocation)
		r.Get("/festivals", catHandler.HandleFestivals)
		r.Get("/festivals/{id}", catHandler.HandleFestival)
		r.Get("/search", catHandler.HandleSearch)
	})

	return r
}
