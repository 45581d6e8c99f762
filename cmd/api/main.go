package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/catalogue"
	"github.com/bengaltrails/bengaltrails-go/internal/config"
	"github.com/bengaltrails/bengaltrails-go/internal/handler"
	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/repository"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DBDriver, cfg.DatabaseDSN, cfg.StoreTimeout)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	svcCfg := service.Config{
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		TouchAfter:    cfg.SessionTouchAfter,
		StoreTimeout:  cfg.StoreTimeout,
		BcryptCost:    cfg.BcryptCost,
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	guard := service.NewSessionGuard(userRepo, sessionRepo, svcCfg)
	authService, err := service.NewAuthService(userRepo, sessionRepo, guard, svcCfg)
	if err != nil {
		slog.Error("auth service setup failed", "error", err)
		os.Exit(1)
	}

	cat, err := catalogue.Load()
	if err != nil {
		slog.Error("catalogue load failed", "error", err)
		os.Exit(1)
	}

	sweeper := service.NewSessionSweeper(sessionRepo, cfg.SessionSweepInterval, cfg.StoreTimeout)
	go sweeper.Run(ctx)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:      authService,
		Catalogue: cat,
		Cookie: middleware.SessionCookie{
			Name:   cfg.SessionCookieName,
			Secure: cfg.Production(),
		},
		AuthLimiter:    middleware.NewIPRateLimiter(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		FrontendOrigin: cfg.FrontendOrigin,
		TrustProxy:     cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
