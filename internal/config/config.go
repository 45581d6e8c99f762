package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSessionSecret = "dev-secret-change-in-production"

type Config struct {
	Port        string
	Env         string
	DBDriver    string
	DatabaseDSN string

	SessionSecret        string
	SessionCookieName    string
	SessionTTL           time.Duration
	SessionTouchAfter    time.Duration
	SessionSweepInterval time.Duration
	BcryptCost           int
	StoreTimeout         time.Duration

	FrontendOrigin     string
	TrustProxy         bool
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	LogLevel  slog.Level
	LogFormat string
}

// Production reports whether the server runs with production cookie rules.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. Every malformed value is
// reported, not just the first.
func Load() (Config, error) {
	p := &parser{}

	cfg := Config{
		Port:        getEnv("PORT", "5000"),
		Env:         getEnv("ENV", "development"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/bengaltrails?parseTime=true"),

		SessionSecret:        getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", "bengalTrails.sid"),
		SessionTTL:           p.duration("SESSION_TTL", 7*24*time.Hour),
		SessionTouchAfter:    p.duration("SESSION_TOUCH_AFTER", 24*time.Hour),
		SessionSweepInterval: p.duration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		BcryptCost:           p.integer("BCRYPT_COST", 10),
		StoreTimeout:         p.duration("STORE_TIMEOUT", 5*time.Second),

		FrontendOrigin:     getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
		TrustProxy:         p.boolean("TRUST_PROXY", false),
		AuthRateLimitRPS:   p.float("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst: p.integer("AUTH_RATE_LIMIT_BURST", 10),

		LogLevel:  p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.DBDriver {
	case "mysql", "sqlite", "postgres":
	default:
		p.fail("DB_DRIVER", fmt.Errorf("unknown driver %q", cfg.DBDriver))
	}
	if cfg.SessionTTL <= 0 {
		p.fail("SESSION_TTL", errors.New("must be positive"))
	}
	if cfg.SessionTouchAfter < 0 {
		p.fail("SESSION_TOUCH_AFTER", errors.New("must not be negative"))
	}
	if cfg.SessionSweepInterval < 0 {
		p.fail("SESSION_SWEEP_INTERVAL", errors.New("must not be negative"))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		p.fail("BCRYPT_COST", fmt.Errorf("%d is outside 4..14", cfg.BcryptCost))
	}
	if cfg.StoreTimeout <= 0 {
		p.fail("STORE_TIMEOUT", errors.New("must be positive"))
	}
	if cfg.AuthRateLimitRPS <= 0 || cfg.AuthRateLimitBurst <= 0 {
		p.fail("AUTH_RATE_LIMIT_RPS", errors.New("rate and burst must be positive"))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		p.fail("LOG_FORMAT", fmt.Errorf("unknown format %q", cfg.LogFormat))
	}
	if cfg.Production() && cfg.SessionSecret == defaultSessionSecret {
		p.fail("SESSION_SECRET", errors.New("must be set in production environment"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser collects conversion errors so Load can report them together.
type parser struct {
	errs []error
}

func (p *parser) fail(key string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return b
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, err)
		return fallback
	}
	return lvl
}
