package service

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper periodically evicts expired sessions. Reads already ignore
// expired records; the sweep only reclaims storage.
type SessionSweeper struct {
	sessions SessionStore
	interval time.Duration
	timeout  time.Duration
}

// NewSessionSweeper creates a sweeper. A non-positive interval disables Run.
func NewSessionSweeper(sessions SessionStore, interval, timeout time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		timeout:  timeout,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				slog.Warn("session sweep failed", "error", err)
			}
		}
	}
}

// Sweep deletes expired sessions once and returns how many were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, storeError("delete expired sessions", err)
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}
	return n, nil
}
