package client

import (
	"context"
	"sync"
	"time"
)

const (
	ReasonHiddenTimeout = "hidden_timeout"
	ReasonUnload        = "beforeunload"
)

// AutoLogoutPolicy says when the watcher ends a session on its own.
type AutoLogoutPolicy struct {
	// HiddenDelay is how long the app may stay hidden. Zero disables the
	// hidden trigger.
	HiddenDelay    time.Duration
	LogoutOnUnload bool
	// RequestTimeout bounds each fire-and-forget logout.
	RequestTimeout time.Duration
}

// DefaultAutoLogoutPolicy mirrors the web app: ten seconds hidden, and on unload.
var DefaultAutoLogoutPolicy = AutoLogoutPolicy{
	HiddenDelay:    10 * time.Second,
	LogoutOnUnload: true,
	RequestTimeout: 5 * time.Second,
}

// Logouter is what the watcher signs out. *AuthContext implements it.
type Logouter interface {
	Logout(ctx context.Context, reason string)
}

// AutoLogout is a best-effort convenience. The server TTL remains the real
// expiry.
type AutoLogout struct {
	target Logouter
	policy AutoLogoutPolicy

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewAutoLogout(target Logouter, policy AutoLogoutPolicy) *AutoLogout {
	if policy.RequestTimeout <= 0 {
		policy.RequestTimeout = DefaultAutoLogoutPolicy.RequestTimeout
	}
	return &AutoLogout{target: target, policy: policy}
}

// Hidden arms the hidden timer, restarting it if already armed.
func (a *AutoLogout) Hidden() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped || a.policy.HiddenDelay <= 0 {
		return
	}
	a.clearTimerLocked()

	var t *time.Timer
	t = time.AfterFunc(a.policy.HiddenDelay, func() {
		a.mu.Lock()
		if a.timer != t || a.stopped {
			a.mu.Unlock()
			return
		}
		a.timer = nil
		a.fireLocked(ReasonHiddenTimeout)
		a.mu.Unlock()
	})
	a.timer = t
}

// Visible cancels a pending hidden logout.
func (a *AutoLogout) Visible() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearTimerLocked()
}

// Unload fires the unload logout without waiting for it.
func (a *AutoLogout) Unload() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clearTimerLocked()
	if a.stopped || !a.policy.LogoutOnUnload {
		return
	}
	a.fireLocked(ReasonUnload)
}

// Stop disarms the watcher and waits for logouts already in flight.
func (a *AutoLogout) Stop() {
	a.mu.Lock()
	a.clearTimerLocked()
	a.stopped = true
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *AutoLogout) clearTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoLogout) fireLocked(reason string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.policy.RequestTimeout)
		defer cancel()
		a.target.Logout(ctx, reason)
	}()
}
