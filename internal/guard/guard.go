// Package guard decides whether a request may proceed, combining a fixed
// window rate limit with suspicious request detection. A denial always says
// which of the two rejected the request so callers can surface the right
// error to the client.
package guard

import (
	"net/http"
	"sync"
	"time"
)

// Reason explains why a request was denied.
type Reason string

const (
	ReasonRateLimited Reason = "rate_limited"
	ReasonBlocked     Reason = "blocked"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

// Guard combines a per-key rate limiter with a request pattern detector.
type Guard struct {
	limiter  *Limiter
	detector *Detector
}

func New(limiter *Limiter, detector *Detector) *Guard {
	return &Guard{limiter: limiter, detector: detector}
}

// Check evaluates a request keyed by client IP. Detection runs before rate
// limiting so a blocked request does not consume limiter budget.
func (g *Guard) Check(r *http.Request) Decision {
	if g.detector.Suspicious(r) {
		return Decision{Allowed: false, Reason: ReasonBlocked}
	}
	if !g.limiter.Allow(g.detector.ClientIP(r)) {
		return Decision{Allowed: false, Reason: ReasonRateLimited}
	}
	return allow
}

// ClientIP exposes the detector's proxy-aware IP extraction.
func (g *Guard) ClientIP(r *http.Request) string {
	return g.detector.ClientIP(r)
}

// Stop shuts down the limiter's cleanup goroutine.
func (g *Guard) Stop() {
	g.limiter.Stop()
}

// Limiter is a fixed-window rate limiter keyed by an arbitrary string.
type Limiter struct {
	mu           sync.Mutex
	entries      map[string]*windowEntry
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	limit           int
	window          time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

type windowEntry struct {
	windowStart time.Time
	count       int
}

// LimiterConfig holds rate limiter configuration
type LimiterConfig struct {
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultLimiterConfig returns sensible defaults
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Limit:           60,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter and starts its cleanup goroutine.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Limit <= 0 {
		config.Limit = DefaultLimiterConfig().Limit
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	l := &Limiter{
		entries:         make(map[string]*windowEntry),
		stopCleanup:     make(chan struct{}),
		limit:           config.Limit,
		window:          config.Window,
		cleanupInterval: config.CleanupInterval,
		now:             config.Now,
	}
	go l.startCleanup()
	return l
}

// Allow reports whether one more request for the given key fits in the
// current window.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN reports whether n more requests for the given key fit in the
// current window, consuming them if so.
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, exists := l.entries[key]

	if !exists || now.Sub(entry.windowStart) >= l.window {
		if n > l.limit {
			return false
		}
		l.entries[key] = &windowEntry{windowStart: now, count: n}
		return true
	}

	if entry.count+n > l.limit {
		return false
	}
	entry.count += n
	return true
}

// ActiveKeys returns the number of currently tracked keys
func (l *Limiter) ActiveKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop gracefully shuts down the cleanup goroutine
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes keys whose window expired more than two
// windows ago.
func (l *Limiter) cleanupStaleEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.window)
	for key, entry := range l.entries {
		if entry.windowStart.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
