// Package ratelimit provides the process-local fixed-window rate limiter
// guarding credential mutations.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

var _ driven.RateLimiter = (*FixedWindow)(nil)

type window struct {
	start time.Time
	count int
}

// FixedWindow allows at most max attempts per key within each window. The
// window opens on a key's first attempt and resets once it has fully elapsed.
// State is per process and lost on restart.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	size    time.Duration
	max     int
	now     func() time.Time
}

// NewFixedWindow creates a limiter allowing max attempts per size.
func NewFixedWindow(size time.Duration, max int) *FixedWindow {
	return &FixedWindow{
		windows: make(map[string]*window),
		size:    size,
		max:     max,
		now:     time.Now,
	}
}

// Allow records an attempt for key. Rejected attempts do not extend or
// consume the window.
func (l *FixedWindow) Allow(_ context.Context, key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.start.Add(l.size)) {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// Sweep drops every window that has expired and returns how many were removed.
func (l *FixedWindow) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.After(w.start.Add(l.size)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Start sweeps expired windows every interval until ctx is canceled.
func (l *FixedWindow) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limiter sweeper stopped")
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				slog.Debug("swept expired rate limit windows", "count", n)
			}
		}
	}
}

// tracked returns the number of live windows.
func (l *FixedWindow) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
