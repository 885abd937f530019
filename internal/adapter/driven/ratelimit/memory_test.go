package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(size time.Duration, max int) (*FixedWindow, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewFixedWindow(size, max)
	l.now = clock.Now
	return l, clock
}

func TestFixedWindow_FiveThenReject(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 5)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		assert.True(t, l.Allow(ctx, "user-1"), "attempt %d", i)
	}
	assert.False(t, l.Allow(ctx, "user-1"), "sixth attempt in the window")
	assert.False(t, l.Allow(ctx, "user-1"), "still rejected")
}

func TestFixedWindow_NewWindowAfterExpiry(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 5)
	ctx := context.Background()

	for range 6 {
		l.Allow(ctx, "user-1")
	}

	clock.Advance(time.Minute)
	assert.False(t, l.Allow(ctx, "user-1"), "window boundary is inclusive")

	clock.Advance(time.Millisecond)
	assert.True(t, l.Allow(ctx, "user-1"), "fresh window after expiry")
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "user-1"))
	assert.False(t, l.Allow(ctx, "user-1"))
	assert.True(t, l.Allow(ctx, "user-2"))
}

func TestFixedWindow_Sweep(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 5)
	ctx := context.Background()

	l.Allow(ctx, "user-1")
	clock.Advance(30 * time.Second)
	l.Allow(ctx, "user-2")

	clock.Advance(31 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.tracked())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.tracked())
}

func TestFixedWindow_ConcurrentAttempts(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 5)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "user-1") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

func TestFixedWindow_StartStopsOnCancel(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 5)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.Start(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
