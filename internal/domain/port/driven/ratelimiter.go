package driven

import "context"

// RateLimiter bounds how often a key (a user id) may perform an action.
// It is an abuse guard, not a security boundary.
type RateLimiter interface {
	// Allow records an attempt for key and reports whether it is permitted.
	Allow(ctx context.Context, key string) bool
}
