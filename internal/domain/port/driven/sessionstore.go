package driven

import (
	"context"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// SessionStore defines the driven port for trade journal persistence.
// Every method is scoped to a user; sessions of other users are invisible.
type SessionStore interface {
	Create(ctx context.Context, session model.TradeSession) error
	// Get returns (nil, nil) when the session does not exist for the user.
	Get(ctx context.Context, userID, id string) (*model.TradeSession, error)
	// List returns the user's sessions newest first.
	List(ctx context.Context, userID string) ([]model.TradeSession, error)
	// Update overwrites the mutable fields (decision, outcome, notes).
	// Returns ErrSessionNotFound when no row matched.
	Update(ctx context.Context, session model.TradeSession) error
	// Delete returns ErrSessionNotFound when no row matched.
	Delete(ctx context.Context, userID, id string) error
	// DeleteAll removes every session of the user and reports how many.
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
