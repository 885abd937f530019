package driven

import (
	"context"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// Notifier delivers trade decision notifications. Delivery is best effort:
// callers never fail their primary operation because of a Notifier error.
type Notifier interface {
	// NotifyTradeDecision returns ErrNotifierDisabled when no delivery
	// service is configured.
	NotifyTradeDecision(ctx context.Context, to string, session model.TradeSession) error
}
