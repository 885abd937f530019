package driven

import (
	"context"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// CredentialStore defines the driven port for per-user sealed API keys.
// The store never sees plaintext; encryption happens in the application
// layer before Upsert and decryption after Get.
type CredentialStore interface {
	// Get returns the user's record, or (nil, nil) when the user has never
	// saved a key or the key was cleared.
	Get(ctx context.Context, userID string) (*model.CredentialRecord, error)

	// Upsert stores the sealed key, creating the user's row on first save and
	// replacing it afterwards. Exactly one row per user exists afterwards.
	Upsert(ctx context.Context, userID, ciphertext string) error

	// Clear nulls the sealed key. Clearing a user without a row is a no-op.
	Clear(ctx context.Context, userID string) error
}

// PreferenceStore defines the driven port for the remaining per-user
// preferences kept on the same row as the sealed key.
type PreferenceStore interface {
	// GetEmail returns the user's notification address, or "" if unset.
	GetEmail(ctx context.Context, userID string) (string, error)
	// SetEmail stores the notification address; "" removes it.
	SetEmail(ctx context.Context, userID, email string) error
}
