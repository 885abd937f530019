package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

var (
	_ driven.CredentialStore = (*CredentialRepo)(nil)
	_ driven.PreferenceStore = (*CredentialRepo)(nil)
)

// CredentialRepo stores sealed keys and notification emails on the
// user_preferences row.
type CredentialRepo struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepo creates a CredentialRepo backed by the given pool.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

// Get returns the user's sealed key record, or (nil, nil) when there is none.
func (r *CredentialRepo) Get(ctx context.Context, userID string) (*model.CredentialRecord, error) {
	if r.db == nil {
		return nil, driven.ErrStoreUnavailable
	}

	var (
		ciphertext *string
		updatedAt  time.Time
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT encrypted_api_key, updated_at FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&ciphertext, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get credential", err)
	}
	if ciphertext == nil || *ciphertext == "" {
		return nil, nil
	}

	return &model.CredentialRecord{
		UserID:     userID,
		Ciphertext: *ciphertext,
		UpdatedAt:  updatedAt.UTC(),
	}, nil
}

// Upsert stores the sealed key, inserting the row on first save.
func (r *CredentialRepo) Upsert(ctx context.Context, userID, ciphertext string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `
		INSERT INTO user_preferences (user_id, encrypted_api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			encrypted_api_key = EXCLUDED.encrypted_api_key,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Pool.Exec(ctx, query, userID, ciphertext, r.now().UTC()); err != nil {
		return unavailable("upsert credential", err)
	}
	return nil
}

// Clear nulls the sealed key and keeps the row.
func (r *CredentialRepo) Clear(ctx context.Context, userID string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `UPDATE user_preferences SET encrypted_api_key = NULL, updated_at = $1 WHERE user_id = $2`
	if _, err := r.db.Pool.Exec(ctx, query, r.now().UTC(), userID); err != nil {
		return unavailable("clear credential", err)
	}
	return nil
}

// GetEmail returns the user's notification address, or "" if unset.
func (r *CredentialRepo) GetEmail(ctx context.Context, userID string) (string, error) {
	if r.db == nil {
		return "", driven.ErrStoreUnavailable
	}

	var email *string
	err := r.db.Pool.QueryRow(ctx, `SELECT email FROM user_preferences WHERE user_id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get email", err)
	}
	if email == nil {
		return "", nil
	}
	return *email, nil
}

// SetEmail stores the notification address; "" clears it.
func (r *CredentialRepo) SetEmail(ctx context.Context, userID, email string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `
		INSERT INTO user_preferences (user_id, email, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Pool.Exec(ctx, query, userID, email, r.now().UTC()); err != nil {
		return unavailable("set email", err)
	}
	return nil
}

// unavailable marks a persistence failure so callers can tell it apart from
// a missing record.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, driven.ErrStoreUnavailable, err)
}
