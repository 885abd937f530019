package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CredentialStore = (*CredentialRepo)(nil)
	_ driven.PreferenceStore = (*CredentialRepo)(nil)
)

// CredentialRepo is the SQLite implementation of the CredentialStore and
// PreferenceStore ports. Both live on the user_preferences row. Values arrive
// already sealed; this repo never handles plaintext keys.
type CredentialRepo struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB. A nil
// DB yields a repo whose operations all return driven.ErrStoreUnavailable.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

// Get returns the user's sealed key record, or (nil, nil) when there is none.
func (r *CredentialRepo) Get(ctx context.Context, userID string) (*model.CredentialRecord, error) {
	if r.db == nil {
		return nil, driven.ErrStoreUnavailable
	}

	const query = `SELECT encrypted_api_key, updated_at FROM user_preferences WHERE user_id = ?`
	var (
		ciphertext sql.NullString
		updatedAt  string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&ciphertext, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get credential", err)
	}

	if !ciphertext.Valid || ciphertext.String == "" {
		return nil, nil
	}

	ts, err := parseTime(updatedAt)
	if err != nil {
		return nil, unavailable("parse credential updated_at", err)
	}

	return &model.CredentialRecord{
		UserID:     userID,
		Ciphertext: ciphertext.String,
		UpdatedAt:  ts,
	}, nil
}

// Upsert stores the sealed key, inserting the row on first save.
func (r *CredentialRepo) Upsert(ctx context.Context, userID, ciphertext string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `
		INSERT INTO user_preferences (user_id, encrypted_api_key, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			encrypted_api_key = excluded.encrypted_api_key,
			updated_at = excluded.updated_at
	`
	now := formatTime(r.now())
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, ciphertext, now, now); err != nil {
		return unavailable("upsert credential", err)
	}
	return nil
}

// Clear nulls the sealed key and keeps the row for its updated_at audit trail.
func (r *CredentialRepo) Clear(ctx context.Context, userID string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `UPDATE user_preferences SET encrypted_api_key = NULL, updated_at = ? WHERE user_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, formatTime(r.now()), userID); err != nil {
		return unavailable("clear credential", err)
	}
	return nil
}

// GetEmail returns the user's notification address, or "" if unset.
func (r *CredentialRepo) GetEmail(ctx context.Context, userID string) (string, error) {
	if r.db == nil {
		return "", driven.ErrStoreUnavailable
	}

	const query = `SELECT email FROM user_preferences WHERE user_id = ?`
	var email sql.NullString
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get email", err)
	}
	return email.String, nil
}

// SetEmail stores the notification address; "" clears it.
func (r *CredentialRepo) SetEmail(ctx context.Context, userID, email string) error {
	if r.db == nil {
		return driven.ErrStoreUnavailable
	}

	const query = `
		INSERT INTO user_preferences (user_id, email, created_at, updated_at)
		VALUES (?, NULLIF(?, ''), ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			updated_at = excluded.updated_at
	`
	now := formatTime(r.now())
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, email, now, now); err != nil {
		return unavailable("set email", err)
	}
	return nil
}

// unavailable marks a persistence failure so callers can tell it apart from
// a missing record.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, driven.ErrStoreUnavailable, err)
}
