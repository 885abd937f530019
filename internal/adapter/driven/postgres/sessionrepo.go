package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the PostgreSQL implementation of the SessionStore port.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a SessionRepo backed by the given pool.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, user_id, created_at, image_type, analysis, bias, trade_taken,
	trade_reason, trade_outcome, decision_at, outcome_at, notes`

// Create inserts a new journal session.
func (r *SessionRepo) Create(ctx context.Context, s model.TradeSession) error {
	const query = `INSERT INTO trade_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Pool.Exec(ctx, query,
		s.ID, s.UserID, s.CreatedAt.UTC(), s.ImageType, s.Analysis, string(s.Bias),
		s.TradeTaken, s.TradeReason, string(s.TradeOutcome),
		s.DecisionAt, s.OutcomeAt, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", s.ID, err)
	}
	return nil
}

// Get returns the session, or (nil, nil) if the user has no session with that id.
func (r *SessionRepo) Get(ctx context.Context, userID, id string) (*model.TradeSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM trade_sessions WHERE user_id = $1 AND id = $2`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}

// List returns the user's sessions newest first.
func (r *SessionRepo) List(ctx context.Context, userID string) ([]model.TradeSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM trade_sessions WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.TradeSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Update overwrites the decision, outcome and notes of a session.
func (r *SessionRepo) Update(ctx context.Context, s model.TradeSession) error {
	const query = `
		UPDATE trade_sessions SET
			trade_taken = $1,
			trade_reason = $2,
			trade_outcome = $3,
			decision_at = $4,
			outcome_at = $5,
			notes = $6
		WHERE user_id = $7 AND id = $8
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		s.TradeTaken, s.TradeReason, string(s.TradeOutcome),
		s.DecisionAt, s.OutcomeAt, s.Notes,
		s.UserID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	return requireOneRow(tag, s.ID)
}

// Delete removes one session.
func (r *SessionRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM trade_sessions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return requireOneRow(tag, id)
}

// DeleteAll removes every session of the user.
func (r *SessionRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM trade_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (model.TradeSession, error) {
	var (
		s             model.TradeSession
		bias, outcome string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ImageType, &s.Analysis, &bias, &s.TradeTaken,
		&s.TradeReason, &outcome, &s.DecisionAt, &s.OutcomeAt, &s.Notes)
	if err != nil {
		return model.TradeSession{}, err
	}

	s.CreatedAt = s.CreatedAt.UTC()
	s.DecisionAt = utcPtr(s.DecisionAt)
	s.OutcomeAt = utcPtr(s.OutcomeAt)
	s.Bias = model.Bias(bias)
	s.TradeOutcome = model.TradeOutcome(outcome)
	return s, nil
}

func requireOneRow(tag pgconn.CommandTag, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, driven.ErrSessionNotFound)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
