package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port interface.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new SessionRepo backed by the given DB.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, user_id, created_at, image_type, analysis, bias, trade_taken,
	trade_reason, trade_outcome, decision_at, outcome_at, notes`

// Create inserts a new journal session.
func (r *SessionRepo) Create(ctx context.Context, s model.TradeSession) error {
	const query = `INSERT INTO trade_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		s.ID, s.UserID, formatTime(s.CreatedAt), s.ImageType, s.Analysis, string(s.Bias),
		nullBool(s.TradeTaken), s.TradeReason, string(s.TradeOutcome),
		formatNullTime(s.DecisionAt), formatNullTime(s.OutcomeAt), s.Notes,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", s.ID, err)
	}
	return nil
}

// Get returns the session, or (nil, nil) if the user has no session with that id.
func (r *SessionRepo) Get(ctx context.Context, userID, id string) (*model.TradeSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM trade_sessions WHERE user_id = ? AND id = ?`

	s, err := scanSession(r.db.Reader.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}

// List returns the user's sessions newest first.
func (r *SessionRepo) List(ctx context.Context, userID string) ([]model.TradeSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM trade_sessions WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
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
			trade_taken = ?,
			trade_reason = ?,
			trade_outcome = ?,
			decision_at = ?,
			outcome_at = ?,
			notes = ?
		WHERE user_id = ? AND id = ?
	`
	result, err := r.db.Writer.ExecContext(ctx, query,
		nullBool(s.TradeTaken), s.TradeReason, string(s.TradeOutcome),
		formatNullTime(s.DecisionAt), formatNullTime(s.OutcomeAt), s.Notes,
		s.UserID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	return requireOneRow(result, s.ID)
}

// Delete removes one session.
func (r *SessionRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM trade_sessions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return requireOneRow(result, id)
}

// DeleteAll removes every session of the user.
func (r *SessionRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM trade_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.TradeSession, error) {
	var (
		s                     model.TradeSession
		createdAt             string
		bias, outcome         string
		taken                 sql.NullBool
		decisionAt, outcomeAt sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &createdAt, &s.ImageType, &s.Analysis, &bias, &taken,
		&s.TradeReason, &outcome, &decisionAt, &outcomeAt, &s.Notes)
	if err != nil {
		return model.TradeSession{}, err
	}

	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.TradeSession{}, fmt.Errorf("parse created_at: %w", err)
	}
	if s.DecisionAt, err = parseNullTime(nullStringPtr(decisionAt)); err != nil {
		return model.TradeSession{}, fmt.Errorf("parse decision_at: %w", err)
	}
	if s.OutcomeAt, err = parseNullTime(nullStringPtr(outcomeAt)); err != nil {
		return model.TradeSession{}, fmt.Errorf("parse outcome_at: %w", err)
	}

	s.Bias = model.Bias(bias)
	s.TradeOutcome = model.TradeOutcome(outcome)
	if taken.Valid {
		v := taken.Bool
		s.TradeTaken = &v
	}
	return s, nil
}

func requireOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, driven.ErrSessionNotFound)
	}
	return nil
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
