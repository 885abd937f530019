package application

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

const (
	maxReasonLength = 2000
	maxNotesLength  = 10000
)

// Caveats attached to a successful decision when the notification side
// channel did not deliver.
const (
	CaveatEmailNotConfigured = "Email service not configured. Trade logged locally."
	CaveatEmailFailed        = "Trade saved, but the notification email could not be sent."
)

// DecisionResult is the outcome of RecordDecision. Warning is non-empty when
// the session was saved but the notification was not delivered.
type DecisionResult struct {
	Session model.TradeSession
	Warning string
}

// JournalService manages trade journal sessions and the per-user
// notification preference.
type JournalService struct {
	sessions driven.SessionStore
	prefs    driven.PreferenceStore
	notifier driven.Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewJournalService creates a JournalService. notifier may be nil, in which
// case decisions are saved without a notification attempt.
func NewJournalService(
	sessions driven.SessionStore,
	prefs driven.PreferenceStore,
	notifier driven.Notifier,
	logger *slog.Logger,
) *JournalService {
	return &JournalService{
		sessions: sessions,
		prefs:    prefs,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateSession stores a new session for an analysis. The bias is read from
// the analysis text.
func (s *JournalService) CreateSession(ctx context.Context, userID, analysis, imageType string) (model.TradeSession, error) {
	if strings.TrimSpace(analysis) == "" {
		return model.TradeSession{}, model.NewValidationError("Analysis is required")
	}
	if s.sessions == nil {
		return model.TradeSession{}, notConfigured("session store")
	}

	session := model.TradeSession{
		ID:        s.newID(),
		UserID:    userID,
		CreatedAt: s.timestamp(),
		ImageType: imageType,
		Analysis:  analysis,
		Bias:      model.ExtractBias(analysis),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return model.TradeSession{}, err
	}
	return session, nil
}

// GetSession returns one of the user's sessions.
func (s *JournalService) GetSession(ctx context.Context, userID, id string) (model.TradeSession, error) {
	if s.sessions == nil {
		return model.TradeSession{}, notConfigured("session store")
	}
	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		return model.TradeSession{}, err
	}
	if session == nil {
		return model.TradeSession{}, driven.ErrSessionNotFound
	}
	return *session, nil
}

// ListSessions returns the user's sessions newest first.
func (s *JournalService) ListSessions(ctx context.Context, userID string) ([]model.TradeSession, error) {
	if s.sessions == nil {
		return nil, notConfigured("session store")
	}
	return s.sessions.List(ctx, userID)
}

// RecordDecision stores whether the user took the trade and then sends the
// notification email if the user has one configured. Switching a decision to
// "skipped" clears any recorded outcome.
func (s *JournalService) RecordDecision(ctx context.Context, userID, id string, taken bool, reason string) (DecisionResult, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return DecisionResult{}, model.NewValidationError("Reason is too long")
	}

	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return DecisionResult{}, err
	}

	decidedAt := s.timestamp()
	session.TradeTaken = &taken
	session.TradeReason = reason
	session.DecisionAt = &decidedAt
	if !taken {
		session.TradeOutcome = model.TradeOutcomeNone
		session.OutcomeAt = nil
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return DecisionResult{}, err
	}

	return DecisionResult{Session: session, Warning: s.notify(ctx, session)}, nil
}

// notify delivers the decision email and returns a caveat when it could not.
// It never fails the decision.
func (s *JournalService) notify(ctx context.Context, session model.TradeSession) string {
	if s.notifier == nil || s.prefs == nil {
		return ""
	}

	to, err := s.prefs.GetEmail(ctx, session.UserID)
	if err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		s.logger.Warn("failed to load notification email", "user_id", session.UserID, "error", err)
		return CaveatEmailFailed
	}
	if to == "" {
		return ""
	}

	err = s.notifier.NotifyTradeDecision(ctx, to, session)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues("sent").Inc()
		return ""
	case errors.Is(err, driven.ErrNotifierDisabled):
		metrics.Notifications.WithLabelValues("disabled").Inc()
		return CaveatEmailNotConfigured
	default:
		metrics.Notifications.WithLabelValues("error").Inc()
		s.logger.Warn("failed to send trade notification", "session_id", session.ID, "error", err)
		return CaveatEmailFailed
	}
}

// RecordOutcome stores win or loss for a taken trade.
func (s *JournalService) RecordOutcome(ctx context.Context, userID, id string, outcome model.TradeOutcome) (model.TradeSession, error) {
	if !outcome.Valid() {
		return model.TradeSession{}, model.NewValidationError("Outcome must be win or loss")
	}

	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return model.TradeSession{}, err
	}
	if !session.Taken() {
		return model.TradeSession{}, ErrOutcomeRequiresTrade
	}

	closedAt := s.timestamp()
	session.TradeOutcome = outcome
	session.OutcomeAt = &closedAt

	if err := s.sessions.Update(ctx, session); err != nil {
		return model.TradeSession{}, err
	}
	return session, nil
}

// UpdateNotes replaces the session's free-form notes.
func (s *JournalService) UpdateNotes(ctx context.Context, userID, id, notes string) (model.TradeSession, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return model.TradeSession{}, model.NewValidationError("Notes are too long")
	}

	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return model.TradeSession{}, err
	}

	session.Notes = notes
	if err := s.sessions.Update(ctx, session); err != nil {
		return model.TradeSession{}, err
	}
	return session, nil
}

// DeleteSession removes one session.
func (s *JournalService) DeleteSession(ctx context.Context, userID, id string) error {
	if s.sessions == nil {
		return notConfigured("session store")
	}
	return s.sessions.Delete(ctx, userID, id)
}

// DeleteAllSessions clears the user's journal and returns how many sessions
// were removed.
func (s *JournalService) DeleteAllSessions(ctx context.Context, userID string) (int64, error) {
	if s.sessions == nil {
		return 0, notConfigured("session store")
	}
	return s.sessions.DeleteAll(ctx, userID)
}

// NotificationEmail returns the user's notification address, or "".
func (s *JournalService) NotificationEmail(ctx context.Context, userID string) (string, error) {
	if s.prefs == nil {
		return "", notConfigured("preference store")
	}
	return s.prefs.GetEmail(ctx, userID)
}

// SetNotificationEmail stores a bare address; "" turns notifications off.
func (s *JournalService) SetNotificationEmail(ctx context.Context, userID, email string) (string, error) {
	if s.prefs == nil {
		return "", notConfigured("preference store")
	}

	email = strings.TrimSpace(email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return "", model.NewValidationError("Invalid email address")
		}
	}

	if err := s.prefs.SetEmail(ctx, userID, email); err != nil {
		return "", err
	}
	return email, nil
}

// timestamp is the current time at the precision every store round-trips.
func (s *JournalService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
