package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- CredentialStore / PreferenceStore ---

type mockCredentialStore struct {
	mu      sync.Mutex
	records map[string]string
	emails  map[string]string
	err     error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{records: map[string]string{}, emails: map[string]string{}}
}

func (m *mockCredentialStore) Get(_ context.Context, userID string) (*model.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	blob, ok := m.records[userID]
	if !ok || blob == "" {
		return nil, nil
	}
	return &model.CredentialRecord{UserID: userID, Ciphertext: blob, UpdatedAt: time.Unix(1_700_000_000, 0).UTC()}, nil
}

func (m *mockCredentialStore) Upsert(_ context.Context, userID, ciphertext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[userID] = ciphertext
	return nil
}

func (m *mockCredentialStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[userID]; ok {
		m.records[userID] = ""
	}
	return nil
}

func (m *mockCredentialStore) GetEmail(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.emails[userID], nil
}

func (m *mockCredentialStore) SetEmail(_ context.Context, userID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.emails[userID] = email
	return nil
}

// --- RateLimiter ---

type mockLimiter struct {
	allow bool
	calls int
}

func (m *mockLimiter) Allow(_ context.Context, _ string) bool {
	m.calls++
	return m.allow
}

// --- ChartAnalyzer ---

type mockAnalyzer struct {
	text    string
	err     error
	calls   int
	lastKey string
}

func (m *mockAnalyzer) AnalyzeChart(_ context.Context, apiKey string, _ model.ChartImage) (string, error) {
	m.calls++
	m.lastKey = apiKey
	return m.text, m.err
}

// --- IdentityVerifier ---

type mockVerifier struct {
	userID string
	err    error
}

func (m *mockVerifier) Verify(_ context.Context, _ string) (string, error) {
	return m.userID, m.err
}

// --- SessionStore ---

type mockSessionStore struct {
	sessions map[string]model.TradeSession
	err      error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]model.TradeSession{}}
}

func (m *mockSessionStore) Create(_ context.Context, s model.TradeSession) error {
	if m.err != nil {
		return m.err
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, userID, id string) (*model.TradeSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSessionStore) List(_ context.Context, userID string) ([]model.TradeSession, error) {
	out := []model.TradeSession{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *mockSessionStore) Update(_ context.Context, s model.TradeSession) error {
	if m.err != nil {
		return m.err
	}
	existing, ok := m.sessions[s.ID]
	if !ok || existing.UserID != s.UserID {
		return driven.ErrSessionNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Delete(_ context.Context, userID, id string) error {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return driven.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) DeleteAll(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- Notifier ---

type mockNotifier struct {
	err   error
	calls int
	to    string
}

func (m *mockNotifier) NotifyTradeDecision(_ context.Context, to string, _ model.TradeSession) error {
	m.calls++
	m.to = to
	return m.err
}
