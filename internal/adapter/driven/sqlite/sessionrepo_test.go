package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newTestSession(id, userID string, createdAt time.Time) model.TradeSession {
	return model.TradeSession{
		ID:        id,
		UserID:    userID,
		CreatedAt: createdAt,
		ImageType: "image/png",
		Analysis:  "5. BIAS: Long",
		Bias:      model.BiasLong,
	}
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestSession("s1", "user-1", testTime)))

	got, err := repo.Get(ctx, "user-1", "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, testTime, got.CreatedAt)
	assert.Equal(t, model.BiasLong, got.Bias)
	assert.Equal(t, "image/png", got.ImageType)
	assert.Nil(t, got.TradeTaken)
	assert.Nil(t, got.DecisionAt)
	assert.Equal(t, model.TradeOutcomeNone, got.TradeOutcome)
}

func TestSessionRepo_GetIsScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestSession("s1", "user-1", testTime)))

	got, err := repo.Get(ctx, "user-2", "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.Delete(ctx, "user-2", "s1")
	assert.ErrorIs(t, err, driven.ErrSessionNotFound)
}

func TestSessionRepo_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestSession("old", "user-1", testTime)))
	require.NoError(t, repo.Create(ctx, newTestSession("new", "user-1", testTime.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestSession("other", "user-2", testTime)))

	sessions, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
}

func TestSessionRepo_ListNewestFirstWithinOneSecond(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestSession("older", "user-1", testTime.Add(100*time.Millisecond))))
	require.NoError(t, repo.Create(ctx, newTestSession("newer", "user-1", testTime.Add(120*time.Millisecond))))
	require.NoError(t, repo.Create(ctx, newTestSession("oldest", "user-1", testTime)))

	sessions, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []string{"newer", "older", "oldest"}, []string{sessions[0].ID, sessions[1].ID, sessions[2].ID})
	assert.Equal(t, testTime.Add(120*time.Millisecond), sessions[0].CreatedAt)
}

func TestFormatTime_FixedWidth(t *testing.T) {
	a := formatTime(testTime)
	b := formatTime(testTime.Add(100 * time.Millisecond))
	c := formatTime(testTime.Add(120 * time.Millisecond))

	assert.Len(t, b, len(a))
	assert.Len(t, c, len(a))
	assert.Less(t, a, b)
	assert.Less(t, b, c)

	parsed, err := parseTime(c)
	require.NoError(t, err)
	assert.Equal(t, testTime.Add(120*time.Millisecond), parsed)
}

func TestSessionRepo_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)

	sessions, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestSessionRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	s := newTestSession("s1", "user-1", testTime)
	require.NoError(t, repo.Create(ctx, s))

	taken := true
	decided := testTime.Add(time.Minute)
	closed := testTime.Add(2 * time.Hour)
	s.TradeTaken = &taken
	s.TradeReason = "clean break of structure"
	s.DecisionAt = &decided
	s.TradeOutcome = model.TradeOutcomeWin
	s.OutcomeAt = &closed
	s.Notes = "held to TP1"
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx, "user-1", "s1")
	require.NoError(t, err)
	require.NotNil(t, got.TradeTaken)
	assert.True(t, *got.TradeTaken)
	assert.Equal(t, "clean break of structure", got.TradeReason)
	assert.Equal(t, decided, *got.DecisionAt)
	assert.Equal(t, model.TradeOutcomeWin, got.TradeOutcome)
	assert.Equal(t, closed, *got.OutcomeAt)
	assert.Equal(t, "held to TP1", got.Notes)
}

func TestSessionRepo_UpdateSkippedDecision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	s := newTestSession("s1", "user-1", testTime)
	require.NoError(t, repo.Create(ctx, s))

	skipped := false
	s.TradeTaken = &skipped
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx, "user-1", "s1")
	require.NoError(t, err)
	require.NotNil(t, got.TradeTaken)
	assert.False(t, *got.TradeTaken)
}

func TestSessionRepo_UpdateMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)

	err := repo.Update(context.Background(), newTestSession("nope", "user-1", testTime))
	assert.ErrorIs(t, err, driven.ErrSessionNotFound)
}

func TestSessionRepo_DeleteAndDeleteAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newTestSession(id, "user-1", testTime)))
	}
	require.NoError(t, repo.Create(ctx, newTestSession("z", "user-2", testTime)))

	require.NoError(t, repo.Delete(ctx, "user-1", "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "user-1", "a"), driven.ErrSessionNotFound)

	n, err := repo.DeleteAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := repo.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
