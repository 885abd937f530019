package resend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(taken bool) model.TradeSession {
	decided := time.Date(2026, 4, 2, 14, 5, 0, 0, time.UTC)
	return model.TradeSession{
		ID:          "s1",
		UserID:      "user-1",
		CreatedAt:   time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC),
		Analysis:    "**5. BIAS:** Long\n\n<script>alert(1)</script>",
		Bias:        model.BiasLong,
		TradeTaken:  &taken,
		TradeReason: "liquidity sweep <b>confirmed</b>",
		DecisionAt:  &decided,
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "✅ Trade Decision: TOOK TRADE - LONG", Subject(testSession(true)))
	assert.Equal(t, "❌ Trade Decision: DID NOT TAKE - LONG", Subject(testSession(false)))
}

func TestNotifyTradeDecision_Sends(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	n := NewNotifierWithHTTPClient("re_test", "Journal <j@example.com>", srv.URL, srv.Client(), discardLogger())

	err := n.NotifyTradeDecision(context.Background(), "trader@example.com", testSession(true))
	require.NoError(t, err)

	assert.Equal(t, "Journal <j@example.com>", got.From)
	assert.Equal(t, []string{"trader@example.com"}, got.To)
	assert.Contains(t, got.Subject, "TOOK TRADE")
	assert.Contains(t, got.Text, "Reason: liquidity sweep <b>confirmed</b>")
	assert.Contains(t, got.HTML, "<strong>5. BIAS:</strong>")
	assert.NotContains(t, got.HTML, "<script>")
	assert.NotContains(t, got.HTML, "<b>confirmed</b>")
}

func TestNotifyTradeDecision_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	n := NewNotifierWithHTTPClient("re_test", "x@example.com", srv.URL, srv.Client(), discardLogger())

	err := n.NotifyTradeDecision(context.Background(), "bad", testSession(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid to address")
}

func TestNotifyTradeDecision_Disabled(t *testing.T) {
	n := NewNotifierWithHTTPClient("", "x@example.com", "http://127.0.0.1:1", &http.Client{}, discardLogger())

	err := n.NotifyTradeDecision(context.Background(), "trader@example.com", testSession(true))
	assert.ErrorIs(t, err, driven.ErrNotifierDisabled)
}

func TestRenderAnalysis(t *testing.T) {
	assert.Empty(t, renderAnalysis(""))
	assert.Contains(t, renderAnalysis("# Heading"), "<h1")
	assert.NotContains(t, renderAnalysis(`<img src=x onerror="alert(1)">`), "onerror")
}
