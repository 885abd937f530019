// Package resend delivers trade decision notifications through the Resend
// email API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

// DefaultEndpoint is the Resend send-email URL.
const DefaultEndpoint = "https://api.resend.com/emails"

var _ driven.Notifier = (*Notifier)(nil)

// Notifier sends one email per trade decision. Without an API key it only
// logs a summary and reports driven.ErrNotifierDisabled.
type Notifier struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a Notifier with a 15-second timeout.
func NewNotifier(apiKey, from string, logger *slog.Logger) *Notifier {
	return NewNotifierWithHTTPClient(apiKey, from, DefaultEndpoint, &http.Client{
		Timeout:   15 * time.Second,
		Transport: metrics.InstrumentTransport("resend", nil),
	}, logger)
}

// NewNotifierWithHTTPClient creates a Notifier against endpoint.
func NewNotifierWithHTTPClient(apiKey, from, endpoint string, httpClient *http.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		apiKey:     apiKey,
		from:       from,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type sendError struct {
	Message string `json:"message"`
}

// NotifyTradeDecision emails the session's decision to the given address.
func (n *Notifier) NotifyTradeDecision(ctx context.Context, to string, s model.TradeSession) error {
	if n.apiKey == "" {
		n.logger.Info("trade decision not emailed, email service not configured",
			"session_id", s.ID,
			"decision", decisionLabel(s),
			"bias", string(s.Bias),
		)
		return driven.ErrNotifierDisabled
	}

	body, err := json.Marshal(sendRequest{
		From:    n.from,
		To:      []string{to},
		Subject: Subject(s),
		HTML:    htmlBody(s),
		Text:    textBody(s),
	})
	if err != nil {
		return fmt.Errorf("marshaling email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var se sendError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&se)
		if se.Message != "" {
			return fmt.Errorf("email API error: HTTP %d: %s", resp.StatusCode, se.Message)
		}
		return fmt.Errorf("email API error: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Subject renders the notification subject line.
func Subject(s model.TradeSession) string {
	emoji := "❌"
	if s.Taken() {
		emoji = "✅"
	}
	return fmt.Sprintf("%s Trade Decision: %s - %s", emoji, decisionLabel(s), strings.ToUpper(string(s.Bias)))
}

func decisionLabel(s model.TradeSession) string {
	if s.Taken() {
		return "TOOK TRADE"
	}
	return "DID NOT TAKE"
}

func outcomeLabel(o model.TradeOutcome) string {
	switch o {
	case model.TradeOutcomeWin:
		return "✅ WIN"
	case model.TradeOutcomeLoss:
		return "❌ LOSS"
	default:
		return "Pending"
	}
}

func textBody(s model.TradeSession) string {
	var b strings.Builder
	b.WriteString("TRADE DECISION LOG\n==================\n\n")
	fmt.Fprintf(&b, "Decision: %s\n", decisionLabel(s))
	fmt.Fprintf(&b, "Bias: %s\n", strings.ToUpper(string(s.Bias)))
	if s.TradeReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", s.TradeReason)
	}
	if s.TradeOutcome != model.TradeOutcomeNone {
		fmt.Fprintf(&b, "Outcome: %s\n", outcomeLabel(s.TradeOutcome))
	}
	fmt.Fprintf(&b, "Analysis Timestamp: %s\n", s.CreatedAt.UTC().Format(time.RFC1123))
	if s.DecisionAt != nil {
		fmt.Fprintf(&b, "Decision Timestamp: %s\n", s.DecisionAt.UTC().Format(time.RFC1123))
	}
	if s.Analysis != "" {
		fmt.Fprintf(&b, "\nAI Analysis:\n%s\n", s.Analysis)
	}
	b.WriteString("\n---\nTradeScope AI - Automated Trade Log\n")
	return b.String()
}

func htmlBody(s model.TradeSession) string {
	var b strings.Builder
	b.WriteString("<h2>Trade Decision Log</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Decision:</strong> %s</p>\n", escapeText(decisionLabel(s)))
	fmt.Fprintf(&b, "<p><strong>Bias:</strong> %s</p>\n", escapeText(strings.ToUpper(string(s.Bias))))
	if s.TradeReason != "" {
		fmt.Fprintf(&b, "<p><strong>Reason:</strong> %s</p>\n", escapeText(s.TradeReason))
	}
	if s.TradeOutcome != model.TradeOutcomeNone {
		fmt.Fprintf(&b, "<p><strong>Outcome:</strong> %s</p>\n", escapeText(outcomeLabel(s.TradeOutcome)))
	}
	fmt.Fprintf(&b, "<p><strong>Analysis Timestamp:</strong> %s</p>\n", s.CreatedAt.UTC().Format(time.RFC1123))
	if s.Analysis != "" {
		b.WriteString("<h3>AI Analysis</h3>\n")
		b.WriteString(renderAnalysis(s.Analysis))
	}
	b.WriteString("<hr>\n<p>TradeScope AI - Automated Trade Log</p>\n")
	return b.String()
}
