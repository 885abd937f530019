// Package anthropic calls the Anthropic Messages API to analyse chart images
// with a per-request user key.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

const (
	// DefaultEndpoint is the Messages API URL.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// Model is the fixed analysis model.
	Model = "claude-sonnet-4-20250514"
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"
	// MaxTokens bounds the length of one analysis.
	MaxTokens = 1000

	maxResponseBody = 4 << 20
)

const chartPrompt = `Analyze this trading chart image. Provide a structured analysis with:

1. TREND DIRECTION: (Bullish/Bearish/Ranging)

2. SWING HIGHS & LOWS: Identify key levels

3. FAIR VALUE GAPS: Any imbalances detected?

4. BREAK OF STRUCTURE: Has structure been broken?

5. BIAS: (Long/Short/Neutral)

6. ENTRY ZONE: Suggested entry price/zone

7. STOP LOSS: Suggested SL level

8. TAKE PROFIT: Suggested TP level(s)

9. CONFIDENCE: (High/Medium/Low)

10. NOTES: Any additional observations

Be concise and actionable. Focus on ICT concepts and price action.`

var _ driven.ChartAnalyzer = (*Client)(nil)

// Client is stateless with respect to keys: the key arrives with each call
// and is only placed on that request's header.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client with a 120-second timeout and an instrumented
// transport.
func NewClient() *Client {
	return NewClientWithHTTPClient(DefaultEndpoint, &http.Client{
		Timeout:   120 * time.Second,
		Transport: metrics.InstrumentTransport("anthropic", nil),
	})
}

// NewClientWithHTTPClient creates a Client against endpoint using httpClient.
func NewClientWithHTTPClient(endpoint string, httpClient *http.Client) *Client {
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// messagesResponse keeps Text as raw JSON so a non-string text is detected.
type messagesResponse struct {
	Content []struct {
		Text json.RawMessage `json:"text"`
	} `json:"content"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeChart sends the image with the fixed chart prompt and returns the
// text of the first content block.
func (c *Client) AnalyzeChart(ctx context.Context, apiKey string, image model.ChartImage) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     Model,
		MaxTokens: MaxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: image.MediaType,
						Data:      image.Data,
					},
				},
				{Type: "text", Text: chartPrompt},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error can echo the request URL but never headers.
		return "", fmt.Errorf("calling messages API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("reading messages response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return "", &driven.UpstreamError{Status: resp.StatusCode, Message: apiErr.Error.Message}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %w", driven.ErrMalformedUpstream, err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("%w: empty content", driven.ErrMalformedUpstream)
	}

	first := parsed.Content[0].Text
	var text string
	if len(first) == 0 || string(first) == "null" || json.Unmarshal(first, &text) != nil {
		return "", fmt.Errorf("%w: first content block has no text", driven.ErrMalformedUpstream)
	}
	return text, nil
}
