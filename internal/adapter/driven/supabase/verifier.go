// Package supabase verifies bearer tokens against the Supabase auth API.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

var _ driven.IdentityVerifier = (*Verifier)(nil)

// maxUserBody caps how much of the provider's answer is read.
const maxUserBody = 1 << 20

// Verifier exchanges bearer tokens for Supabase user ids. It holds no token
// state; every call goes to the provider.
type Verifier struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewVerifier creates a Verifier with a 10-second timeout and an
// instrumented transport.
func NewVerifier(baseURL, serviceKey string) *Verifier {
	return NewVerifierWithHTTPClient(baseURL, serviceKey, &http.Client{
		Timeout:   10 * time.Second,
		Transport: metrics.InstrumentTransport("supabase", nil),
	})
}

// NewVerifierWithHTTPClient creates a Verifier using the given client.
func NewVerifierWithHTTPClient(baseURL, serviceKey string, httpClient *http.Client) *Verifier {
	return &Verifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpClient,
	}
}

type userResponse struct {
	ID string `json:"id"`
}

// Verify returns the id of the user the token was issued to.
func (v *Verifier) Verify(ctx context.Context, bearerToken string) (string, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return "", driven.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", driven.ErrIdentityUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusBadRequest:
		return "", driven.ErrUnauthenticated
	default:
		return "", fmt.Errorf("%w: HTTP %d", driven.ErrIdentityUnavailable, resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserBody)).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: decode user: %w", driven.ErrIdentityUnavailable, err)
	}
	if user.ID == "" {
		return "", driven.ErrUnauthenticated
	}
	return user.ID, nil
}
