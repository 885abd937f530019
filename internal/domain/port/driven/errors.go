package driven

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned for a missing, malformed or expired
	// bearer token, or when the provider reports no matching user.
	ErrUnauthenticated = errors.New("invalid or expired authentication token")

	// ErrIdentityUnavailable is returned when the identity provider could not
	// be reached or answered with a server error.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")

	// ErrNoCredential is returned when an AI feature is requested by a user
	// with no API key on file.
	ErrNoCredential = errors.New("no API key on file")

	// ErrRateLimited is returned when a user exceeded the mutation limit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotConfigured is returned when a required collaborator (identity
	// provider, store, encryption secret) was not configured at startup.
	ErrNotConfigured = errors.New("not configured")

	// ErrStoreUnavailable is returned when the persistence layer is not
	// configured or cannot be reached. It is distinct from "no record".
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrMalformedUpstream is returned when the analysis provider answered
	// 2xx with a body that lacks the expected content.
	ErrMalformedUpstream = errors.New("malformed analysis provider response")

	// ErrSessionNotFound is returned when a journal session does not exist
	// for the requesting user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotifierDisabled is returned by notifiers without a delivery service.
	ErrNotifierDisabled = errors.New("notification service not configured")
)

// UpstreamError is a non-2xx answer from the analysis provider. Message is
// the provider's own error message, which never contains the request's key.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis provider error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("analysis provider error: HTTP %d: %s", e.Status, e.Message)
}
