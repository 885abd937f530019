package application

import (
	"context"

	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

// Authenticator resolves bearer tokens to user ids. Without a verifier every
// call fails with a configuration error; there is no anonymous fallback.
type Authenticator struct {
	verifier driven.IdentityVerifier
}

// NewAuthenticator creates an Authenticator. verifier may be nil when no
// identity provider is configured.
func NewAuthenticator(verifier driven.IdentityVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Authenticate returns the user id the token was issued to.
func (a *Authenticator) Authenticate(ctx context.Context, bearerToken string) (string, error) {
	if a.verifier == nil {
		return "", notConfigured("identity provider")
	}
	if bearerToken == "" {
		return "", driven.ErrUnauthenticated
	}
	userID, err := a.verifier.Verify(ctx, bearerToken)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", driven.ErrUnauthenticated
	}
	return userID, nil
}
