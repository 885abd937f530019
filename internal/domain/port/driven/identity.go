package driven

import "context"

// IdentityVerifier exchanges a bearer token for the stable id of the user it
// was issued to. Implementations call the identity provider on every
// invocation and never cache tokens.
type IdentityVerifier interface {
	// Verify returns ErrUnauthenticated for missing, malformed or expired
	// tokens and ErrIdentityUnavailable when the provider cannot be reached.
	Verify(ctx context.Context, bearerToken string) (string, error)
}
