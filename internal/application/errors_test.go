package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/tradescope/internal/crypto"
	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "none"},
		{err: model.NewValidationError("x"), want: "validation"},
		{err: driven.ErrUnauthenticated, want: "unauthenticated"},
		{err: fmt.Errorf("wrap: %w", driven.ErrIdentityUnavailable), want: "identity_unavailable"},
		{err: driven.ErrNoCredential, want: "no_credential"},
		{err: driven.ErrRateLimited, want: "rate_limited"},
		{err: notConfigured("x"), want: "not_configured"},
		{err: crypto.ErrMasterSecretMissing, want: "master_secret_missing"},
		{err: fmt.Errorf("%w: authentication failed", crypto.ErrDecryptionFailed), want: "decryption_failed"},
		{err: &driven.UpstreamError{Status: 429}, want: "upstream_error"},
		{err: driven.ErrMalformedUpstream, want: "malformed_upstream"},
		{err: fmt.Errorf("get: %w: boom", driven.ErrStoreUnavailable), want: "store_unavailable"},
		{err: driven.ErrSessionNotFound, want: "not_found"},
		{err: ErrOutcomeRequiresTrade, want: "conflict"},
		{err: context.DeadlineExceeded, want: "timeout"},
		{err: errors.New("something else"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorClass(tt.err))
		})
	}
}
