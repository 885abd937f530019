package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tradescope/internal/crypto"
	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

// ErrOutcomeRequiresTrade is returned when an outcome is recorded for a
// session whose decision was not to take the trade, or has no decision yet.
var ErrOutcomeRequiresTrade = errors.New("outcome can only be recorded for a taken trade")

// notConfigured names the missing collaborator in a driven.ErrNotConfigured.
func notConfigured(component string) error {
	return fmt.Errorf("%s %w", component, driven.ErrNotConfigured)
}

// ErrorClass maps an error to a short stable name. It is the only part of a
// credential-path error that is logged or exported as a metric label.
func ErrorClass(err error) string {
	var (
		validation *model.ValidationError
		upstream   *driven.UpstreamError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &validation):
		return "validation"
	case errors.Is(err, driven.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, driven.ErrIdentityUnavailable):
		return "identity_unavailable"
	case errors.Is(err, driven.ErrNoCredential):
		return "no_credential"
	case errors.Is(err, driven.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, driven.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, crypto.ErrMasterSecretMissing):
		return "master_secret_missing"
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return "decryption_failed"
	case errors.Is(err, crypto.ErrEmptyPlaintext):
		return "empty_plaintext"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.Is(err, driven.ErrMalformedUpstream):
		return "malformed_upstream"
	case errors.Is(err, driven.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, driven.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrOutcomeRequiresTrade):
		return "conflict"
	case errors.Is(err, driven.ErrNotifierDisabled):
		return "notifier_disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// resultLabel is the metric result label for err.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorClass(err)
}
