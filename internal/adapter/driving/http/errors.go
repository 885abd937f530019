package httphandler

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/tradescope/internal/application"
	"github.com/ericfisherdev/tradescope/internal/crypto"
	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
)

// Response messages for errors whose detail must not reach the client.
const (
	msgUnauthenticated     = "Invalid or expired authentication token"
	msgNoCredential        = "No API key on file. Please add your Anthropic API key in settings."
	msgRateLimited         = "Too many requests. Please try again later."
	msgDecryptionFailed    = "Stored API key could not be decrypted. Please re-save your API key."
	msgAnalysisFailed      = "Analysis failed. Please try again."
	msgAnalysisOverloaded  = "The analysis service is overloaded. Please try again shortly."
	msgStoreUnavailable    = "Storage is temporarily unavailable"
	msgIdentityUnavailable = "Authentication service unavailable"
	msgSessionNotFound     = "Session not found"
	msgInternal            = "internal server error"
	msgConfigPrefix        = "Server configuration error: "
)

// statusOverloaded is the analysis provider's "overloaded" status.
const statusOverloaded = 529

// writeServiceError maps a service error to its HTTP status and a safe
// message. Server-side failures are logged by error class only.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "status", status, "error_class", application.ErrorClass(err))
	}
	writeError(w, status, message)
}

// classifyError is the single error to HTTP mapping for the API.
func classifyError(err error) (int, string) {
	var (
		validation *model.ValidationError
		upstream   *driven.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, driven.ErrUnauthenticated):
		return http.StatusUnauthorized, msgUnauthenticated
	case errors.Is(err, driven.ErrNoCredential):
		return http.StatusForbidden, msgNoCredential
	case errors.Is(err, driven.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, driven.ErrNotConfigured):
		return http.StatusInternalServerError, msgConfigPrefix + err.Error()
	case errors.Is(err, crypto.ErrMasterSecretMissing):
		return http.StatusInternalServerError, msgConfigPrefix + crypto.ErrMasterSecretMissing.Error()
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return http.StatusInternalServerError, msgDecryptionFailed
	case errors.As(err, &upstream):
		return upstreamStatus(upstream)
	case errors.Is(err, driven.ErrMalformedUpstream):
		return http.StatusInternalServerError, msgAnalysisFailed
	case errors.Is(err, driven.ErrSessionNotFound):
		return http.StatusNotFound, msgSessionNotFound
	case errors.Is(err, application.ErrOutcomeRequiresTrade):
		return http.StatusConflict, "Outcome can only be recorded for a trade you took"
	case errors.Is(err, driven.ErrStoreUnavailable):
		return http.StatusInternalServerError, msgStoreUnavailable
	case errors.Is(err, driven.ErrIdentityUnavailable):
		return http.StatusInternalServerError, msgIdentityUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// upstreamStatus relays client-actionable provider statuses and hides the rest.
func upstreamStatus(e *driven.UpstreamError) (int, string) {
	message := e.Message
	if message == "" {
		message = msgAnalysisFailed
	}
	switch e.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusTooManyRequests:
		return e.Status, message
	case statusOverloaded, http.StatusServiceUnavailable:
		return http.StatusServiceUnavailable, msgAnalysisOverloaded
	default:
		return http.StatusInternalServerError, msgAnalysisFailed
	}
}
