// Package httphandler is the JSON HTTP driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/tradescope/internal/application"
	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

// healthTimeout bounds the store ping behind /api/health.
const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth          *application.Authenticator
	credentials   *application.CredentialService
	journal       *application.JournalService
	store         Pinger
	maxImageBytes int64
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.Authenticator,
	credentials *application.CredentialService,
	journal *application.JournalService,
	store Pinger,
	maxImageBytes int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		credentials:   credentials,
		journal:       journal,
		store:         store,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/save-key", h.requireUser(h.SaveKey))
	mux.HandleFunc("DELETE /api/delete-key", h.requireUser(h.DeleteKey))
	mux.HandleFunc("GET /api/key-status", h.requireUser(h.KeyStatus))
	mux.HandleFunc("POST /api/analyze", h.requireUser(h.Analyze))

	mux.HandleFunc("GET /api/sessions", h.requireUser(h.ListSessions))
	mux.HandleFunc("POST /api/sessions", h.requireUser(h.CreateSession))
	mux.HandleFunc("DELETE /api/sessions", h.requireUser(h.DeleteAllSessions))
	mux.HandleFunc("GET /api/sessions/{id}", h.requireUser(h.GetSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", h.requireUser(h.DeleteSession))
	mux.HandleFunc("POST /api/sessions/{id}/decision", h.requireUser(h.RecordDecision))
	mux.HandleFunc("POST /api/sessions/{id}/outcome", h.requireUser(h.RecordOutcome))
	mux.HandleFunc("PUT /api/sessions/{id}/notes", h.requireUser(h.UpdateNotes))

	mux.HandleFunc("GET /api/preferences/email", h.requireUser(h.GetEmailPreference))
	mux.HandleFunc("PUT /api/preferences/email", h.requireUser(h.SetEmailPreference))

	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// SaveKey validates, encrypts and stores the caller's API key.
func (h *Handler) SaveKey(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is treated as a missing key so the rate limiter
	// still sees the attempt.
	var req SaveKeyRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req)

	if err := h.credentials.SaveKey(r.Context(), userIDFrom(r.Context()), req.APIKey); err != nil {
		h.writeServiceError(w, "save key", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "API key saved successfully"})
}

// DeleteKey removes the caller's API key.
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.DeleteKey(r.Context(), userIDFrom(r.Context())); err != nil {
		h.writeServiceError(w, "delete key", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "API key deleted successfully"})
}

// KeyStatus reports whether the caller has a key on file.
func (h *Handler) KeyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentials.KeyStatus(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, "key status", err)
		return
	}

	writeJSON(w, http.StatusOK, KeyStatusResponse{
		HasKey:    status.HasKey,
		UpdatedAt: formatOptionalTime(status.UpdatedAt),
	})
}

// Analyze sends the uploaded chart to the analysis provider with the
// caller's stored key.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxImageBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing image data")
		return
	}

	analysis, err := h.credentials.Analyze(r.Context(), userIDFrom(r.Context()), model.ChartImage{
		Data:      req.ImageData,
		MediaType: req.ImageType,
	})
	if err != nil {
		h.writeServiceError(w, "analyze", err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{Analysis: analysis})
}

// Health reports readiness. A store that cannot be pinged yields 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
