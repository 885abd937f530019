package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/tradescope/internal/crypto"
	"github.com/ericfisherdev/tradescope/internal/domain/model"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

// KeyStatus reports whether a user has a key on file. It never carries the
// key or its ciphertext.
type KeyStatus struct {
	HasKey    bool
	UpdatedAt *time.Time
}

// CredentialService owns the lifecycle of per-user API keys: validate and
// seal on save, null on delete, open on use. Plaintext keys only live on the
// stack of SaveKey and Analyze.
type CredentialService struct {
	store    driven.CredentialStore
	cipher   *crypto.Cipher
	limiter  driven.RateLimiter
	analyzer driven.ChartAnalyzer
	logger   *slog.Logger
}

// NewCredentialService creates a CredentialService. A nil store or analyzer
// makes the dependent operations report a configuration error.
func NewCredentialService(
	store driven.CredentialStore,
	cipher *crypto.Cipher,
	limiter driven.RateLimiter,
	analyzer driven.ChartAnalyzer,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		store:    store,
		cipher:   cipher,
		limiter:  limiter,
		analyzer: analyzer,
		logger:   logger,
	}
}

// SaveKey validates, encrypts and stores the user's key, replacing any
// previous one.
func (s *CredentialService) SaveKey(ctx context.Context, userID, apiKey string) (err error) {
	defer func() {
		metrics.CredentialOperations.WithLabelValues("save", resultLabel(err)).Inc()
	}()

	if err := s.allow(ctx, userID); err != nil {
		return err
	}
	if err := model.ValidateAPIKey(apiKey); err != nil {
		return err
	}
	if s.store == nil {
		return notConfigured("credential store")
	}

	sealed, err := s.cipher.EncryptString(strings.TrimSpace(apiKey))
	if err != nil {
		s.logger.Error("failed to encrypt API key", "user_id", userID, "error_class", ErrorClass(err))
		return err
	}

	if err := s.store.Upsert(ctx, userID, sealed); err != nil {
		s.logger.Error("failed to store API key", "user_id", userID, "error_class", ErrorClass(err))
		return err
	}

	s.logger.Info("API key saved", "user_id", userID)
	return nil
}

// DeleteKey removes the user's key. Deleting when no key exists succeeds.
func (s *CredentialService) DeleteKey(ctx context.Context, userID string) (err error) {
	defer func() {
		metrics.CredentialOperations.WithLabelValues("delete", resultLabel(err)).Inc()
	}()

	if err := s.allow(ctx, userID); err != nil {
		return err
	}
	if s.store == nil {
		return notConfigured("credential store")
	}

	if err := s.store.Clear(ctx, userID); err != nil {
		s.logger.Error("failed to delete API key", "user_id", userID, "error_class", ErrorClass(err))
		return err
	}

	s.logger.Info("API key deleted", "user_id", userID)
	return nil
}

// KeyStatus reports whether the user has a key on file without decrypting it.
func (s *CredentialService) KeyStatus(ctx context.Context, userID string) (status KeyStatus, err error) {
	defer func() {
		metrics.CredentialOperations.WithLabelValues("status", resultLabel(err)).Inc()
	}()

	if s.store == nil {
		return KeyStatus{}, notConfigured("credential store")
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to read API key status", "user_id", userID, "error_class", ErrorClass(err))
		return KeyStatus{}, err
	}
	if !rec.HasKey() {
		return KeyStatus{}, nil
	}

	updatedAt := rec.UpdatedAt
	return KeyStatus{HasKey: true, UpdatedAt: &updatedAt}, nil
}

// Analyze runs the chart analysis with the user's own key. A user without a
// key gets driven.ErrNoCredential and the analyzer is never called.
func (s *CredentialService) Analyze(ctx context.Context, userID string, image model.ChartImage) (analysis string, err error) {
	defer func() {
		metrics.AnalysisRequests.WithLabelValues(resultLabel(err)).Inc()
	}()

	if image.Data == "" || image.MediaType == "" {
		return "", model.NewValidationError("Missing image data")
	}
	if s.store == nil {
		return "", notConfigured("credential store")
	}
	if s.analyzer == nil {
		return "", notConfigured("analysis provider")
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load API key", "user_id", userID, "error_class", ErrorClass(err))
		return "", err
	}
	if !rec.HasKey() {
		return "", driven.ErrNoCredential
	}

	apiKey, err := s.cipher.DecryptString(rec.Ciphertext)
	if err != nil {
		s.logger.Error("failed to decrypt API key", "user_id", userID, "error_class", ErrorClass(err))
		return "", err
	}

	analysis, err = s.analyzer.AnalyzeChart(ctx, apiKey, image)
	if err != nil {
		s.logger.Warn("chart analysis failed", "user_id", userID, "error_class", ErrorClass(err))
		return "", err
	}
	return analysis, nil
}

func (s *CredentialService) allow(ctx context.Context, userID string) error {
	if s.limiter == nil {
		return notConfigured("rate limiter")
	}
	if !s.limiter.Allow(ctx, userID) {
		metrics.RateLimitRejections.Inc()
		s.logger.Warn("credential mutation rate limited", "user_id", userID)
		return driven.ErrRateLimited
	}
	return nil
}
