package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/tradescope/internal/adapter/driven/anthropic"
	postgresadapter "github.com/ericfisherdev/tradescope/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/tradescope/internal/adapter/driven/ratelimit"
	"github.com/ericfisherdev/tradescope/internal/adapter/driven/resend"
	sqliteadapter "github.com/ericfisherdev/tradescope/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/tradescope/internal/adapter/driven/supabase"
	httphandler "github.com/ericfisherdev/tradescope/internal/adapter/driving/http"
	"github.com/ericfisherdev/tradescope/internal/application"
	"github.com/ericfisherdev/tradescope/internal/config"
	"github.com/ericfisherdev/tradescope/internal/crypto"
	"github.com/ericfisherdev/tradescope/internal/domain/port/driven"
	"github.com/ericfisherdev/tradescope/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// credentialStore is what both store backends hand back for keys and
// notification preferences.
type credentialStore interface {
	driven.CredentialStore
	driven.PreferenceStore
}

type stores struct {
	credentials credentialStore
	sessions    driven.SessionStore
	db          httphandler.Pinger
	close       func() error
}

func run() error {
	// 1. Load configuration. Missing optional services do not fail startup.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded", cfg.LogAttrs()...)
	if !cfg.HasEncryptionSecret() {
		slog.Warn("TRADESCOPE_ENCRYPTION_SECRET not set, key storage and analysis will report a configuration error")
	}
	if !cfg.HasIdentityProvider() {
		slog.Warn("identity provider not configured, authenticated endpoints will report a configuration error")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterMetrics()

	// 3. Open the store and run migrations.
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Wire driven adapters.
	limiter := ratelimit.NewFixedWindow(cfg.RateLimitWindow, cfg.RateLimitMax)
	go limiter.Start(ctx, cfg.RateLimitWindow)

	var verifier driven.IdentityVerifier
	if cfg.HasIdentityProvider() {
		verifier = supabase.NewVerifier(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	}

	notifier := resend.NewNotifier(cfg.ResendAPIKey, cfg.EmailFrom, slog.Default())

	// 5. Create application services.
	auth := application.NewAuthenticator(verifier)
	credentialSvc := application.NewCredentialService(
		st.credentials,
		crypto.NewCipher(cfg.EncryptionSecret),
		limiter,
		anthropic.NewClient(),
		slog.Default(),
	)
	journalSvc := application.NewJournalService(st.sessions, st.credentials, notifier, slog.Default())

	// 6. Create HTTP handler with all routes.
	apiHandler := httphandler.NewHandler(auth, credentialSvc, journalSvc, st.db, cfg.MaxImageBytes, slog.Default())

	// Analysis calls can take a minute or more; the write timeout covers the
	// provider's own client timeout.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      130 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("tradescope started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStores selects Postgres when a database URL is configured and the
// embedded SQLite file otherwise.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsePostgres() {
		db, err := postgresadapter.NewDB(ctx, cfg.DatabaseURL, postgresadapter.Options{})
		if err != nil {
			return nil, err
		}
		version, err := db.RunMigrations()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("postgres ready", "schema_version", version)
		return &stores{
			credentials: postgresadapter.NewCredentialRepo(db),
			sessions:    postgresadapter.NewSessionRepo(db),
			db:          db,
			close:       db.Close,
		}, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("sqlite ready", "path", cfg.DBPath, "schema_version", version)
	return &stores{
		credentials: sqliteadapter.NewCredentialRepo(db),
		sessions:    sqliteadapter.NewSessionRepo(db),
		db:          db,
		close:       db.Close,
	}, nil
}
