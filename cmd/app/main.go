package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paywall/internal/api/v1/router"
	"paywall/internal/auth"
	"paywall/internal/config"
	"paywall/internal/db"
	"paywall/internal/logger"
	"paywall/internal/maintenance"
	"paywall/internal/pubsub"
	"paywall/internal/repository"
	"paywall/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func openSecretManager(ctx context.Context, projectID string) (config.SecretResolver, io.Closer, error) {
	sm, err := service.NewSecretManagerService(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return sm, sm, nil
}

func main() {
	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.New(os.Getenv("ENV")).Warn().Msg("Warning: no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadResolved(ctx, openSecretManager)
	if err != nil {
		logger.New(os.Getenv("ENV")).Fatal().Err(err).Msg("Error loading config")
	}
	log := logger.New(cfg.Environment)

	// 2. Database
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxConns:      cfg.DBMaxConns,
		RetryAttempts: cfg.DBRetryAttempts,
		RetryInterval: cfg.DBRetryInterval,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	sqlDB := db.SQL(pool)
	defer sqlDB.Close()

	if cfg.IsDevelopment() {
		if err := db.Migrate(ctx, sqlDB, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// 3. Outbound integrations
	notifier, closeNotifier := newNotifier(ctx, cfg, log)
	defer closeNotifier()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	oauth := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.AppURL + "/auth/callback/google",
		StateSecret:  cfg.AuthSecret,
	})

	r := router.New(router.Options{
		Config:   cfg,
		DB:       sqlDB,
		Gateway:  service.NewStripeGateway(cfg.StripeSecretKey),
		OAuth:    oauth,
		Notifier: notifier,
		Registry: registry,
		Logger:   log,
	})

	// 4. Expired sessions are swept in-process
	sessions := service.NewSessionService(repository.NewSessionRepo(sqlDB), cfg.SessionTTL, log)
	go func() {
		if err := maintenance.RunSessionSweeper(ctx, log, sessions, cfg.SessionSweepInterval); err != nil {
			log.Error().Err(err).Msg("Session sweeper stopped")
		}
	}()

	// 5. HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Listen failed")
		}
	}()

	// 6. Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	log.Info().Msg("Server shut down gracefully")
}

// newNotifier publishes status changes to Pub/Sub when a topic is configured
// and drops them otherwise.
func newNotifier(ctx context.Context, cfg *config.Config, log zerolog.Logger) (pubsub.Notifier, func()) {
	if !cfg.NotificationsEnabled() {
		log.Info().Msg("Pub/Sub topic not configured, status notifications disabled")
		return pubsub.NopNotifier{}, func() {}
	}
	if cfg.PubSubEmulatorHost != "" {
		_ = os.Setenv("PUBSUB_EMULATOR_HOST", cfg.PubSubEmulatorHost)
	}
	pub, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Pub/Sub publisher")
	}
	log.Info().Str("topic", cfg.PubSubStatusTopic).Msg("Status notifications enabled")
	return pubsub.NewStatusNotifier(pub, cfg.PubSubStatusTopic), func() { _ = pub.Close() }
}
