package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"paywall/internal/config"
	"paywall/internal/db"
	"paywall/internal/logger"
	"paywall/internal/maintenance"
	"paywall/internal/pubsub"
	"paywall/internal/repository"
	"paywall/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Maintenance mode: migrate|sweep-sessions|sweep-sessions-once|setup-pubsub")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.New(os.Getenv("ENV")).Warn().Msg("Warning: no .env file found")
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadResolved(ctx, func(ctx context.Context, projectID string) (config.SecretResolver, io.Closer, error) {
		sm, err := service.NewSecretManagerService(ctx, projectID)
		if err != nil {
			return nil, nil, err
		}
		return sm, sm, nil
	})
	if err != nil {
		logger.New(os.Getenv("ENV")).Fatal().Err(err).Msg("Error loading config")
	}
	log := logger.New(cfg.Environment).With().Str("mode", *mode).Logger()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxConns:      2,
		RetryAttempts: cfg.DBRetryAttempts,
		RetryInterval: cfg.DBRetryInterval,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	sqlDB := db.SQL(pool)
	defer sqlDB.Close()

	sessions := service.NewSessionService(repository.NewSessionRepo(sqlDB), cfg.SessionTTL, log)

	// Dispatch to the selected task
	var runErr error
	switch *mode {
	case "migrate":
		runErr = db.Migrate(ctx, sqlDB, log)
	case "sweep-sessions":
		runErr = maintenance.RunSessionSweeper(ctx, log, sessions, cfg.SessionSweepInterval)
	case "sweep-sessions-once":
		_, runErr = maintenance.SweepOnce(ctx, log, sessions)
	case "setup-pubsub":
		runErr = setupPubSub(ctx, cfg, log)
	default:
		log.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Maintenance task failed")
	}
	log.Info().Msg("Maintenance task finished")
}

// setupPubSub creates the status topic. Meant for the local emulator and for
// first-time project setup.
func setupPubSub(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if !cfg.NotificationsEnabled() {
		return fmt.Errorf("GCP_PROJECT_ID and PUBSUB_STATUS_TOPIC must be set")
	}
	if cfg.PubSubEmulatorHost != "" {
		_ = os.Setenv("PUBSUB_EMULATOR_HOST", cfg.PubSubEmulatorHost)
	}
	pub, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
	if err != nil {
		return err
	}
	defer pub.Close()

	created, err := pub.EnsureTopic(ctx, cfg.PubSubStatusTopic)
	if err != nil {
		return err
	}
	log.Info().Str("topic", cfg.PubSubStatusTopic).Bool("created", created).Msg("Status topic ready")
	return nil
}
