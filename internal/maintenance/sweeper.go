package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SessionSweeper deletes sessions whose expiry has passed.
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SweepOnce runs a single sweep and logs how many sessions were removed.
func SweepOnce(ctx context.Context, logger zerolog.Logger, sessions SessionSweeper) (int64, error) {
	removed, err := sessions.SweepExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error sweeping expired sessions")
		return 0, err
	}
	logger.Info().Int64("removed", removed).Msg("Expired sessions swept")
	return removed, nil
}

// RunSessionSweeper sweeps immediately and then on every tick until ctx is
// cancelled. A failed sweep is logged and retried on the next tick.
func RunSessionSweeper(ctx context.Context, logger zerolog.Logger, sessions SessionSweeper, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("session sweep interval must be positive, got %s", interval)
	}
	logger = logger.With().Str("component", "session_sweeper").Logger()
	logger.Info().Dur("interval", interval).Msg("Starting session sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			logger.Info().Msg("Shutting down session sweeper")
			return nil
		}
		_, _ = SweepOnce(ctx, logger, sessions)

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
