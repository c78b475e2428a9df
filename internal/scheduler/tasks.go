package scheduler

import (
	"context"
	"tafaseel/internal/config"
	"time"
)

const RefreshTokensTask = "refresh_tokens"

type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, window time.Duration) (int, error)
}

// RefreshTokens refreshes the Salla tokens of every account that expires
// within the configured window.
func RefreshTokens(cfg *config.Scheduler, accounts TokenRefresher) Task {
	return Task{
		Name:        RefreshTokensTask,
		Description: "Refresh Salla tokens that expire soon",
		Schedule:    cfg.RefreshCron,
		Enabled:     cfg.RefreshCron != "",
		Handler: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
			defer cancel()

			_, err := accounts.RefreshExpiring(ctx, cfg.RefreshWindow)
			return err
		},
	}
}
