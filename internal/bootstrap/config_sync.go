package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
)

// SyncPlans loads the plan catalog seed, validates it against its schema and upserts it
func SyncPlans(ctx context.Context, plans repository.Plan) error {
	slog.Info(LogMsgSyncingPlans, "path", config.ConfigPathPlans)
	loader := subscription.NewPlanLoader(config.ConfigPathPlansSchema)

	seed, err := loader.Load(config.ConfigPathPlans)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadPlanSeed, err)
	}
	if _, err := loader.Sync(ctx, seed, plans); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSyncPlans, err)
	}
	return nil
}
