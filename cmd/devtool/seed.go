package main

import (
	"context"

	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/database/postgres"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
)

type SeedPlansCommand struct{}

func (c *SeedPlansCommand) Name() string {
	return "seed-plans"
}

func (c *SeedPlansCommand) Description() string {
	return "Validate the plan catalog and upsert it into the database ([path])"
}

func (c *SeedPlansCommand) Run(args []string) error {
	path := config.ConfigPathPlans
	if len(args) > 0 {
		path = args[0]
	}
	PrintHeader("Seeding plans from " + path)

	loader := subscription.NewPlanLoader(config.ConfigPathPlansSchema)
	seed, err := loader.Load(path)
	if err != nil {
		return err
	}
	PrintSuccess("Catalog valid (%d plans)", len(seed.Plans))

	pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := loader.Sync(context.Background(), seed, postgres.NewPlanRepository(pool))
	if err != nil {
		return err
	}
	PrintSuccess("Inserted %d, updated %d, unchanged %d", res.Inserted, res.Updated, res.Unchanged)
	return nil
}
