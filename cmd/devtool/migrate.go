package main

import (
	"context"
	"fmt"

	"github.com/osse101/RentalsLedger_Go/internal/database"
)

type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Manage database migrations (up, down, status)"
}

func (c *MigrateCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: up, down, status")
	}

	pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx := context.Background()

	switch args[0] {
	case "up":
		PrintHeader("Applying migrations")
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	case "down":
		PrintHeader("Rolling back last migration")
		if err := database.RollbackLast(ctx, pool); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}

	version, err := database.MigrationVersion(ctx, pool)
	if err != nil {
		return err
	}
	PrintSuccess("Schema version: %d", version)
	return nil
}
