package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/osse101/RentalsLedger_Go/internal/database/schema"
)

// Migrate applies every embedded migration that has not run yet
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	err := withGoose(pool, func(db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyMigrations, err)
	}
	slog.Default().Info(LogMsgMigrationsApplied)
	return nil
}

// RollbackLast reverts the most recently applied migration
func RollbackLast(ctx context.Context, pool *pgxpool.Pool) error {
	err := withGoose(pool, func(db *sql.DB) error {
		return goose.DownContext(ctx, db, ".")
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRollbackMigration, err)
	}
	return nil
}

// MigrationVersion reports the highest applied migration version
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var version int64
	err := withGoose(pool, func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToReadVersion, err)
	}
	return version, nil
}

// withGoose bridges the pool to database/sql, which is what goose speaks
func withGoose(pool *pgxpool.Pool, fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Default().Error(LogMsgFailedToCloseMigrationDB, "error", err)
		}
	}(db)

	goose.SetBaseFS(schema.Migrations)
	goose.SetLogger(&gooseLogger{log: slog.Default()})
	goose.SetTableName(MigrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(db)
}

// gooseLogger routes goose's printf output through slog
type gooseLogger struct {
	log *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}
