package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/RentalsLedger_Go/internal/database"
	"github.com/osse101/RentalsLedger_Go/internal/scheduler"
	"github.com/osse101/RentalsLedger_Go/internal/server"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown
type ShutdownComponents struct {
	Server    *server.Server
	Scheduler *scheduler.Scheduler
	Workers   *worker.Pool
	DB        database.Pool
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (no new requests or callbacks)
// 2. Scheduler (no new sweep ticks)
// 3. Worker pool (queued callbacks are reconciled before exit)
// 4. Database pool
//
// Errors are logged and do not stop the sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
		slog.Info(LogMsgSchedulerStopped)
	}
	if c.Workers != nil {
		c.Workers.Stop()
		slog.Info(LogMsgWorkerPoolStopped)
	}
	if c.DB != nil {
		c.DB.Close()
		slog.Info(LogMsgDatabaseClosed)
	}

	slog.Info(LogMsgServerStopped)
}
