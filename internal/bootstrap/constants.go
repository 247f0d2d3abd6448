package bootstrap

import "time"

// File system permissions
const (
	DirPermission     = 0o755
	LogFilePermission = 0o644
)

// Session log files
const (
	// LogFileTimestampFormat sorts lexically in creation order
	LogFileTimestampFormat = "2006-01-02_15-04-05"
	LogFileNamePattern     = "session_%s.log"
	LogFileExtension       = ".log"

	// LogFileRetentionCount is how many older session logs survive a restart
	LogFileRetentionCount = 9
)

// Shutdown
const (
	ShutdownTimeout = 15 * time.Second
)

// Log messages
const (
	LogMsgLoggingInitialized   = "Logging initialized"
	LogMsgStartingService      = "Starting rentals ledger"
	LogMsgConfigurationLoaded  = "Configuration loaded"
	LogMsgFailedDeleteOldLog   = "Failed to delete old log file"
	LogMsgSyncingPlans         = "Syncing plan catalog from seed"
	LogMsgPaymentProvider      = "Payment provider configured"
	LogMsgShuttingDownServer   = "Shutting down server..."
	LogMsgServerForcedShutdown = "Server forced to shutdown"
	LogMsgSchedulerStopped     = "Scheduler stopped"
	LogMsgWorkerPoolStopped    = "Worker pool drained"
	LogMsgDatabaseClosed       = "Database pool closed"
	LogMsgServerStopped        = "Server stopped"
)

// Error messages
const (
	ErrMsgCreateLogsDir = "failed to create logs directory"
	ErrMsgOpenLogFile   = "failed to open log file"
	ErrMsgLoadPlanSeed  = "failed to load plan seed"
	ErrMsgSyncPlans     = "failed to sync plan catalog"
)
