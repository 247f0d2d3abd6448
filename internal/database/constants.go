package database

// Database Connection Pool Constants
const (
	// DefaultMinConnections is the minimum number of connections to maintain in the pool
	DefaultMinConnections = 2

	// MigrationsTable records which goose migrations have run
	MigrationsTable = "goose_db_version"
)

// Error Messages - Database Operations
const (
	ErrMsgFailedToParseConnString   = "failed to parse connection string"
	ErrMsgFailedToCreatePool        = "failed to create connection pool"
	ErrMsgFailedToPingDatabase      = "failed to ping database"
	ErrMsgFailedToApplyMigrations   = "failed to apply migrations"
	ErrMsgFailedToRollbackMigration = "failed to roll back migration"
	ErrMsgFailedToReadVersion       = "failed to read migration version"
)

// Log Messages
const (
	LogMsgSuccessfullyConnectedToDatabase = "Successfully connected to the database"
	LogMsgMigrationsApplied               = "Database migrations applied"
	LogMsgFailedToCloseMigrationDB        = "Failed to close migration connection"
)
