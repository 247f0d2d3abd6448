package worker

import "time"

// Task names, also used as scheduler keys and metric labels
const (
	TaskExpireStalePayments    = "expire-stale-payments"
	TaskDeactivateExpiredTerms = "deactivate-expired-subscriptions"
	TaskSweepExpiredBoosts     = "sweep-expired-boosts"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 30 * time.Second

// Callback retry policy, doubling the backoff after each failed attempt
const (
	CallbackMaxAttempts  = 5
	CallbackRetryBackoff = 250 * time.Millisecond
)

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

const (
	LogMsgWorkerJobFailed = "Worker job failed"
	LogMsgWorkerQueueFull = "Worker queue full, job dropped"
	LogMsgWorkerStopped   = "Worker pool stopped, job dropped"
	LogMsgWorkerDraining  = "Worker pool draining"
)

// ============================================================================
// Log Messages - Sweeps
// ============================================================================

const (
	LogMsgSweepCompleted    = "Sweep completed"
	LogMsgCallbackProcessed = "Callback processed"
	LogMsgCallbackRetrying  = "Callback reconciliation failed, retrying"
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
