package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Ledger metric names
const (
	MetricNameQuotaConsumed        = "ledger_quota_consumed_total"
	MetricNameQuotaRejections      = "ledger_quota_rejections_total"
	MetricNameSubscriptionsApplied = "ledger_subscriptions_applied_total"
	MetricNameListingsPublished    = "ledger_listings_published_total"
)

// Payment metric names
const (
	MetricNamePaymentsInitiated  = "payments_initiated_total"
	MetricNamePaymentTransitions = "payment_transitions_total"
	MetricNameCallbacksReceived  = "payment_callbacks_total"
	MetricNameManualReview       = "payment_manual_review_total"
	MetricNameProviderLatency    = "payment_provider_request_duration_seconds"
)

// Background metric names
const (
	MetricNameSweepAffected = "sweeper_rows_affected_total"
	MetricNameTaskRuns      = "scheduler_task_runs_total"
	MetricNameWorkerJobs    = "worker_jobs_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Ledger metric help text
const (
	HelpTextQuotaConsumed        = "Quota units deducted from subscription terms"
	HelpTextQuotaRejections      = "Quota requests rejected for insufficient allowance"
	HelpTextSubscriptionsApplied = "Plan activations by source and effect"
	HelpTextListingsPublished    = "Listing publish actions by whether a slot was charged"
)

// Payment metric help text
const (
	HelpTextPaymentsInitiated  = "Payment initiation requests by outcome"
	HelpTextPaymentTransitions = "Payment status transitions"
	HelpTextCallbacksReceived  = "Provider callbacks by reconciliation outcome"
	HelpTextManualReview       = "Payments flagged for manual review"
	HelpTextProviderLatency    = "Latency of payment provider initiation calls in seconds"
)

// Background metric help text
const (
	HelpTextSweepAffected = "Rows changed by background sweeps"
	HelpTextTaskRuns      = "Scheduled task executions by result"
	HelpTextWorkerJobs    = "Worker pool jobs by result"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelResource = "resource"
	LabelSource   = "source"
	LabelEffect   = "effect"
	LabelOutcome  = "outcome"
	LabelFrom     = "from"
	LabelTo       = "to"
	LabelReason   = "reason"
	LabelTask     = "task"
	LabelResult   = "result"
	LabelCharged  = "charged"
)

// Label values
const (
	ResourceListing  = "listing"
	ResourceFeatured = "featured"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"

	PathUnmatched = "unmatched"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ProviderLatencyBuckets covers push-payment calls, which can take several seconds
var ProviderLatencyBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
