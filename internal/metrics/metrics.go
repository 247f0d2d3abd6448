package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Ledger Metrics
var (
	QuotaConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameQuotaConsumed,
			Help: HelpTextQuotaConsumed,
		},
		[]string{LabelResource},
	)

	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameQuotaRejections,
			Help: HelpTextQuotaRejections,
		},
		[]string{LabelResource},
	)

	SubscriptionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSubscriptionsApplied,
			Help: HelpTextSubscriptionsApplied,
		},
		[]string{LabelSource, LabelEffect},
	)

	ListingsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameListingsPublished,
			Help: HelpTextListingsPublished,
		},
		[]string{LabelCharged},
	)
)

// Payment Metrics
var (
	PaymentsInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePaymentsInitiated,
			Help: HelpTextPaymentsInitiated,
		},
		[]string{LabelOutcome},
	)

	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePaymentTransitions,
			Help: HelpTextPaymentTransitions,
		},
		[]string{LabelFrom, LabelTo},
	)

	CallbacksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCallbacksReceived,
			Help: HelpTextCallbacksReceived,
		},
		[]string{LabelOutcome},
	)

	PaymentsManualReview = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameManualReview,
			Help: HelpTextManualReview,
		},
		[]string{LabelReason},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameProviderLatency,
			Help:    HelpTextProviderLatency,
			Buckets: ProviderLatencyBuckets,
		},
		[]string{LabelResult},
	)
)

// Background Metrics
var (
	SweepAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSweepAffected,
			Help: HelpTextSweepAffected,
		},
		[]string{LabelTask},
	)

	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTaskRuns,
			Help: HelpTextTaskRuns,
		},
		[]string{LabelTask, LabelResult},
	)

	WorkerJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWorkerJobs,
			Help: HelpTextWorkerJobs,
		},
		[]string{LabelResult},
	)
)
