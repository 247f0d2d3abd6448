package config

import "time"

// Defaults
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogDir      = "logs"
	DefaultEnvironment = "dev"
	DefaultVersion     = "dev"
	DefaultServiceName = "rentals-ledger"
	DefaultDBName      = "rentals_ledger"

	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute

	DefaultCurrency        = "KES"
	DefaultPaymentProvider = PaymentProviderFake
	DefaultProviderTimeout = 30 * time.Second

	DefaultWorkerCount          = 4
	DefaultWorkerQueueSize      = 256
	DefaultSweepInterval        = 5 * time.Minute
	DefaultPaymentSweepInterval = time.Minute
	DefaultFeaturedBoostWindow  = 7 * 24 * time.Hour
	DefaultPlanCacheSize        = 128
	DefaultPlanCacheTTL         = 5 * time.Minute
)

// Payment provider names
const (
	PaymentProviderFake  = "fake"
	PaymentProviderMpesa = "mpesa"
)

// Config file paths, relative to the repository root
const (
	ConfigPathPlans       = "configs/plans.json"
	ConfigPathPlansSchema = "configs/schemas/plans.schema.json"
)
