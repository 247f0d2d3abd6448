package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string
	Environment string
	Version     string
	ServiceName string

	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration
	APIKey            string // API key for authentication
	TrustedProxies    []string

	Currency               string
	PaymentProvider        string // "mpesa" or "fake"
	PaymentProviderURL     string
	PaymentProviderToken   string
	PaymentProviderTimeout time.Duration
	PaymentCallbackURL     string

	WorkerCount          int
	WorkerQueueSize      int
	SweepInterval        time.Duration
	PaymentSweepInterval time.Duration
	FeaturedBoostWindow  time.Duration
	PlanCacheSize        int
	PlanCacheTTL         time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", DefaultLogFormat),
		LogDir:      getEnv("LOG_DIR", DefaultLogDir),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		Version:     getEnv("VERSION", DefaultVersion),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", DefaultDBName),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),
		APIKey:            getEnv("API_KEY", ""),
		TrustedProxies:    getEnvAsList("TRUSTED_PROXIES"),

		Currency:               strings.ToUpper(getEnv("CURRENCY", DefaultCurrency)),
		PaymentProvider:        strings.ToLower(getEnv("PAYMENT_PROVIDER", DefaultPaymentProvider)),
		PaymentProviderURL:     getEnv("PAYMENT_PROVIDER_URL", ""),
		PaymentProviderToken:   getEnv("PAYMENT_PROVIDER_TOKEN", ""),
		PaymentProviderTimeout: getEnvAsDuration("PAYMENT_PROVIDER_TIMEOUT", DefaultProviderTimeout),
		PaymentCallbackURL:     getEnv("PAYMENT_CALLBACK_URL", ""),

		WorkerCount:          getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize:      getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),
		SweepInterval:        getEnvAsDuration("SWEEP_INTERVAL", DefaultSweepInterval),
		PaymentSweepInterval: getEnvAsDuration("PAYMENT_SWEEP_INTERVAL", DefaultPaymentSweepInterval),
		FeaturedBoostWindow:  getEnvAsDuration("FEATURED_BOOST_DURATION", DefaultFeaturedBoostWindow),
		PlanCacheSize:        getEnvAsInt("PLAN_CACHE_SIZE", DefaultPlanCacheSize),
		PlanCacheTTL:         getEnvAsDuration("PLAN_CACHE_TTL", DefaultPlanCacheTTL),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// Validate checks the values that would break the service at runtime
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Currency))
	}
	switch c.PaymentProvider {
	case PaymentProviderFake:
	case PaymentProviderMpesa:
		if c.PaymentProviderURL == "" {
			errs = append(errs, errors.New("PAYMENT_PROVIDER_URL is required for the mpesa provider"))
		}
		if c.PaymentCallbackURL == "" {
			errs = append(errs, errors.New("PAYMENT_CALLBACK_URL is required for the mpesa provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider))
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, errors.New("WORKER_COUNT must be positive"))
	}
	if c.WorkerQueueSize <= 0 {
		errs = append(errs, errors.New("WORKER_QUEUE_SIZE must be positive"))
	}
	if c.SweepInterval <= 0 || c.PaymentSweepInterval <= 0 {
		errs = append(errs, errors.New("sweep intervals must be positive"))
	}
	if c.PlanCacheSize <= 0 {
		errs = append(errs, errors.New("PLAN_CACHE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to the default when unset or malformed
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses a time.Duration variable such as "30s" or "15m"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
