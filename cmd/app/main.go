package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/RentalsLedger_Go/docs"
	"github.com/osse101/RentalsLedger_Go/internal/bootstrap"
	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/database"
	"github.com/osse101/RentalsLedger_Go/internal/listing"
	"github.com/osse101/RentalsLedger_Go/internal/payment"
	"github.com/osse101/RentalsLedger_Go/internal/scheduler"
	"github.com/osse101/RentalsLedger_Go/internal/server"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// @title Rentals Ledger API
// @version 1.0
// @description Subscription quota ledger and payment reconciliation for rental listings.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ValidateEnv(); err != nil {
		log.Fatalf("Environment check failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	docs.SwaggerInfo.Version = cfg.Version

	ctx := context.Background()

	dbPool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	repos := bootstrap.InitializeRepositories(dbPool)
	if err := bootstrap.SyncPlans(ctx, repos.Plans); err != nil {
		slog.Error("Failed to seed plans", "error", err)
		os.Exit(1)
	}

	subscriptionService := subscription.NewService(repos.Subscriptions, repos.Plans,
		subscription.NewPlanCache(cfg.PlanCacheSize, cfg.PlanCacheTTL))
	paymentService := payment.NewService(repos.Payments, subscriptionService, bootstrap.NewPaymentInitiator(cfg), cfg.Currency)
	reconciler := payment.NewReconciler(repos.Payments, subscriptionService)
	listingService := listing.NewService(repos.Listings, subscriptionService, cfg.FeaturedBoostWindow)

	workers := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	workers.Start()

	sched := scheduler.New(workers)
	intervals := map[string]time.Duration{
		worker.TaskDeactivateExpiredTerms: cfg.SweepInterval,
		worker.TaskSweepExpiredBoosts:     cfg.SweepInterval,
		worker.TaskExpireStalePayments:    cfg.PaymentSweepInterval,
	}
	for name, fn := range worker.NewSweeper(subscriptionService, paymentService, listingService).Tasks() {
		sched.Register(name, intervals[name], fn)
	}
	sched.Start()

	srv := server.NewServer(
		server.Options{Port: cfg.Port, APIKey: cfg.APIKey, TrustedProxies: cfg.TrustedProxies},
		dbPool,
		server.Services{
			Subscriptions: subscriptionService,
			Listings:      listingService,
			Payments:      paymentService,
			Reconciler:    reconciler,
			Jobs:          workers,
			Tasks:         sched,
		},
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:    srv,
		Scheduler: sched,
		Workers:   workers,
		DB:        dbPool,
	})
}
