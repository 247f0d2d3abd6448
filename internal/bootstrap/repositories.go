package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/database/postgres"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// Repositories holds the Postgres implementations the services are built on
type Repositories struct {
	Plans         repository.Plan
	Subscriptions repository.Subscription
	Payments      repository.Payment
	Listings      repository.Listing
}

// InitializeRepositories creates all repository implementations over one pool
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Plans:         postgres.NewPlanRepository(dbPool),
		Subscriptions: postgres.NewSubscriptionRepository(dbPool),
		Payments:      postgres.NewPaymentRepository(dbPool),
		Listings:      postgres.NewListingRepository(dbPool),
	}
}
