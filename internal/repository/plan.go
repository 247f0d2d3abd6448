package repository

import (
	"context"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Plan defines the interface for plan catalog persistence
type Plan interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
	GetPlanByName(ctx context.Context, name string) (*domain.Plan, error)
	ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error)
	SetPlanActive(ctx context.Context, planID string, active bool) error

	// DeletePlan removes the plan, or suspends it while live terms still reference it
	DeletePlan(ctx context.Context, planID string, now time.Time) (*domain.PlanDeleteResult, error)
}
