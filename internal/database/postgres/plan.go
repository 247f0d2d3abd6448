package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// PlanRepository implements repository.Plan for PostgreSQL
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

// CreatePlan inserts a plan and fills in its generated fields
func (r *PlanRepository) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO plans (name, price_cents, duration_days, listing_quota, featured_quota, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		plan.Name,
		plan.PriceCents,
		plan.DurationDays,
		plan.ListingQuota,
		plan.FeaturedQuota,
		plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.NewError(domain.ErrorKindInvalidInput, ErrMsgPlanNameTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInsertPlan, err)
	}
	return nil
}

// UpdatePlan changes the catalog fields. Existing terms keep their snapshot.
func (r *PlanRepository) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	query := `
		UPDATE plans
		SET name = $2, price_cents = $3, duration_days = $4, listing_quota = $5, featured_quota = $6,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + planColumns
	updated, err := scanPlan(r.db.QueryRow(ctx, query,
		plan.ID,
		plan.Name,
		plan.PriceCents,
		plan.DurationDays,
		plan.ListingQuota,
		plan.FeaturedQuota,
	))
	if err != nil {
		return notFoundOr(err, domain.ErrMsgPlanNotFound, ErrMsgUpdatePlan)
	}
	*plan = *updated
	return nil
}

// GetPlan retrieves a plan that has not been deleted
func (r *PlanRepository) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1 AND deleted_at IS NULL`
	plan, err := scanPlan(r.db.QueryRow(ctx, query, planID))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgPlanNotFound, ErrMsgQueryPlans)
	}
	return plan, nil
}

// GetPlanByName retrieves a live plan by its catalog name
func (r *PlanRepository) GetPlanByName(ctx context.Context, name string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE lower(name) = lower($1) AND deleted_at IS NULL`
	plan, err := scanPlan(r.db.QueryRow(ctx, query, name))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgPlanNotFound, ErrMsgQueryPlans)
	}
	return plan, nil
}

// ListPlans returns the catalog ordered by price
func (r *PlanRepository) ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE deleted_at IS NULL`
	if !includeSuspended {
		query += ` AND is_active`
	}
	query += ` ORDER BY price_cents, name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQueryPlans, err)
	}
	plans, err := collect(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQueryPlans, err)
	}
	return plans, nil
}

// SetPlanActive suspends or resumes a plan
func (r *PlanRepository) SetPlanActive(ctx context.Context, planID string, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE plans SET is_active = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL
	`, planID, active)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgUpdatePlan, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
	}
	return nil
}

// DeletePlan removes a plan nobody can still use.
// While live terms or PENDING payments reference it the plan is suspended instead, so a
// late success callback can still activate it. A plan with only historical
// references is archived so those rows keep a valid foreign key.
func (r *PlanRepository) DeletePlan(ctx context.Context, planID string, now time.Time) (*domain.PlanDeleteResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer SafeRollback(ctx, tx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT TRUE FROM plans WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, planID).Scan(&exists)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgPlanNotFound, ErrMsgDeletePlan)
	}

	var live, referenced int
	err = tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1 AND is_active AND expires_at > $2) +
			(SELECT COUNT(*) FROM payments WHERE plan_id = $1 AND status = 'PENDING'),
			(SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1) + (SELECT COUNT(*) FROM payments WHERE plan_id = $1)
	`, planID, now).Scan(&live, &referenced)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDeletePlan, err)
	}

	result := &domain.PlanDeleteResult{PlanID: planID}
	switch {
	case live > 0:
		_, err = tx.Exec(ctx, `UPDATE plans SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, planID)
		result.Suspended = true
	case referenced > 0:
		_, err = tx.Exec(ctx, `
			UPDATE plans SET is_active = FALSE, deleted_at = $2, updated_at = NOW() WHERE id = $1
		`, planID, now)
		result.Deleted = true
	default:
		_, err = tx.Exec(ctx, `DELETE FROM plans WHERE id = $1`, planID)
		result.Deleted = true
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDeletePlan, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDeletePlan, err)
	}
	return result, nil
}
