package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/quota"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// Service defines the interface for subscription ledger operations
type Service interface {
	// Ledger primitives, run inside the caller's transaction
	ApplyPlanTx(ctx context.Context, tx repository.SubscriptionTx, req domain.ActivationRequest) (*domain.ActivationResult, error)
	ConsumeTx(ctx context.Context, tx repository.SubscriptionTx, userID string, need domain.QuotaRequest) (*domain.Deduction, error)

	// Query operations
	GetQuotaSummary(ctx context.Context, userID string) (*domain.QuotaSummary, error)
	ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)

	// Term lifecycle
	Create(ctx context.Context, userID, planID string) (*domain.ActivationResult, error)
	Grant(ctx context.Context, req domain.GrantRequest) (*domain.ActivationResult, error)
	Extend(ctx context.Context, subscriptionID string, planID *string) (*domain.ActivationResult, error)
	ResetUsage(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	Deactivate(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	DeactivateExpired(ctx context.Context) (*domain.SweepResult, error)

	// Plan catalog
	CreatePlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, planID string, in domain.PlanInput) (*domain.Plan, error)
	SuspendPlan(ctx context.Context, planID string) (*domain.Plan, error)
	ResumePlan(ctx context.Context, planID string) (*domain.Plan, error)
	DeletePlan(ctx context.Context, planID string) (*domain.PlanDeleteResult, error)
	ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error)
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
}

type service struct {
	repo  repository.Subscription
	plans repository.Plan
	cache *PlanCache
	now   func() time.Time
}

// NewService creates a new subscription service
func NewService(repo repository.Subscription, plans repository.Plan, cache *PlanCache) Service {
	return &service{
		repo:  repo,
		plans: plans,
		cache: cache,
		now:   time.Now,
	}
}

// ApplyPlanTx is the single activation path shared by admin grants, admin extensions and
// successful payments. With no target it opens a new term. With a target it tops up a live
// term or reactivates a lapsed one; the term keeps its original plan snapshot either way.
func (s *service) ApplyPlanTx(ctx context.Context, tx repository.SubscriptionTx, req domain.ActivationRequest) (*domain.ActivationResult, error) {
	log := logger.FromContext(ctx)
	plan := req.Plan
	if plan.DurationDays <= 0 || plan.ListingQuota < 0 || plan.FeaturedQuota < 0 {
		return nil, domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgInvalidSubscriptionPlan)
	}
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}

	if err := tx.LockUser(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLockUser, err)
	}

	if req.TargetSubscriptionID == nil {
		term := domain.Subscription{
			UserID:            req.UserID,
			PlanID:            plan.ID,
			PlanName:          plan.Name,
			ListingQuota:      plan.ListingQuota,
			FeaturedQuota:     plan.FeaturedQuota,
			DurationDays:      plan.DurationDays,
			StartedAt:         now,
			ExpiresAt:         now.Add(plan.Duration()),
			RemainingListings: plan.ListingQuota,
			RemainingFeatured: plan.FeaturedQuota,
			IsActive:          true,
		}
		if err := tx.CreateSubscription(ctx, &term); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgCreateTerm, err)
		}
		metrics.SubscriptionsApplied.WithLabelValues(string(req.Source), effectCreated).Inc()
		log.Info(LogMsgPlanApplied, "user_id", req.UserID, "subscription_id", term.ID,
			"plan_id", plan.ID, "source", req.Source, "effect", effectCreated)
		return &domain.ActivationResult{Subscription: term, Created: true}, nil
	}

	term, err := tx.GetSubscriptionForUpdate(ctx, *req.TargetSubscriptionID)
	if err != nil {
		return nil, err
	}
	if term.UserID != req.UserID {
		return nil, domain.ErrOwnershipViolation
	}

	effect := effectExtended
	reactivated := false
	if term.IsLive(now) {
		term.RemainingListings += plan.ListingQuota
		term.RemainingFeatured += plan.FeaturedQuota
		term.ExpiresAt = laterOf(term.ExpiresAt, now).Add(plan.Duration())
	} else {
		// Lapsed leftovers are not revived
		term.IsActive = true
		term.StartedAt = now
		term.ExpiresAt = now.Add(plan.Duration())
		term.RemainingListings = plan.ListingQuota
		term.RemainingFeatured = plan.FeaturedQuota
		effect = effectReactivated
		reactivated = true
	}

	if err := tx.SaveSubscription(ctx, term); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSaveTerm, err)
	}

	metrics.SubscriptionsApplied.WithLabelValues(string(req.Source), effect).Inc()
	log.Info(LogMsgPlanApplied, "user_id", req.UserID, "subscription_id", term.ID,
		"plan_id", plan.ID, "source", req.Source, "effect", effect, "expires_at", term.ExpiresAt)
	return &domain.ActivationResult{Subscription: *term, Reactivated: reactivated}, nil
}

// ConsumeTx deducts need from the user's terms inside the caller's transaction.
// The caller commits or rolls back the deduction together with the action it pays for.
func (s *service) ConsumeTx(ctx context.Context, tx repository.SubscriptionTx, userID string, need domain.QuotaRequest) (*domain.Deduction, error) {
	log := logger.FromContext(ctx)

	if err := tx.LockUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLockUser, err)
	}
	terms, err := tx.GetUserSubscriptionsForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadTerms, err)
	}

	deduction, changed, err := quota.ConsumeFIFO(terms, need, s.now())
	if err != nil {
		var qe *domain.QuotaError
		if errors.As(err, &qe) {
			metrics.QuotaRejections.WithLabelValues(resourceLabel(qe.Kind)).Inc()
			log.Info(LogMsgQuotaRejected, "user_id", userID, "needed", qe.Needed, "have", qe.Have, "kind", qe.Kind)
		}
		return nil, err
	}

	if err := tx.UpdateRemaining(ctx, changed); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgPersistQuota, err)
	}

	if need.Listings > 0 {
		metrics.QuotaConsumed.WithLabelValues(metrics.ResourceListing).Add(float64(need.Listings))
	}
	if need.Featured > 0 {
		metrics.QuotaConsumed.WithLabelValues(metrics.ResourceFeatured).Add(float64(need.Featured))
	}
	log.Debug(LogMsgQuotaConsumed, "user_id", userID, "listings", need.Listings, "featured", need.Featured,
		"terms_touched", len(changed))
	return deduction, nil
}

// GetQuotaSummary reports live totals without deducting anything
func (s *service) GetQuotaSummary(ctx context.Context, userID string) (*domain.QuotaSummary, error) {
	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	terms, err := s.repo.ListUserSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	check, _, err := quota.ConsumeFIFO(terms, domain.QuotaRequest{}, now)
	if err != nil {
		return nil, err
	}
	return &domain.QuotaSummary{
		UserID:            userID,
		RemainingListings: check.RemainingListings,
		RemainingFeatured: check.RemainingFeatured,
		ActiveTerms:       quota.Eligible(terms, now),
	}, nil
}

func (s *service) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListUserSubscriptions(ctx, userID)
}

// Create opens a new independent term from a plan
func (s *service) Create(ctx context.Context, userID, planID string) (*domain.ActivationResult, error) {
	return s.Grant(ctx, domain.GrantRequest{UserID: userID, PlanID: planID})
}

// Grant applies a plan without payment
func (s *service) Grant(ctx context.Context, req domain.GrantRequest) (*domain.ActivationResult, error) {
	if err := domain.ValidateID("user_id", req.UserID); err != nil {
		return nil, err
	}
	if req.TargetSubscriptionID != nil {
		if err := domain.ValidateID("target_subscription_id", *req.TargetSubscriptionID); err != nil {
			return nil, err
		}
	}
	plan, err := s.purchasablePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	return s.applyInOwnTx(ctx, domain.ActivationRequest{
		UserID:               req.UserID,
		Plan:                 *plan,
		TargetSubscriptionID: req.TargetSubscriptionID,
		Source:               domain.ActivationSourceGrant,
	})
}

// Extend tops up or reactivates a term, funded by planID or by the term's own plan
func (s *service) Extend(ctx context.Context, subscriptionID string, planID *string) (*domain.ActivationResult, error) {
	if err := domain.ValidateID("subscription_id", subscriptionID); err != nil {
		return nil, err
	}
	term, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	fundingPlanID := term.PlanID
	if planID != nil && *planID != "" {
		fundingPlanID = *planID
	}
	plan, err := s.purchasablePlan(ctx, fundingPlanID)
	if err != nil {
		return nil, err
	}
	return s.applyInOwnTx(ctx, domain.ActivationRequest{
		UserID:               term.UserID,
		Plan:                 *plan,
		TargetSubscriptionID: &term.ID,
		Source:               domain.ActivationSourceExtend,
	})
}

// ResetUsage restores a term's counters to its snapshot quotas
func (s *service) ResetUsage(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	term, err := s.mutateTerm(ctx, subscriptionID, func(tx repository.SubscriptionTx, term *domain.Subscription) error {
		term.RemainingListings = term.ListingQuota
		term.RemainingFeatured = term.FeaturedQuota
		return tx.SaveSubscription(ctx, term)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgSubscriptionReset, "subscription_id", term.ID, "user_id", term.UserID)
	return term, nil
}

// Deactivate switches a term off. Terms are never deleted. When it was the user's last
// live term their listings go offline in the same transaction.
func (s *service) Deactivate(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	term, err := s.mutateTerm(ctx, subscriptionID, func(tx repository.SubscriptionTx, term *domain.Subscription) error {
		term.IsActive = false
		if err := tx.SaveSubscription(ctx, term); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgSaveTerm, err)
		}
		_, err := s.unpublishIfLapsed(ctx, tx, term.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgSubscriptionDisabled, "subscription_id", term.ID, "user_id", term.UserID)
	return term, nil
}

// DeactivateExpired flips every lapsed term off in one statement, then re-checks each
// affected user under their ledger lock. Users left without a live term lose their
// published listings; users with another live term keep them.
func (s *service) DeactivateExpired(ctx context.Context) (*domain.SweepResult, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	count, users, err := s.repo.DeactivateExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	result := &domain.SweepResult{DeactivatedTerms: count, AffectedUsers: len(users)}

	var errs []error
	for _, userID := range users {
		unpublished, err := s.recheckUser(ctx, userID)
		if err != nil {
			log.Error(LogMsgSweepUserFailed, "user_id", userID, "error", err)
			errs = append(errs, err)
			continue
		}
		if unpublished > 0 {
			result.UsersUnpublished++
			result.ListingsUnpublished += unpublished
		}
	}

	if count > 0 {
		log.Info(LogMsgExpiredDeactivated, "terms", count, "users", len(users),
			"users_unpublished", result.UsersUnpublished, "listings_unpublished", result.ListingsUnpublished)
	}
	return result, errors.Join(errs...)
}

func (s *service) recheckUser(ctx context.Context, userID string) (int64, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.LockUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgLockUser, err)
	}
	unpublished, err := s.unpublishIfLapsed(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	return unpublished, nil
}

// unpublishIfLapsed expects the caller to hold the user's ledger lock
func (s *service) unpublishIfLapsed(ctx context.Context, tx repository.SubscriptionTx, userID string) (int64, error) {
	live, err := tx.CountLiveSubscriptions(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if live > 0 {
		return 0, nil
	}
	n, err := tx.UnpublishUserListings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgUnpublish, err)
	}
	if n > 0 {
		logger.FromContext(ctx).Info(LogMsgListingsUnpublished, "user_id", userID, "listings", n)
	}
	return n, nil
}

// mutateTerm loads a term under the owner's ledger lock and commits whatever fn writes
func (s *service) mutateTerm(ctx context.Context, subscriptionID string, fn func(repository.SubscriptionTx, *domain.Subscription) error) (*domain.Subscription, error) {
	if err := domain.ValidateID("subscription_id", subscriptionID); err != nil {
		return nil, err
	}
	current, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.LockUser(ctx, current.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLockUser, err)
	}
	term, err := tx.GetSubscriptionForUpdate(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := fn(tx, term); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	return term, nil
}

func (s *service) applyInOwnTx(ctx context.Context, req domain.ActivationRequest) (*domain.ActivationResult, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	result, err := s.ApplyPlanTx(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	return result, nil
}

// purchasablePlan returns the plan if it exists and is not suspended
func (s *service) purchasablePlan(ctx context.Context, planID string) (*domain.Plan, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanSuspended
	}
	return plan, nil
}

// CreatePlan adds an active plan to the catalog
func (s *service) CreatePlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error) {
	if err := validatePlanInput(in); err != nil {
		return nil, err
	}
	plan := planFromInput(in)
	plan.IsActive = true
	if err := s.plans.CreatePlan(ctx, &plan); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPlanCreated, "plan_id", plan.ID, "name", plan.Name)
	return &plan, nil
}

// UpdatePlan edits the catalog entry. Existing terms keep their snapshot.
func (s *service) UpdatePlan(ctx context.Context, planID string, in domain.PlanInput) (*domain.Plan, error) {
	if err := domain.ValidateID("plan_id", planID); err != nil {
		return nil, err
	}
	if err := validatePlanInput(in); err != nil {
		return nil, err
	}
	plan := planFromInput(in)
	plan.ID = planID
	defer s.cache.Invalidate(planID)
	if err := s.plans.UpdatePlan(ctx, &plan); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPlanUpdated, "plan_id", plan.ID)
	return &plan, nil
}

func (s *service) SuspendPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	return s.setPlanActive(ctx, planID, false)
}

func (s *service) ResumePlan(ctx context.Context, planID string) (*domain.Plan, error) {
	return s.setPlanActive(ctx, planID, true)
}

func (s *service) setPlanActive(ctx context.Context, planID string, active bool) (*domain.Plan, error) {
	if err := domain.ValidateID("plan_id", planID); err != nil {
		return nil, err
	}
	defer s.cache.Invalidate(planID)
	if err := s.plans.SetPlanActive(ctx, planID, active); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPlanStatusChanged, "plan_id", planID, "active", active)
	return s.plans.GetPlan(ctx, planID)
}

// DeletePlan removes the plan, or suspends it while live terms or pending payments reference it
func (s *service) DeletePlan(ctx context.Context, planID string) (*domain.PlanDeleteResult, error) {
	if err := domain.ValidateID("plan_id", planID); err != nil {
		return nil, err
	}
	defer s.cache.Invalidate(planID)
	result, err := s.plans.DeletePlan(ctx, planID, s.now())
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPlanDeleted, "plan_id", planID,
		"deleted", result.Deleted, "suspended", result.Suspended)
	return result, nil
}

func (s *service) ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error) {
	return s.plans.ListPlans(ctx, includeSuspended)
}

// GetPlan reads through the plan cache
func (s *service) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	if err := domain.ValidateID("plan_id", planID); err != nil {
		return nil, err
	}
	if plan, ok := s.cache.Get(planID); ok {
		return plan, nil
	}
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(*plan)
	return plan, nil
}

func validatePlanInput(in domain.PlanInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.NewError(domain.ErrorKindInvalidInput, ErrMsgPlanNameEmpty)
	}
	if in.DurationDays <= 0 || in.ListingQuota < 0 || in.FeaturedQuota < 0 || in.PriceCents < 0 {
		return domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgInvalidSubscriptionPlan)
	}
	return nil
}

func planFromInput(in domain.PlanInput) domain.Plan {
	return domain.Plan{
		Name:          strings.TrimSpace(in.Name),
		PriceCents:    in.PriceCents,
		DurationDays:  in.DurationDays,
		ListingQuota:  in.ListingQuota,
		FeaturedQuota: in.FeaturedQuota,
	}
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func resourceLabel(kind domain.ErrorKind) string {
	if kind == domain.ErrorKindInsufficientFeaturedQuota {
		return metrics.ResourceFeatured
	}
	return metrics.ResourceListing
}
