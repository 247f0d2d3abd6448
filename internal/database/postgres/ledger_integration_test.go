package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/listing"
	"github.com/osse101/RentalsLedger_Go/internal/payment"
	"github.com/osse101/RentalsLedger_Go/internal/payment/provider"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
)

type stack struct {
	plans      *PlanRepository
	subs       subscription.Service
	payments   payment.Service
	reconciler *payment.Reconciler
	listings   listing.Service
	listingRep *ListingRepository
	provider   *provider.Fake
}

func newStack(t *testing.T) *stack {
	pool := requirePool(t)
	s := &stack{
		plans:      NewPlanRepository(pool),
		listingRep: NewListingRepository(pool),
		provider:   provider.NewFake(),
	}
	s.subs = subscription.NewService(NewSubscriptionRepository(pool), s.plans, subscription.NewPlanCache(16, time.Minute))
	paymentRepo := NewPaymentRepository(pool)
	s.payments = payment.NewService(paymentRepo, s.subs, s.provider, "KES")
	s.reconciler = payment.NewReconciler(paymentRepo, s.subs)
	s.listings = listing.NewService(s.listingRep, s.subs, 24*time.Hour)
	return s
}

func (s *stack) plan(t *testing.T, name string, price int64, listings, featured int) *domain.Plan {
	t.Helper()
	p, err := s.subs.CreatePlan(context.Background(), domain.PlanInput{
		Name: name, PriceCents: price, DurationDays: 30, ListingQuota: listings, FeaturedQuota: featured,
	})
	require.NoError(t, err)
	return p
}

func TestPlanRepository_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	basic := s.plan(t, "Basic", 1000, 5, 0)
	_, err := s.plans.GetPlanByName(ctx, "basic")
	assert.NoError(t, err, "names match case-insensitively")

	dup := &domain.Plan{Name: "BASIC", DurationDays: 30, IsActive: true}
	assert.Equal(t, domain.ErrorKindInvalidInput, domain.KindOf(s.plans.CreatePlan(ctx, dup)))

	_, err = s.plans.GetPlan(ctx, uuid.NewString())
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))

	// A plan nobody holds is removed outright
	res, err := s.plans.DeletePlan(ctx, basic.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	// A plan with a live term is only suspended
	pro := s.plan(t, "Pro", 2000, 10, 1)
	_, err = s.subs.Grant(ctx, domain.GrantRequest{UserID: uuid.NewString(), PlanID: pro.ID})
	require.NoError(t, err)
	res, err = s.plans.DeletePlan(ctx, pro.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Suspended)
	assert.False(t, res.Deleted)

	active, err := s.plans.ListPlans(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLedger_StackingAndFIFO_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := uuid.NewString()

	a := s.plan(t, "A", 1000, 5, 0)
	b := s.plan(t, "B", 2000, 10, 0)
	_, err := s.subs.Grant(ctx, domain.GrantRequest{UserID: user, PlanID: a.ID})
	require.NoError(t, err)
	_, err = s.subs.Grant(ctx, domain.GrantRequest{UserID: user, PlanID: b.ID})
	require.NoError(t, err)

	summary, err := s.subs.GetQuotaSummary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 15, summary.RemainingListings)
	assert.Len(t, summary.ActiveTerms, 2)

	// 20 concurrent publishes against 15 slots
	ids := make([]string, 20)
	for i := range ids {
		l, err := s.listings.Create(ctx, domain.CreateListingRequest{OwnerID: user, Title: "Flat"})
		require.NoError(t, err)
		ids[i] = l.ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, deny int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.listings.Publish(ctx, id, user)
			mu.Lock()
			defer mu.Unlock()
			var qe *domain.QuotaError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &qe):
				deny++
			default:
				t.Errorf("unexpected publish error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 15, ok)
	assert.Equal(t, 5, deny)

	terms, err := s.subs.ListUserSubscriptions(ctx, user)
	require.NoError(t, err)
	for _, term := range terms {
		assert.Zero(t, term.RemainingListings)
		assert.GreaterOrEqual(t, term.RemainingFeatured, 0)
	}
}

func TestPayment_InitiateAndReconcile_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := uuid.NewString()
	plan := s.plan(t, "Standard", 250000, 10, 2)

	req := domain.InitiatePaymentRequest{UserID: user, PlanID: plan.ID, AmountCents: plan.PriceCents, PhoneNumber: "0712345678"}
	first, err := s.payments.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeCreated, first.Outcome)
	require.True(t, first.Payment.HasExternalRef())

	again, err := s.payments.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeAwaitingConfirmation, again.Outcome)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.Len(t, s.provider.Calls(), 1)

	body := []byte(`{"Body":{"stkCallback":{"CheckoutRequestID":"` + *first.Payment.ExternalRef +
		`","ResultCode":0,"ResultDesc":"ok","CallbackMetadata":{"Item":[{"Name":"MpesaReceiptNumber","Value":"QK12"}]}}}}`)

	var wg sync.WaitGroup
	outcomes := make(chan domain.ReconcileOutcome, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.reconciler.HandleCallback(ctx, s.provider.Name(), body)
			assert.NoError(t, err)
			outcomes <- out
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for out := range outcomes {
		if out == domain.ReconcileOutcomeApplied {
			applied++
		} else {
			assert.Equal(t, domain.ReconcileOutcomeDuplicate, out)
		}
	}
	assert.Equal(t, 1, applied)

	paid, err := s.payments.GetPayment(ctx, first.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, paid.Status)
	require.NotNil(t, paid.TransactionCode)
	assert.Equal(t, "QK12", *paid.TransactionCode)

	terms, err := s.subs.ListUserSubscriptions(ctx, user)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, 10, terms[0].RemainingListings)

	done, err := s.payments.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeAlreadyCompleted, done.Outcome)
}

func TestPlanDelete_PendingPaymentSuspends_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	plan := s.plan(t, "Weekly", 50000, 3, 0)

	pending, err := s.payments.Initiate(ctx, domain.InitiatePaymentRequest{
		UserID: uuid.NewString(), PlanID: plan.ID, AmountCents: plan.PriceCents, PhoneNumber: "0712345678",
	})
	require.NoError(t, err)

	res, err := s.subs.DeletePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, res.Suspended)
	assert.False(t, res.Deleted)

	body := []byte(`{"Body":{"stkCallback":{"CheckoutRequestID":"` + *pending.Payment.ExternalRef + `","ResultCode":0}}}`)
	out, err := s.reconciler.HandleCallback(ctx, s.provider.Name(), body)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileOutcomeApplied, out)

	terms, err := s.subs.ListUserSubscriptions(ctx, pending.Payment.UserID)
	require.NoError(t, err)
	assert.Len(t, terms, 1)
}

func TestSweep_LastTermLapse_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := uuid.NewString()

	short := s.plan(t, "Short", 100, 2, 1)
	long := s.plan(t, "Long", 100, 2, 0)
	_, err := s.subs.Grant(ctx, domain.GrantRequest{UserID: user, PlanID: short.ID})
	require.NoError(t, err)
	second, err := s.subs.Grant(ctx, domain.GrantRequest{UserID: user, PlanID: long.ID})
	require.NoError(t, err)

	l, err := s.listings.Create(ctx, domain.CreateListingRequest{OwnerID: user, Title: "Loft", IsFeatured: true})
	require.NoError(t, err)
	_, err = s.listings.Publish(ctx, l.ID, user)
	require.NoError(t, err)

	// Lapse the featured-carrying term; the other keeps the listing online
	_, err = testPool.Exec(ctx, `UPDATE subscriptions SET expires_at = NOW() - INTERVAL '1 minute' WHERE plan_id = $1`, short.ID)
	require.NoError(t, err)
	res, err := s.subs.DeactivateExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.DeactivatedTerms)
	assert.Zero(t, res.ListingsUnpublished)

	got, err := s.listingRep.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)

	_, err = s.subs.Deactivate(ctx, second.Subscription.ID)
	require.NoError(t, err)

	got, err = s.listingRep.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.False(t, got.SlotConsumed)
}

func TestListingRepository_ClearExpiredBoosts_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	expired := &domain.Listing{OwnerID: uuid.NewString(), Title: "Old", IsFeatured: true}
	live := &domain.Listing{OwnerID: uuid.NewString(), Title: "New", IsFeatured: true}
	require.NoError(t, s.listingRep.CreateListing(ctx, expired))
	require.NoError(t, s.listingRep.CreateListing(ctx, live))
	_, err := testPool.Exec(ctx, `UPDATE listings SET featured_until = NOW() - INTERVAL '1 hour' WHERE id = $1`, expired.ID)
	require.NoError(t, err)
	_, err = testPool.Exec(ctx, `UPDATE listings SET featured_until = NOW() + INTERVAL '1 hour' WHERE id = $1`, live.ID)
	require.NoError(t, err)

	n, err := s.listingRep.ClearExpiredBoosts(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.listingRep.GetListing(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFeatured)
	got, err = s.listingRep.GetListing(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
}
