package payment

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
	"github.com/osse101/RentalsLedger_Go/internal/payment/provider"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
	"github.com/osse101/RentalsLedger_Go/internal/testing/memstore"
)

type fixture struct {
	store    *memstore.Store
	subs     subscription.Service
	svc      *service
	rec      *Reconciler
	provider *provider.Fake
	plan     *domain.Plan
	userID   string
	clock    time.Time
	mu       sync.Mutex
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		provider: provider.NewFake(),
		userID:   uuid.NewString(),
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.store.Now = f.now
	f.subs = subscription.NewService(f.store, f.store, subscription.NewPlanCache(16, time.Minute))
	f.svc = NewService(f.store.Payments(), f.subs, f.provider, "KES").(*service)
	f.svc.now = f.now
	f.rec = NewReconciler(f.store.Payments(), f.subs)
	f.rec.now = f.now

	plan, err := f.subs.CreatePlan(context.Background(), domain.PlanInput{
		Name: "Basic", PriceCents: 150000, DurationDays: 30, ListingQuota: 10, FeaturedQuota: 2,
	})
	require.NoError(t, err)
	f.plan = plan
	return f
}

func (f *fixture) request() domain.InitiatePaymentRequest {
	return domain.InitiatePaymentRequest{
		UserID:      f.userID,
		PlanID:      f.plan.ID,
		AmountCents: f.plan.PriceCents,
		PhoneNumber: "0712 345 678",
	}
}

func TestInitiate_CreatesAndStoresReference(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Initiate(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, domain.InitiateOutcomeCreated, res.Outcome)
	assert.Equal(t, domain.PaymentStatusPending, res.Payment.Status)
	assert.True(t, res.Payment.HasExternalRef())
	assert.Equal(t, "254712345678", res.Payment.PhoneNumber)
	assert.Equal(t, "KES", res.Payment.Currency)
	assert.Equal(t, res.Payment.IntentKey, res.Payment.IdempotencyKey)

	calls := f.provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, res.Payment.ID, calls[0].PaymentID)
	assert.Equal(t, "Basic", calls[0].PlanName)
}

func TestInitiate_IdempotentWithinAwaitingWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	f.advance(5 * time.Minute)
	second, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	assert.Equal(t, domain.InitiateOutcomeAwaitingConfirmation, second.Outcome)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Len(t, f.provider.Calls(), 1, "no second provider call")
}

func TestInitiate_ConcurrentRequestsCallProviderOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	f.provider.Hook = func(provider.InitiateRequest) {
		entered <- struct{}{}
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstRes *domain.InitiatePaymentResult
	go func() {
		defer wg.Done()
		res, err := f.svc.Initiate(ctx, f.request())
		assert.NoError(t, err)
		firstRes = res
	}()
	<-entered

	outcomes := make(chan domain.InitiateOutcome, 5)
	var dupes sync.WaitGroup
	for i := 0; i < 5; i++ {
		dupes.Add(1)
		go func() {
			defer dupes.Done()
			res, err := f.svc.Initiate(ctx, f.request())
			if assert.NoError(t, err) {
				outcomes <- res.Outcome
			}
		}()
	}
	dupes.Wait()
	close(outcomes)
	close(release)
	wg.Wait()

	for o := range outcomes {
		assert.Equal(t, domain.InitiateOutcomeInProgress, o)
	}
	assert.Equal(t, domain.InitiateOutcomeCreated, firstRes.Outcome)
	assert.Len(t, f.provider.Calls(), 1)
}

func TestInitiate_ReinitiatesStalePendingOnSameRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	again, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	assert.Equal(t, domain.InitiateOutcomeReinitiated, again.Outcome)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.NotEqual(t, *first.Payment.ExternalRef, *again.Payment.ExternalRef)
	assert.Len(t, f.provider.Calls(), 2)
}

func TestInitiate_ReinitiatesRowStuckWithoutReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request()
	intent := IntentKey(req.UserID, req.PlanID, req.AmountCents, nil)

	stuck := f.store.PutPayment(domain.Payment{
		UserID: f.userID, PlanID: f.plan.ID, AmountCents: f.plan.PriceCents, Currency: "KES",
		Status: domain.PaymentStatusPending, Provider: "fake", IntentKey: intent, IdempotencyKey: intent,
		CreatedAt: f.now(), UpdatedAt: f.now(),
	})

	f.advance(30 * time.Second)
	res, err := f.svc.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeInProgress, res.Outcome)
	assert.Empty(t, f.provider.Calls())

	f.advance(time.Minute)
	res, err = f.svc.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeReinitiated, res.Outcome)
	assert.Equal(t, stuck.ID, res.Payment.ID)
	assert.True(t, res.Payment.HasExternalRef())
}

func TestInitiate_AfterFinishedAttemptCreatesSaltedRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	f.advance(31 * time.Minute)
	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	second, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeCreated, second.Outcome)
	assert.NotEqual(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, first.Payment.IntentKey, second.Payment.IntentKey)
	assert.Contains(t, second.Payment.IdempotencyKey, domain.IdempotencyRetrySeparator)
}

func TestInitiate_AlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	_, err = f.rec.HandleCallback(ctx, "fake", stkBody(*first.Payment.ExternalRef, 0, "QK1"))
	require.NoError(t, err)

	again, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeAlreadyCompleted, again.Outcome)
	assert.Len(t, f.provider.Calls(), 1)
}

func TestInitiate_RepurchaseAfterCompletedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	_, err = f.rec.HandleCallback(ctx, "fake", stkBody(*first.Payment.ExternalRef, 0, "QK1"))
	require.NoError(t, err)

	f.advance(domain.PaymentCompletedWindow + time.Minute)

	again, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateOutcomeCreated, again.Outcome)
	assert.NotEqual(t, first.Payment.ID, again.Payment.ID)
	assert.Equal(t, first.Payment.IntentKey, again.Payment.IntentKey)
	assert.Contains(t, again.Payment.IdempotencyKey, domain.IdempotencyRetrySeparator)
	assert.Len(t, f.provider.Calls(), 2)

	_, err = f.rec.HandleCallback(ctx, "fake", stkBody(*again.Payment.ExternalRef, 0, "QK2"))
	require.NoError(t, err)
	assert.Len(t, f.store.UserSubscriptions(f.userID), 2)
}

func TestInitiate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("amount must match plan price", func(t *testing.T) {
		req := f.request()
		req.AmountCents = 1
		_, err := f.svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("phone number", func(t *testing.T) {
		req := f.request()
		req.PhoneNumber = "call me"
		_, err := f.svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("suspended plan", func(t *testing.T) {
		other, err := f.subs.CreatePlan(ctx, domain.PlanInput{Name: "Old", PriceCents: 100, DurationDays: 30, ListingQuota: 1})
		require.NoError(t, err)
		_, err = f.subs.SuspendPlan(ctx, other.ID)
		require.NoError(t, err)

		req := f.request()
		req.PlanID = other.ID
		req.AmountCents = 100
		_, err = f.svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, domain.ErrPlanSuspended)
	})

	t.Run("target owned by someone else", func(t *testing.T) {
		term := f.store.PutSubscription(domain.Subscription{UserID: uuid.NewString(), IsActive: true})
		req := f.request()
		req.TargetSubscriptionID = &term.ID
		_, err := f.svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, domain.ErrOwnershipViolation)
	})

	assert.Empty(t, f.provider.Calls())
}

func TestInitiate_SecondPendingForSameTargetIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	premium, err := f.subs.CreatePlan(ctx, domain.PlanInput{Name: "Premium", PriceCents: 500000, DurationDays: 30, ListingQuota: 50})
	require.NoError(t, err)
	term := f.store.PutSubscription(domain.Subscription{UserID: f.userID, IsActive: true})

	req := f.request()
	req.TargetSubscriptionID = &term.ID
	_, err = f.svc.Initiate(ctx, req)
	require.NoError(t, err)

	req.PlanID = premium.ID
	req.AmountCents = premium.PriceCents
	_, err = f.svc.Initiate(ctx, req)
	assert.ErrorIs(t, err, domain.ErrPaymentInProgress)

	// New-term purchases are not restricted
	fresh := f.request()
	fresh.PlanID = premium.ID
	fresh.AmountCents = premium.PriceCents
	_, err = f.svc.Initiate(ctx, fresh)
	assert.NoError(t, err)
}

func TestInitiate_ProviderFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("error", func(t *testing.T) {
		f.provider.Err = errors.New("connection reset")
		_, err := f.svc.Initiate(ctx, f.request())
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		f.provider.Err = nil
	})

	t.Run("no reference", func(t *testing.T) {
		f.provider.Reject = true
		f.advance(time.Second)
		_, err := f.svc.Initiate(ctx, f.request())
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		f.provider.Reject = false
	})

	payments, err := f.svc.ListUserPayments(ctx, f.userID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, domain.PaymentStatusFailed, p.Status, "no orphaned pending rows")
		assert.NotNil(t, p.CompletedAt)
		assert.NotEmpty(t, p.FailureReason)
	}
}

func TestRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, res.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending payments cannot be refunded")

	_, err = f.rec.HandleCallback(ctx, "fake", stkBody(*res.Payment.ExternalRef, 0, "QK2"))
	require.NoError(t, err)

	refunded, err := f.svc.Refund(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status)

	_, err = f.svc.Refund(ctx, res.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGetPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetPayment(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.GetPayment(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.svc.Initiate(ctx, f.request())
	require.NoError(t, err)
	got, err := f.svc.GetPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Payment.ExternalRef, got.ExternalRef)
}
