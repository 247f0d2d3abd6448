package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// serve routes one request through a chi router so URL params resolve
func serve(method, pattern string, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// MockSubscriptionService mocks subscription.Service
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) ApplyPlanTx(ctx context.Context, tx repository.SubscriptionTx, req domain.ActivationRequest) (*domain.ActivationResult, error) {
	args := m.Called(ctx, tx, req)
	return activation(args)
}

func (m *MockSubscriptionService) ConsumeTx(ctx context.Context, tx repository.SubscriptionTx, userID string, need domain.QuotaRequest) (*domain.Deduction, error) {
	args := m.Called(ctx, tx, userID, need)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deduction), args.Error(1)
}

func (m *MockSubscriptionService) GetQuotaSummary(ctx context.Context, userID string) (*domain.QuotaSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuotaSummary), args.Error(1)
}

func (m *MockSubscriptionService) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Create(ctx context.Context, userID, planID string) (*domain.ActivationResult, error) {
	return activation(m.Called(ctx, userID, planID))
}

func (m *MockSubscriptionService) Grant(ctx context.Context, req domain.GrantRequest) (*domain.ActivationResult, error) {
	return activation(m.Called(ctx, req))
}

func (m *MockSubscriptionService) Extend(ctx context.Context, subscriptionID string, planID *string) (*domain.ActivationResult, error) {
	return activation(m.Called(ctx, subscriptionID, planID))
}

func (m *MockSubscriptionService) ResetUsage(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return subscriptionResult(m.Called(ctx, subscriptionID))
}

func (m *MockSubscriptionService) Deactivate(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return subscriptionResult(m.Called(ctx, subscriptionID))
}

func (m *MockSubscriptionService) DeactivateExpired(ctx context.Context) (*domain.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

func (m *MockSubscriptionService) CreatePlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error) {
	return planResult(m.Called(ctx, in))
}

func (m *MockSubscriptionService) UpdatePlan(ctx context.Context, planID string, in domain.PlanInput) (*domain.Plan, error) {
	return planResult(m.Called(ctx, planID, in))
}

func (m *MockSubscriptionService) SuspendPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	return planResult(m.Called(ctx, planID))
}

func (m *MockSubscriptionService) ResumePlan(ctx context.Context, planID string) (*domain.Plan, error) {
	return planResult(m.Called(ctx, planID))
}

func (m *MockSubscriptionService) DeletePlan(ctx context.Context, planID string) (*domain.PlanDeleteResult, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanDeleteResult), args.Error(1)
}

func (m *MockSubscriptionService) ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error) {
	args := m.Called(ctx, includeSuspended)
	return args.Get(0).([]domain.Plan), args.Error(1)
}

func (m *MockSubscriptionService) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	return planResult(m.Called(ctx, planID))
}

func activation(args mock.Arguments) (*domain.ActivationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivationResult), args.Error(1)
}

func subscriptionResult(args mock.Arguments) (*domain.Subscription, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func planResult(args mock.Arguments) (*domain.Plan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}

// MockPaymentService mocks payment.Service
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.InitiatePaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InitiatePaymentResult), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return paymentResult(m.Called(ctx, paymentID))
}

func (m *MockPaymentService) ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentService) Refund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return paymentResult(m.Called(ctx, paymentID))
}

func paymentResult(args mock.Arguments) (*domain.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// MockListingService mocks listing.Service
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Create(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	return listingResult(m.Called(ctx, req))
}

func (m *MockListingService) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	return listingResult(m.Called(ctx, listingID))
}

func (m *MockListingService) Publish(ctx context.Context, listingID, userID string) (*domain.PublishResult, error) {
	args := m.Called(ctx, listingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublishResult), args.Error(1)
}

func (m *MockListingService) Unpublish(ctx context.Context, listingID, userID string) (*domain.Listing, error) {
	return listingResult(m.Called(ctx, listingID, userID))
}

func (m *MockListingService) SweepExpiredBoosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func listingResult(args mock.Arguments) (*domain.Listing, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

// MockReconciler mocks worker.CallbackReconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) HandleCallback(ctx context.Context, providerName string, body []byte) (domain.ReconcileOutcome, error) {
	args := m.Called(ctx, providerName, body)
	return args.Get(0).(domain.ReconcileOutcome), args.Error(1)
}

// recordingQueue captures enqueued jobs; full makes it refuse everything
type recordingQueue struct {
	jobs []worker.Job
	full bool
}

func (q *recordingQueue) Enqueue(job worker.Job) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

// MockTaskRunner mocks TaskRunner
type MockTaskRunner struct {
	mock.Mock
}

func (m *MockTaskRunner) RunNow(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockTaskRunner) Names() []string {
	return m.Called().Get(0).([]string)
}
