package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/payment/provider"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// Ledger is the part of the subscription service payments need
type Ledger interface {
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
	ApplyPlanTx(ctx context.Context, tx repository.SubscriptionTx, req domain.ActivationRequest) (*domain.ActivationResult, error)
}

// Service defines the interface for payment operations
type Service interface {
	Initiate(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.InitiatePaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error)
	ExpireStale(ctx context.Context) (int64, error)
	Refund(ctx context.Context, paymentID string) (*domain.Payment, error)
}

type service struct {
	repo      repository.Payment
	ledger    Ledger
	initiator provider.Initiator
	currency  string
	now       func() time.Time
}

// NewService creates a new payment service
func NewService(repo repository.Payment, ledger Ledger, initiator provider.Initiator, currency string) Service {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &service{
		repo:      repo,
		ledger:    ledger,
		initiator: initiator,
		currency:  currency,
		now:       time.Now,
	}
}

// decision is what initiation decided under the intent lock
type decision struct {
	payment domain.Payment
	outcome domain.InitiateOutcome
	call    bool
}

// Initiate creates or reuses a payment for a purchase intent and, when needed, asks the
// provider to prompt the payer. Repeated requests for the same intent never produce a
// second concurrent provider call.
func (s *service) Initiate(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.InitiatePaymentResult, error) {
	log := logger.FromContext(ctx)

	if err := domain.ValidateID("user_id", req.UserID); err != nil {
		return nil, err
	}
	if req.TargetSubscriptionID != nil {
		if *req.TargetSubscriptionID == "" {
			req.TargetSubscriptionID = nil
		} else if err := domain.ValidateID("target_subscription_id", *req.TargetSubscriptionID); err != nil {
			return nil, err
		}
	}
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	plan, err := s.ledger.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanSuspended
	}
	if req.AmountCents != plan.PriceCents {
		return nil, domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgAmountMismatch)
	}

	intentKey := IntentKey(req.UserID, req.PlanID, req.AmountCents, req.TargetSubscriptionID)
	d, err := s.decide(ctx, req, phone, intentKey)
	if err != nil {
		return nil, err
	}
	metrics.PaymentsInitiated.WithLabelValues(string(d.outcome)).Inc()

	if !d.call {
		log.Info(LogMsgPaymentDeduplicated, "payment_id", d.payment.ID, "outcome", d.outcome)
		return &domain.InitiatePaymentResult{Payment: d.payment, Outcome: d.outcome, Message: outcomeMessage(d.outcome)}, nil
	}

	// The payer may already be looking at a prompt, so the provider call and its
	// bookkeeping must finish even if the client goes away.
	detached := context.WithoutCancel(ctx)
	result, callErr := s.initiator.Initiate(detached, provider.InitiateRequest{
		PaymentID:      d.payment.ID,
		IdempotencyKey: d.payment.IdempotencyKey,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		AmountCents:    d.payment.AmountCents,
		Currency:       d.payment.Currency,
		PhoneNumber:    d.payment.PhoneNumber,
	})

	payment, err := s.finalize(detached, d.payment.ID, result, callErr)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentStatusFailed {
		return nil, domain.WrapError(domain.ErrorKindProviderFailure, domain.ErrMsgProviderFailure,
			errors.New(payment.ProviderMessage))
	}
	return &domain.InitiatePaymentResult{Payment: *payment, Outcome: d.outcome, Message: outcomeMessage(d.outcome)}, nil
}

// decide runs under the intent lock and either reuses the latest attempt or creates a row
func (s *service) decide(ctx context.Context, req domain.InitiatePaymentRequest, phone, intentKey string) (*decision, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.LockIntent(ctx, intentKey); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLockIntent, err)
	}

	if req.TargetSubscriptionID != nil {
		term, err := tx.GetSubscriptionForUpdate(ctx, *req.TargetSubscriptionID)
		if err != nil {
			return nil, err
		}
		if term.UserID != req.UserID {
			return nil, domain.ErrOwnershipViolation
		}
	}

	latest, err := tx.GetLatestPaymentByIntent(ctx, intentKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadPayment, err)
	}

	idempotencyKey := intentKey
	if latest != nil {
		switch latest.Status {
		case domain.PaymentStatusSuccess:
			if now.Sub(latest.UpdatedAt) <= domain.PaymentCompletedWindow {
				return &decision{payment: *latest, outcome: domain.InitiateOutcomeAlreadyCompleted}, nil
			}
			idempotencyKey = retryIdempotencyKey(intentKey, now)

		case domain.PaymentStatusPending:
			age := now.Sub(latest.UpdatedAt)
			if latest.HasExternalRef() && age <= domain.PaymentAwaitingWindow {
				return &decision{payment: *latest, outcome: domain.InitiateOutcomeAwaitingConfirmation}, nil
			}
			if !latest.HasExternalRef() && age <= domain.PaymentInFlightWindow {
				return &decision{payment: *latest, outcome: domain.InitiateOutcomeInProgress}, nil
			}

			// Claim the stale row before releasing the lock so a concurrent request sees it in flight
			latest.UpdatedAt = now
			latest.PhoneNumber = phone
			latest.ProviderMessage = ""
			if err := tx.UpdatePayment(ctx, latest); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrMsgSavePayment, err)
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
			}
			log.Info(LogMsgPaymentReinitiating, "payment_id", latest.ID, "age", age)
			return &decision{payment: *latest, outcome: domain.InitiateOutcomeReinitiated, call: true}, nil

		default:
			idempotencyKey = retryIdempotencyKey(intentKey, now)
		}
	}

	if req.TargetSubscriptionID != nil {
		other, err := tx.GetPendingPaymentForTarget(ctx, req.UserID, *req.TargetSubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgLoadPayment, err)
		}
		if other != nil && other.IntentKey != intentKey {
			return nil, domain.ErrPaymentInProgress
		}
	}

	payment := domain.Payment{
		UserID:               req.UserID,
		PlanID:               req.PlanID,
		AmountCents:          req.AmountCents,
		Currency:             s.currency,
		Status:               domain.PaymentStatusPending,
		Provider:             s.initiator.Name(),
		IntentKey:            intentKey,
		IdempotencyKey:       idempotencyKey,
		TargetSubscriptionID: req.TargetSubscriptionID,
		PhoneNumber:          phone,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := tx.CreatePayment(ctx, &payment); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCreatePayment, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}

	log.Info(LogMsgPaymentCreated, "payment_id", payment.ID, "user_id", payment.UserID,
		"plan_id", payment.PlanID, "amount_cents", payment.AmountCents, "retry", latest != nil)
	return &decision{payment: payment, outcome: domain.InitiateOutcomeCreated, call: true}, nil
}

// finalize records the provider's answer on a still-pending row
func (s *service) finalize(ctx context.Context, paymentID string, result provider.InitiateResult, callErr error) (*domain.Payment, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		log.Warn(LogMsgFinalizeSkipped, "payment_id", paymentID, "status", payment.Status)
		return payment, nil
	}

	switch {
	case callErr != nil:
		log.Error(LogMsgProviderCallFailed, "payment_id", paymentID, "error", callErr)
		payment.ProviderMessage = callErr.Error()
		payment.FailureReason = domain.FailureReasonProviderRejected
		if err := transition(payment, domain.PaymentStatusFailed, now); err != nil {
			return nil, err
		}
	case result.ProviderReference == "":
		log.Warn(LogMsgProviderNoReference, "payment_id", paymentID, "message", result.ProviderMessage)
		payment.ProviderMessage = result.ProviderMessage
		payment.FailureReason = domain.FailureReasonNoReference
		if err := transition(payment, domain.PaymentStatusFailed, now); err != nil {
			return nil, err
		}
	default:
		ref := result.ProviderReference
		payment.ExternalRef = &ref
		payment.ProviderMessage = result.ProviderMessage
		payment.UpdatedAt = now
		log.Info(LogMsgPaymentAcknowledged, "payment_id", paymentID, "external_ref", ref)
	}

	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSavePayment, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	return payment, nil
}

func (s *service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if err := domain.ValidateID("payment_id", paymentID); err != nil {
		return nil, err
	}
	return s.repo.GetPayment(ctx, paymentID)
}

func (s *service) ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.ListUserPayments(ctx, userID, limit)
}

// ExpireStale moves PENDING payments past the expiry age to EXPIRED, acknowledged or not
func (s *service) ExpireStale(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.repo.ExpirePending(ctx, now.Add(-domain.PaymentExpiryAge), now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgExpirePayments, err)
	}
	if n > 0 {
		metrics.PaymentTransitions.WithLabelValues(string(domain.PaymentStatusPending), string(domain.PaymentStatusExpired)).Add(float64(n))
		logger.FromContext(ctx).Info(LogMsgPaymentsExpired, "count", n)
	}
	return n, nil
}

// Refund marks a successful payment refunded. Quota already granted stays with the term;
// admins deactivate the term separately when the refund should also revoke access.
func (s *service) Refund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if err := domain.ValidateID("payment_id", paymentID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := transition(payment, domain.PaymentStatusRefunded, s.now()); err != nil {
		return nil, err
	}
	payment.FailureReason = domain.FailureReasonRefunded
	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSavePayment, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}

	logger.FromContext(ctx).Info(LogMsgPaymentRefunded, "payment_id", payment.ID, "user_id", payment.UserID)
	return payment, nil
}

func outcomeMessage(o domain.InitiateOutcome) string {
	switch o {
	case domain.InitiateOutcomeCreated:
		return MsgCreated
	case domain.InitiateOutcomeReinitiated:
		return MsgReinitiated
	case domain.InitiateOutcomeAwaitingConfirmation:
		return MsgAwaitingConfirmation
	case domain.InitiateOutcomeInProgress:
		return MsgInProgress
	case domain.InitiateOutcomeAlreadyCompleted:
		return MsgAlreadyCompleted
	}
	return ""
}
