package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/concurrency"
	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// Reconciler turns provider callbacks into payment transitions. Each callback changes
// subscription state at most once no matter how often it is delivered.
type Reconciler struct {
	repo   repository.Payment
	ledger Ledger
	locks  *concurrency.LockManager
	now    func() time.Time
}

// NewReconciler creates a new callback reconciler
func NewReconciler(repo repository.Payment, ledger Ledger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		ledger: ledger,
		locks:  concurrency.NewLockManager(),
		now:    time.Now,
	}
}

// HandleCallback parses a raw callback body and reconciles it
func (r *Reconciler) HandleCallback(ctx context.Context, providerName string, body []byte) (domain.ReconcileOutcome, error) {
	cb, ok := ParseCallback(body)
	if !ok {
		logger.FromContext(ctx).Warn(LogMsgCallbackUnparseable, "provider", providerName, "bytes", len(body))
		return r.record(domain.ReconcileOutcomeUnparseable), nil
	}
	cb.Provider = providerName
	return r.Reconcile(ctx, cb)
}

// Reconcile applies one parsed callback
func (r *Reconciler) Reconcile(ctx context.Context, cb domain.Callback) (domain.ReconcileOutcome, error) {
	log := logger.FromContext(ctx).With("provider", cb.Provider, "external_ref", cb.Reference)

	// Near-simultaneous duplicates queue here instead of on the row lock
	unlock := r.locks.Lock(cb.Provider + ":" + cb.Reference)
	defer unlock()

	tx, err := r.repo.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	payment, err := tx.GetPaymentByExternalRefForUpdate(ctx, cb.Provider, cb.Reference)
	if err != nil {
		if domain.KindOf(err) == domain.ErrorKindNotFound {
			log.Warn(LogMsgCallbackUnknown, "result_code", cb.ResultCode)
			return r.record(domain.ReconcileOutcomeUnknownPayment), nil
		}
		return "", fmt.Errorf("%s: %w", ErrMsgLoadPayment, err)
	}
	log = log.With("payment_id", payment.ID, "user_id", payment.UserID)

	if payment.Status.IsTerminal() {
		if payment.Status == domain.PaymentStatusExpired && cb.Result == domain.CallbackResultSuccess {
			log.Error(LogMsgLateSuccess, "transaction_code", cb.TransactionCode, "amount_cents", payment.AmountCents)
			metrics.PaymentsManualReview.WithLabelValues(ReviewLateSuccess).Inc()
			return r.record(domain.ReconcileOutcomeLateSuccess), nil
		}
		log.Info(LogMsgCallbackDuplicate, "status", payment.Status, "result", cb.Result)
		return r.record(domain.ReconcileOutcomeDuplicate), nil
	}

	now := r.now()
	var outcome domain.ReconcileOutcome
	switch cb.Result {
	case domain.CallbackResultSuccess:
		outcome, err = r.succeed(ctx, tx, payment, cb, now)
		if err != nil {
			return "", err
		}
	case domain.CallbackResultFailed:
		payment.ProviderMessage = cb.ResultDesc
		payment.FailureReason = domain.FailureReasonCallbackFailed
		if err := transition(payment, domain.PaymentStatusFailed, now); err != nil {
			return "", err
		}
		log.Info(LogMsgPaymentFailed, "result_code", cb.ResultCode, "result_desc", cb.ResultDesc)
		outcome = domain.ReconcileOutcomeFailedRecorded
	default:
		log.Warn(LogMsgCallbackNoResult, "result_code", cb.ResultCode)
		return r.record(domain.ReconcileOutcomeUnparseable), nil
	}

	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgSavePayment, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	return r.record(outcome), nil
}

// succeed moves the payment to SUCCESS and applies its plan in the same transaction.
// Activations the ledger refuses are recorded for manual review instead of failing the callback.
func (r *Reconciler) succeed(ctx context.Context, tx repository.PaymentTx, payment *domain.Payment, cb domain.Callback, now time.Time) (domain.ReconcileOutcome, error) {
	log := logger.FromContext(ctx).With("payment_id", payment.ID, "user_id", payment.UserID)

	if err := transition(payment, domain.PaymentStatusSuccess, now); err != nil {
		return "", err
	}
	if cb.TransactionCode != "" {
		code := cb.TransactionCode
		payment.TransactionCode = &code
	}
	payment.ProviderMessage = cb.ResultDesc

	plan, err := r.ledger.GetPlan(ctx, payment.PlanID)
	if err == nil {
		_, err = r.ledger.ApplyPlanTx(ctx, tx, domain.ActivationRequest{
			UserID:               payment.UserID,
			Plan:                 *plan,
			TargetSubscriptionID: payment.TargetSubscriptionID,
			Source:               domain.ActivationSourcePayment,
			Now:                  now,
		})
	}

	switch kind := domain.KindOf(err); {
	case err == nil:
		log.Info(LogMsgPaymentSucceeded, "plan_id", payment.PlanID, "transaction_code", cb.TransactionCode)
		return domain.ReconcileOutcomeApplied, nil
	case kind == domain.ErrorKindOwnershipViolation:
		payment.FailureReason = domain.FailureReasonOwnership
		metrics.PaymentsManualReview.WithLabelValues(ReviewOwnership).Inc()
	case kind == domain.ErrorKindNotFound || kind == domain.ErrorKindInvalidInput:
		payment.FailureReason = domain.FailureReasonActivation
		metrics.PaymentsManualReview.WithLabelValues(ReviewActivation).Inc()
	default:
		return "", err
	}
	log.Error(LogMsgActivationRejected, "error", err, "target_subscription_id", payment.TargetSubscriptionID)
	return domain.ReconcileOutcomeActivationError, nil
}

func (r *Reconciler) record(outcome domain.ReconcileOutcome) domain.ReconcileOutcome {
	metrics.CallbacksReceived.WithLabelValues(string(outcome)).Inc()
	return outcome
}
