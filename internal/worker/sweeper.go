package worker

import (
	"context"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
)

// SubscriptionSweeper deactivates lapsed terms. subscription.Service satisfies it.
type SubscriptionSweeper interface {
	DeactivateExpired(ctx context.Context) (*domain.SweepResult, error)
}

// PaymentSweeper expires payments that never got a callback. payment.Service satisfies it.
type PaymentSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// BoostSweeper ends featured boosts. listing.Service satisfies it.
type BoostSweeper interface {
	SweepExpiredBoosts(ctx context.Context) (int64, error)
}

// Sweeper holds the periodic maintenance tasks of the ledger
type Sweeper struct {
	subscriptions SubscriptionSweeper
	payments      PaymentSweeper
	boosts        BoostSweeper
}

// NewSweeper creates the maintenance task set
func NewSweeper(subscriptions SubscriptionSweeper, payments PaymentSweeper, boosts BoostSweeper) *Sweeper {
	return &Sweeper{
		subscriptions: subscriptions,
		payments:      payments,
		boosts:        boosts,
	}
}

// DeactivateExpiredSubscriptions deactivates lapsed terms, then unpublishes listings of
// users left without any live term
func (s *Sweeper) DeactivateExpiredSubscriptions(ctx context.Context) error {
	res, err := s.subscriptions.DeactivateExpired(ctx)
	if res != nil {
		metrics.SweepAffected.WithLabelValues(TaskDeactivateExpiredTerms).Add(float64(res.DeactivatedTerms))
	}
	return err
}

// ExpireStalePayments moves abandoned PENDING payments to EXPIRED
func (s *Sweeper) ExpireStalePayments(ctx context.Context) error {
	n, err := s.payments.ExpireStale(ctx)
	if err != nil {
		return err
	}
	s.record(ctx, TaskExpireStalePayments, n)
	return nil
}

// SweepExpiredBoosts clears the featured flag of listings past their boost window
func (s *Sweeper) SweepExpiredBoosts(ctx context.Context) error {
	n, err := s.boosts.SweepExpiredBoosts(ctx)
	if err != nil {
		return err
	}
	s.record(ctx, TaskSweepExpiredBoosts, n)
	return nil
}

// Tasks returns the sweeps keyed by task name
func (s *Sweeper) Tasks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		TaskExpireStalePayments:    s.ExpireStalePayments,
		TaskDeactivateExpiredTerms: s.DeactivateExpiredSubscriptions,
		TaskSweepExpiredBoosts:     s.SweepExpiredBoosts,
	}
}

func (s *Sweeper) record(ctx context.Context, task string, n int64) {
	metrics.SweepAffected.WithLabelValues(task).Add(float64(n))
	if n > 0 {
		logger.FromContext(ctx).Info(LogMsgSweepCompleted, "task", task, "affected", n)
	}
}
