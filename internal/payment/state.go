package payment

import (
	"fmt"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
)

// transitions is the complete set of legal status changes. Terminal states never revert;
// REFUNDED is reachable only by an admin from SUCCESS.
var transitions = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending: {domain.PaymentStatusSuccess, domain.PaymentStatusFailed, domain.PaymentStatusExpired},
	domain.PaymentStatusSuccess: {domain.PaymentStatusRefunded},
}

// CanTransition reports whether a payment may move from one status to another
func CanTransition(from, to domain.PaymentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transition moves p to status `to`, stamping completion on entry into a terminal state
func transition(p *domain.Payment, to domain.PaymentStatus, now time.Time) error {
	from := p.Status
	if !CanTransition(from, to) {
		return domain.NewError(domain.ErrorKindInvalidTransition,
			fmt.Sprintf(ErrMsgTransitionFmt, domain.ErrMsgInvalidTransition, from, to))
	}
	p.Status = to
	p.UpdatedAt = now
	if to.IsTerminal() && p.CompletedAt == nil {
		completed := now
		p.CompletedAt = &completed
	}
	metrics.PaymentTransitions.WithLabelValues(string(from), string(to)).Inc()
	return nil
}
