package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

func TestCanTransition(t *testing.T) {
	all := []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusSuccess,
		domain.PaymentStatusFailed,
		domain.PaymentStatusExpired,
		domain.PaymentStatusRefunded,
	}
	legal := map[[2]domain.PaymentStatus]bool{
		{domain.PaymentStatusPending, domain.PaymentStatusSuccess}:  true,
		{domain.PaymentStatusPending, domain.PaymentStatusFailed}:   true,
		{domain.PaymentStatusPending, domain.PaymentStatusExpired}:  true,
		{domain.PaymentStatusSuccess, domain.PaymentStatusRefunded}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]domain.PaymentStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_StampsCompletionOnce(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Payment{Status: domain.PaymentStatusPending}

	require.NoError(t, transition(p, domain.PaymentStatusSuccess, now))
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, now, *p.CompletedAt)

	later := now.Add(time.Hour)
	require.NoError(t, transition(p, domain.PaymentStatusRefunded, later))
	assert.Equal(t, now, *p.CompletedAt)
	assert.Equal(t, later, p.UpdatedAt)

	err := transition(p, domain.PaymentStatusPending, later)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
