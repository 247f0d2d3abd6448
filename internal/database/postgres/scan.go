package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

func scanPlan(row rowScanner) (*domain.Plan, error) {
	var p domain.Plan
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.ListingQuota, &p.FeaturedQuota,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.ListingQuota, &s.FeaturedQuota, &s.DurationDays,
		&s.StartedAt, &s.ExpiresAt, &s.RemainingListings, &s.RemainingFeatured, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var status string
	err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.AmountCents, &p.Currency, &status, &p.Provider,
		&p.ExternalRef, &p.TransactionCode, &p.IntentKey, &p.IdempotencyKey, &p.TargetSubscriptionID,
		&p.PhoneNumber, &p.ProviderMessage, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.IsFeatured, &l.IsPublished, &l.SlotConsumed,
		&l.FeaturedUntil, &l.PublishedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// collect drains rows through scan, closing them when done
func collect[T any](rows pgx.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// notFoundOr maps pgx.ErrNoRows to a kinded not-found error and wraps everything else
func notFoundOr(err error, notFoundMsg, wrapMsg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewError(domain.ErrorKindNotFound, notFoundMsg)
	}
	return fmt.Errorf("%s: %w", wrapMsg, err)
}
