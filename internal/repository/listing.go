package repository

import (
	"context"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Listing defines the interface for the listing fields the ledger owns
type Listing interface {
	BeginTx(ctx context.Context) (ListingTx, error)

	CreateListing(ctx context.Context, listing *domain.Listing) error
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)

	// ClearExpiredBoosts drops the featured flag from listings whose boost window has passed
	ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error)
}

// ListingTx lets a publish charge the ledger and flip the listing atomically
type ListingTx interface {
	SubscriptionTx

	GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error)
	UpdateListing(ctx context.Context, listing *domain.Listing) error
}
