package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// ListingRepository implements repository.Listing for PostgreSQL
type ListingRepository struct {
	db *pgxpool.Pool
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{db: db}
}

// BeginTx starts a ledger transaction with listing access
func (r *ListingRepository) BeginTx(ctx context.Context) (repository.ListingTx, error) {
	return beginLedgerTx(ctx, r.db)
}

// CreateListing inserts a draft listing
func (r *ListingRepository) CreateListing(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (owner_id, title, is_featured)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, l.OwnerID, l.Title, l.IsFeatured).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInsertListing, err)
	}
	return nil
}

// GetListing retrieves one listing by id
func (r *ListingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	return getListing(ctx, r.db, listingID, false)
}

// ClearExpiredBoosts drops the featured flag once the boost window has passed
func (r *ListingRepository) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE listings
		SET is_featured = FALSE, featured_until = NULL, updated_at = NOW()
		WHERE is_featured AND featured_until IS NOT NULL AND featured_until <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgClearBoosts, err)
	}
	return tag.RowsAffected(), nil
}

func getListing(ctx context.Context, q querier, listingID string, forUpdate bool) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanListing(q.QueryRow(ctx, query, listingID))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgListingNotFound, ErrMsgQueryListings)
	}
	return l, nil
}
