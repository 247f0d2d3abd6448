package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// Ledger is the quota side of a publish. subscription.Service satisfies it.
type Ledger interface {
	ConsumeTx(ctx context.Context, tx repository.SubscriptionTx, userID string, need domain.QuotaRequest) (*domain.Deduction, error)
}

// Service defines the publish boundary of the marketplace
type Service interface {
	Create(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	Publish(ctx context.Context, listingID, userID string) (*domain.PublishResult, error)
	Unpublish(ctx context.Context, listingID, userID string) (*domain.Listing, error)
	SweepExpiredBoosts(ctx context.Context) (int64, error)
}

type service struct {
	repo   repository.Listing
	ledger Ledger
	boost  time.Duration
	now    func() time.Time
}

// NewService creates a new listing service. A non-positive boost uses DefaultBoostDuration.
func NewService(repo repository.Listing, ledger Ledger, boost time.Duration) Service {
	if boost <= 0 {
		boost = DefaultBoostDuration
	}
	return &service{
		repo:   repo,
		ledger: ledger,
		boost:  boost,
		now:    time.Now,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	if err := domain.ValidateID("owner_id", req.OwnerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrorKindInvalidInput, ErrMsgBlankTitle)
	}

	l := &domain.Listing{OwnerID: req.OwnerID, Title: title, IsFeatured: req.IsFeatured}
	if err := s.repo.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCreateListing, err)
	}
	logger.FromContext(ctx).Info(LogMsgListingCreated, "listing_id", l.ID, "owner_id", l.OwnerID, "featured", l.IsFeatured)
	return l, nil
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	if err := domain.ValidateID("listing_id", listingID); err != nil {
		return nil, err
	}
	return s.repo.GetListing(ctx, listingID)
}

// Publish takes a listing live. The first publish charges one listing slot, plus one featured
// slot for featured listings, in the same transaction that flips the listing. Later publishes
// of the same listing are free.
func (s *service) Publish(ctx context.Context, listingID, userID string) (*domain.PublishResult, error) {
	log := logger.FromContext(ctx)
	if err := validateIDs(listingID, userID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	// The user lock comes first so a publish never waits on a listing row while holding it
	if err := tx.LockUser(ctx, userID); err != nil {
		return nil, err
	}
	l, err := s.ownedListing(ctx, tx, listingID, userID)
	if err != nil {
		return nil, err
	}
	if l.IsPublished {
		log.Debug(LogMsgAlreadyPublished, "listing_id", l.ID)
		return &domain.PublishResult{Listing: *l}, nil
	}
	if strings.TrimSpace(l.Title) == "" {
		return nil, domain.NewError(domain.ErrorKindListingNotPublishable,
			fmt.Sprintf("%s: %s", domain.ErrMsgListingNotPublishable, ErrMsgBlankTitle))
	}

	now := s.now()
	result := &domain.PublishResult{}
	if !l.SlotConsumed {
		deduction, err := s.ledger.ConsumeTx(ctx, tx, userID, l.QuotaNeed())
		if err != nil {
			return nil, err
		}
		result.Charged = true
		result.Deduction = deduction
		l.SlotConsumed = true
		if l.IsFeatured {
			until := now.Add(s.boost)
			l.FeaturedUntil = &until
		}
	}

	l.IsPublished = true
	l.PublishedAt = &now
	l.UpdatedAt = now
	if err := tx.UpdateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSaveListing, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}

	metrics.ListingsPublished.WithLabelValues(strconv.FormatBool(result.Charged)).Inc()
	log.Info(LogMsgListingPublished, "listing_id", l.ID, "user_id", userID, "charged", result.Charged, "featured", l.IsFeatured)
	result.Listing = *l
	return result, nil
}

// Unpublish takes a listing offline. The slot stays consumed so publishing again is free.
func (s *service) Unpublish(ctx context.Context, listingID, userID string) (*domain.Listing, error) {
	if err := validateIDs(listingID, userID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	l, err := s.ownedListing(ctx, tx, listingID, userID)
	if err != nil {
		return nil, err
	}
	if !l.IsPublished {
		return l, nil
	}

	l.IsPublished = false
	l.UpdatedAt = s.now()
	if err := tx.UpdateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSaveListing, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitTx, err)
	}
	logger.FromContext(ctx).Info(LogMsgListingUnpublished, "listing_id", l.ID, "user_id", userID)
	return l, nil
}

// SweepExpiredBoosts drops the featured flag from listings whose boost window has passed
func (s *service) SweepExpiredBoosts(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearExpiredBoosts(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromContext(ctx).Info(LogMsgBoostsCleared, "count", n)
	}
	return n, nil
}

func (s *service) ownedListing(ctx context.Context, tx repository.ListingTx, listingID, userID string) (*domain.Listing, error) {
	l, err := tx.GetListingForUpdate(ctx, listingID)
	if err != nil {
		if domain.KindOf(err) == domain.ErrorKindNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadListing, err)
	}
	if l.OwnerID != userID {
		return nil, domain.ErrOwnershipViolation
	}
	return l, nil
}

func validateIDs(listingID, userID string) error {
	if err := domain.ValidateID("listing_id", listingID); err != nil {
		return err
	}
	return domain.ValidateID("user_id", userID)
}
