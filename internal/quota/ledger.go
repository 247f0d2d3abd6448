// Package quota allocates listing and featured allowances across a user's subscription terms.
package quota

import (
	"sort"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Totals sums the remaining allowances of the live terms
func Totals(terms []domain.Subscription, now time.Time) (listings, featured int) {
	for _, t := range terms {
		if !t.IsLive(now) {
			continue
		}
		listings += t.RemainingListings
		featured += t.RemainingFeatured
	}
	return listings, featured
}

// Eligible returns the live terms in consumption order: soonest expiry first, ties broken by
// start time and then id so the order never depends on storage order.
func Eligible(terms []domain.Subscription, now time.Time) []domain.Subscription {
	live := make([]domain.Subscription, 0, len(terms))
	for _, t := range terms {
		if t.IsLive(now) {
			live = append(live, t)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		a, b := live[i], live[j]
		if !a.ExpiresAt.Equal(b.ExpiresAt) {
			return a.ExpiresAt.Before(b.ExpiresAt)
		}
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return a.ID < b.ID
	})
	return live
}

// ConsumeFIFO deducts need from the live terms, draining the soonest-expiring term first.
//
// It either deducts the whole request or nothing: on shortfall a *domain.QuotaError is returned
// and no term is modified. Listing shortfall is reported before featured shortfall.
// The returned slice holds only the terms whose counters changed, with updated values.
// A zero request deducts nothing and reports current totals.
func ConsumeFIFO(terms []domain.Subscription, need domain.QuotaRequest, now time.Time) (*domain.Deduction, []domain.Subscription, error) {
	if need.Listings < 0 || need.Featured < 0 {
		return nil, nil, domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgNegativeQuotaRequest)
	}

	ordered := Eligible(terms, now)
	haveListings, haveFeatured := Totals(ordered, now)

	if need.Listings > haveListings {
		return nil, nil, &domain.QuotaError{
			Kind:   domain.ErrorKindInsufficientListingQuota,
			Needed: need.Listings,
			Have:   haveListings,
		}
	}
	if need.Featured > haveFeatured {
		return nil, nil, &domain.QuotaError{
			Kind:   domain.ErrorKindInsufficientFeaturedQuota,
			Needed: need.Featured,
			Have:   haveFeatured,
		}
	}

	deduction := &domain.Deduction{
		Lines:             []domain.DeductionLine{},
		RemainingListings: haveListings - need.Listings,
		RemainingFeatured: haveFeatured - need.Featured,
	}
	if need.IsZero() {
		return deduction, nil, nil
	}

	stillListings, stillFeatured := need.Listings, need.Featured
	changed := make([]domain.Subscription, 0, len(ordered))
	for _, term := range ordered {
		if stillListings == 0 && stillFeatured == 0 {
			break
		}
		takeListings := min(term.RemainingListings, stillListings)
		takeFeatured := min(term.RemainingFeatured, stillFeatured)
		if takeListings == 0 && takeFeatured == 0 {
			continue
		}

		term.RemainingListings -= takeListings
		term.RemainingFeatured -= takeFeatured
		stillListings -= takeListings
		stillFeatured -= takeFeatured

		changed = append(changed, term)
		deduction.Lines = append(deduction.Lines, domain.DeductionLine{
			SubscriptionID: term.ID,
			Listings:       takeListings,
			Featured:       takeFeatured,
		})
	}

	return deduction, changed, nil
}
