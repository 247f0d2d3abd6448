package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Tx implements repository.SubscriptionTx, PaymentTx and ListingTx
type Tx struct {
	store *Store
	st    *state
	done  bool

	// LockedUsers records LockUser calls in order
	LockedUsers []string
}

func (t *Tx) finish() {
	t.done = true
	t.store.txMu.Unlock()
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return domain.ErrTxClosed
	}
	if err := t.store.FailCommit; err != nil {
		t.store.FailCommit = nil
		t.store.mu.Lock()
		t.store.rollbacks++
		t.store.mu.Unlock()
		t.finish()
		return err
	}
	t.store.mu.Lock()
	t.store.cur = t.st
	t.store.commits++
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return domain.ErrTxClosed
	}
	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) LockUser(ctx context.Context, userID string) error {
	if t.done {
		return domain.ErrTxClosed
	}
	t.LockedUsers = append(t.LockedUsers, userID)
	return nil
}

func (t *Tx) GetUserSubscriptionsForUpdate(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return userSubs(t.st, userID, true), nil
}

func (t *Tx) GetSubscriptionForUpdate(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	sub, ok := t.st.subs[subscriptionID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgSubscriptionNotFound)
	}
	return &sub, nil
}

func (t *Tx) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	if sub.RemainingListings < 0 || sub.RemainingFeatured < 0 {
		return domain.WrapError(domain.ErrorKindInternal, domain.ErrMsgInternal, errNegativeRemaining)
	}
	sub.ID = uuid.NewString()
	sub.CreatedAt = t.store.Now()
	sub.UpdatedAt = sub.CreatedAt
	t.st.subs[sub.ID] = *sub
	return nil
}

func (t *Tx) SaveSubscription(ctx context.Context, sub *domain.Subscription) error {
	if _, ok := t.st.subs[sub.ID]; !ok {
		return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgSubscriptionNotFound)
	}
	if sub.RemainingListings < 0 || sub.RemainingFeatured < 0 {
		return domain.WrapError(domain.ErrorKindInternal, domain.ErrMsgInternal, errNegativeRemaining)
	}
	sub.UpdatedAt = t.store.Now()
	t.st.subs[sub.ID] = *sub
	return nil
}

func (t *Tx) UpdateRemaining(ctx context.Context, subs []domain.Subscription) error {
	for _, s := range subs {
		cur, ok := t.st.subs[s.ID]
		if !ok {
			return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgSubscriptionNotFound)
		}
		if s.RemainingListings < 0 || s.RemainingFeatured < 0 {
			return domain.WrapError(domain.ErrorKindInternal, domain.ErrMsgInternal, errNegativeRemaining)
		}
		cur.RemainingListings = s.RemainingListings
		cur.RemainingFeatured = s.RemainingFeatured
		cur.UpdatedAt = t.store.Now()
		t.st.subs[s.ID] = cur
	}
	return nil
}

func (t *Tx) CountLiveSubscriptions(ctx context.Context, userID string, now time.Time) (int, error) {
	count := 0
	for _, sub := range t.st.subs {
		if sub.UserID == userID && sub.IsLive(now) {
			count++
		}
	}
	return count, nil
}

func (t *Tx) UnpublishUserListings(ctx context.Context, userID string) (int64, error) {
	var count int64
	for id, l := range t.st.listings {
		if l.OwnerID != userID || (!l.IsPublished && !l.SlotConsumed) {
			continue
		}
		l.IsPublished = false
		l.SlotConsumed = false
		l.FeaturedUntil = nil
		t.st.listings[id] = l
		count++
	}
	return count, nil
}

func (t *Tx) LockIntent(ctx context.Context, intentKey string) error {
	if t.done {
		return domain.ErrTxClosed
	}
	return nil
}

func (t *Tx) GetLatestPaymentByIntent(ctx context.Context, intentKey string) (*domain.Payment, error) {
	var latest *domain.Payment
	for _, p := range t.st.payments {
		if p.IntentKey != intentKey {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			p := p
			latest = &p
		}
	}
	return latest, nil
}

func (t *Tx) GetPendingPaymentForTarget(ctx context.Context, userID, targetSubscriptionID string) (*domain.Payment, error) {
	var pending []domain.Payment
	for _, p := range t.st.payments {
		if p.UserID == userID && p.Status == domain.PaymentStatusPending &&
			p.TargetSubscriptionID != nil && *p.TargetSubscriptionID == targetSubscriptionID {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })
	return &pending[0], nil
}

func (t *Tx) GetPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := t.st.payments[paymentID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPaymentNotFound)
	}
	return &p, nil
}

func (t *Tx) GetPaymentByExternalRefForUpdate(ctx context.Context, provider, externalRef string) (*domain.Payment, error) {
	for _, p := range t.st.payments {
		if p.Provider == provider && p.ExternalRef != nil && *p.ExternalRef == externalRef {
			return &p, nil
		}
	}
	return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPaymentNotFound)
}

func (t *Tx) CreatePayment(ctx context.Context, p *domain.Payment) error {
	for _, existing := range t.st.payments {
		if existing.IdempotencyKey == p.IdempotencyKey {
			return domain.NewError(domain.ErrorKindPaymentInProgress, domain.ErrMsgPaymentInProgress)
		}
	}
	p.ID = uuid.NewString()
	t.st.payments[p.ID] = *p
	return nil
}

func (t *Tx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	if _, ok := t.st.payments[p.ID]; !ok {
		return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPaymentNotFound)
	}
	if p.ExternalRef != nil {
		for id, other := range t.st.payments {
			if id != p.ID && other.Provider == p.Provider && other.ExternalRef != nil && *other.ExternalRef == *p.ExternalRef {
				return domain.WrapError(domain.ErrorKindInternal, domain.ErrMsgInternal, errDuplicateRef)
			}
		}
	}
	t.st.payments[p.ID] = *p
	return nil
}

func (t *Tx) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, ok := t.st.listings[listingID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgListingNotFound)
	}
	return &l, nil
}

func (t *Tx) UpdateListing(ctx context.Context, l *domain.Listing) error {
	if _, ok := t.st.listings[l.ID]; !ok {
		return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgListingNotFound)
	}
	l.UpdatedAt = t.store.Now()
	t.st.listings[l.ID] = *l
	return nil
}
