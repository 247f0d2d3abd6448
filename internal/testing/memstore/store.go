// Package memstore is a stateful in-memory fake of the ledger repositories.
// Transactions are serialized and work on a private copy that Commit publishes,
// so rollback and atomicity behave like the postgres implementation.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

var (
	errNegativeRemaining = errors.New("remaining counters must not be negative")
	errDuplicateRef      = errors.New("duplicate provider reference")
)

type state struct {
	plans    map[string]domain.Plan
	archived map[string]bool
	subs     map[string]domain.Subscription
	payments map[string]domain.Payment
	listings map[string]domain.Listing
}

func (s *state) clone() *state {
	c := &state{
		plans:    make(map[string]domain.Plan, len(s.plans)),
		archived: make(map[string]bool, len(s.archived)),
		subs:     make(map[string]domain.Subscription, len(s.subs)),
		payments: make(map[string]domain.Payment, len(s.payments)),
		listings: make(map[string]domain.Listing, len(s.listings)),
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.archived {
		c.archived[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	return c
}

// Store implements repository.Plan, Subscription, Payment and Listing
type Store struct {
	txMu sync.Mutex // held for the lifetime of a transaction or a direct write
	mu   sync.Mutex // guards cur
	cur  *state

	// FailCommit makes the next Commit fail with this error
	FailCommit error
	// Now stamps created_at/updated_at; defaults to time.Now
	Now func() time.Time

	commits   int
	rollbacks int
}

// New returns an empty store
func New() *Store {
	return &Store{
		cur: &state{
			plans:    map[string]domain.Plan{},
			archived: map[string]bool{},
			subs:     map[string]domain.Subscription{},
			payments: map[string]domain.Payment{},
			listings: map[string]domain.Listing{},
		},
		Now: time.Now,
	}
}

var (
	_ repository.Plan         = (*Store)(nil)
	_ repository.Subscription = (*Store)(nil)
	_ repository.Payment      = paymentRepo{}
	_ repository.Listing      = listingRepo{}
	_ repository.PaymentTx    = (*Tx)(nil)
	_ repository.ListingTx    = (*Tx)(nil)
)

// Commits reports how many transactions committed
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks reports how many transactions were rolled back
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

func (s *Store) snapshot() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// write runs fn against a copy and publishes it, like a single-statement transaction
func (s *Store) write(fn func(*state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	next := s.snapshot().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
	return nil
}

func (s *Store) begin() *Tx {
	s.txMu.Lock()
	return &Tx{store: s, st: s.snapshot().clone()}
}

// BeginTx starts a serialized transaction
func (s *Store) BeginTx(ctx context.Context) (repository.SubscriptionTx, error) {
	return s.begin(), nil
}

// Payments exposes the store as repository.Payment
func (s *Store) Payments() repository.Payment {
	return paymentRepo{s}
}

// Listings exposes the store as repository.Listing
func (s *Store) Listings() repository.Listing {
	return listingRepo{s}
}

// ---------------------------------------------------------------------------
// Plans

func (s *Store) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	return s.write(func(st *state) error {
		for id, p := range st.plans {
			if !st.archived[id] && strings.EqualFold(p.Name, plan.Name) {
				return domain.NewError(domain.ErrorKindInvalidInput, "plan name already exists")
			}
		}
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		plan.CreatedAt = s.Now()
		plan.UpdatedAt = plan.CreatedAt
		st.plans[plan.ID] = *plan
		return nil
	})
}

func (s *Store) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	return s.write(func(st *state) error {
		cur, ok := st.plans[plan.ID]
		if !ok || st.archived[plan.ID] {
			return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
		}
		cur.Name = plan.Name
		cur.PriceCents = plan.PriceCents
		cur.DurationDays = plan.DurationDays
		cur.ListingQuota = plan.ListingQuota
		cur.FeaturedQuota = plan.FeaturedQuota
		cur.UpdatedAt = s.Now()
		st.plans[plan.ID] = cur
		*plan = cur
		return nil
	})
}

func (s *Store) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	st := s.snapshot()
	p, ok := st.plans[planID]
	if !ok || st.archived[planID] {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
	}
	return &p, nil
}

func (s *Store) GetPlanByName(ctx context.Context, name string) (*domain.Plan, error) {
	st := s.snapshot()
	for id, p := range st.plans {
		if !st.archived[id] && strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
}

func (s *Store) ListPlans(ctx context.Context, includeSuspended bool) ([]domain.Plan, error) {
	st := s.snapshot()
	plans := make([]domain.Plan, 0, len(st.plans))
	for id, p := range st.plans {
		if st.archived[id] || (!includeSuspended && !p.IsActive) {
			continue
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].PriceCents != plans[j].PriceCents {
			return plans[i].PriceCents < plans[j].PriceCents
		}
		return plans[i].Name < plans[j].Name
	})
	return plans, nil
}

func (s *Store) SetPlanActive(ctx context.Context, planID string, active bool) error {
	return s.write(func(st *state) error {
		p, ok := st.plans[planID]
		if !ok || st.archived[planID] {
			return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
		}
		p.IsActive = active
		p.UpdatedAt = s.Now()
		st.plans[planID] = p
		return nil
	})
}

func (s *Store) DeletePlan(ctx context.Context, planID string, now time.Time) (*domain.PlanDeleteResult, error) {
	result := &domain.PlanDeleteResult{PlanID: planID}
	err := s.write(func(st *state) error {
		p, ok := st.plans[planID]
		if !ok || st.archived[planID] {
			return domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPlanNotFound)
		}
		live, referenced := 0, 0
		for _, sub := range st.subs {
			if sub.PlanID != planID {
				continue
			}
			referenced++
			if sub.IsLive(now) {
				live++
			}
		}
		for _, pay := range st.payments {
			if pay.PlanID != planID {
				continue
			}
			referenced++
			if pay.Status == domain.PaymentStatusPending {
				live++
			}
		}
		switch {
		case live > 0:
			p.IsActive = false
			st.plans[planID] = p
			result.Suspended = true
		case referenced > 0:
			p.IsActive = false
			st.plans[planID] = p
			st.archived[planID] = true
			result.Deleted = true
		default:
			delete(st.plans, planID)
			result.Deleted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Subscriptions

func (s *Store) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	sub, ok := s.snapshot().subs[subscriptionID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgSubscriptionNotFound)
	}
	return &sub, nil
}

func (s *Store) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	subs := userSubs(s.snapshot(), userID, false)
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].ExpiresAt.Equal(subs[j].ExpiresAt) {
			return subs[i].ExpiresAt.After(subs[j].ExpiresAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

func (s *Store) DeactivateExpired(ctx context.Context, now time.Time) (int64, []string, error) {
	var count int64
	users := map[string]bool{}
	err := s.write(func(st *state) error {
		for id, sub := range st.subs {
			if sub.IsActive && !sub.ExpiresAt.After(now) {
				sub.IsActive = false
				sub.UpdatedAt = now
				st.subs[id] = sub
				users[sub.UserID] = true
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return count, ids, nil
}

// PutSubscription seeds a term directly, bypassing the ledger
func (s *Store) PutSubscription(sub domain.Subscription) domain.Subscription {
	_ = s.write(func(st *state) error {
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		st.subs[sub.ID] = sub
		return nil
	})
	return sub
}

// PutPayment seeds a payment directly
func (s *Store) PutPayment(p domain.Payment) domain.Payment {
	_ = s.write(func(st *state) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		st.payments[p.ID] = p
		return nil
	})
	return p
}

// PutListing seeds a listing directly
func (s *Store) PutListing(l domain.Listing) domain.Listing {
	_ = s.write(func(st *state) error {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		st.listings[l.ID] = l
		return nil
	})
	return l
}

// UserSubscriptions returns every committed term of the user, ordered by expiry
func (s *Store) UserSubscriptions(userID string) []domain.Subscription {
	return userSubs(s.snapshot(), userID, false)
}

func userSubs(st *state, userID string, activeOnly bool) []domain.Subscription {
	var subs []domain.Subscription
	for _, sub := range st.subs {
		if sub.UserID != userID || (activeOnly && !sub.IsActive) {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].ExpiresAt.Equal(subs[j].ExpiresAt) {
			return subs[i].ExpiresAt.Before(subs[j].ExpiresAt)
		}
		if !subs[i].StartedAt.Equal(subs[j].StartedAt) {
			return subs[i].StartedAt.Before(subs[j].StartedAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

// ---------------------------------------------------------------------------
// Payments

type paymentRepo struct{ s *Store }

func (r paymentRepo) BeginTx(ctx context.Context) (repository.PaymentTx, error) {
	return r.s.begin(), nil
}

func (r paymentRepo) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := r.s.snapshot().payments[paymentID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgPaymentNotFound)
	}
	return &p, nil
}

func (r paymentRepo) ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range r.s.snapshot().payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r paymentRepo) ExpirePending(ctx context.Context, cutoff, now time.Time) (int64, error) {
	var count int64
	err := r.s.write(func(st *state) error {
		for id, p := range st.payments {
			if p.Status == domain.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
				p.Status = domain.PaymentStatusExpired
				p.FailureReason = domain.FailureReasonExpired
				p.UpdatedAt = now
				completed := now
				p.CompletedAt = &completed
				st.payments[id] = p
				count++
			}
		}
		return nil
	})
	return count, err
}

// ---------------------------------------------------------------------------
// Listings

type listingRepo struct{ s *Store }

func (r listingRepo) BeginTx(ctx context.Context) (repository.ListingTx, error) {
	return r.s.begin(), nil
}

func (r listingRepo) CreateListing(ctx context.Context, l *domain.Listing) error {
	return r.s.write(func(st *state) error {
		l.ID = uuid.NewString()
		l.CreatedAt = r.s.Now()
		l.UpdatedAt = l.CreatedAt
		st.listings[l.ID] = *l
		return nil
	})
}

func (r listingRepo) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, ok := r.s.snapshot().listings[listingID]
	if !ok {
		return nil, domain.NewError(domain.ErrorKindNotFound, domain.ErrMsgListingNotFound)
	}
	return &l, nil
}

func (r listingRepo) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.s.write(func(st *state) error {
		for id, l := range st.listings {
			if l.IsFeatured && l.FeaturedUntil != nil && !l.FeaturedUntil.After(now) {
				l.IsFeatured = false
				l.FeaturedUntil = nil
				st.listings[id] = l
				count++
			}
		}
		return nil
	})
	return count, err
}
