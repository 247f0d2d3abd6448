package domain

import (
	"time"
)

// Plan is a catalog entry users can buy. Suspended plans (IsActive=false) cannot be bought or granted.
type Plan struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	PriceCents    int64     `json:"price_cents" db:"price_cents"`
	DurationDays  int       `json:"duration_days" db:"duration_days"`
	ListingQuota  int       `json:"listing_quota" db:"listing_quota"`
	FeaturedQuota int       `json:"featured_quota" db:"featured_quota"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Duration returns the plan term length
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// Subscription is one term: a single purchased or granted allotment with its own expiry.
// The plan snapshot fields are copied at creation and never follow later plan edits.
type Subscription struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	PlanID            string    `json:"plan_id" db:"plan_id"`
	PlanName          string    `json:"plan_name" db:"plan_name"`
	ListingQuota      int       `json:"listing_quota" db:"listing_quota"`
	FeaturedQuota     int       `json:"featured_quota" db:"featured_quota"`
	DurationDays      int       `json:"duration_days" db:"duration_days"`
	StartedAt         time.Time `json:"started_at" db:"started_at"`
	ExpiresAt         time.Time `json:"expires_at" db:"expires_at"`
	RemainingListings int       `json:"remaining_listings" db:"remaining_listings"`
	RemainingFeatured int       `json:"remaining_featured" db:"remaining_featured"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether the term can currently be consumed
func (s Subscription) IsLive(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// ActivationSource identifies who asked for a plan to be applied
type ActivationSource string

const (
	ActivationSourceGrant   ActivationSource = "admin_grant"
	ActivationSourceExtend  ActivationSource = "admin_extend"
	ActivationSourcePayment ActivationSource = "payment"
)

// ActivationRequest applies a plan to a user: a new term when TargetSubscriptionID is nil,
// otherwise a top-up/extension of the named term.
type ActivationRequest struct {
	UserID               string
	Plan                 Plan
	TargetSubscriptionID *string
	Source               ActivationSource
	Now                  time.Time
}

// ActivationResult describes what ApplyPlan did
type ActivationResult struct {
	Subscription Subscription `json:"subscription"`
	Created      bool         `json:"created"`
	Reactivated  bool         `json:"reactivated"`
}

// PlanDeleteResult tells the admin whether a plan was removed or only suspended
type PlanDeleteResult struct {
	PlanID    string `json:"plan_id"`
	Deleted   bool   `json:"deleted"`
	Suspended bool   `json:"suspended"`
}

// QuotaSummary is the check-only view of a user's allowances
type QuotaSummary struct {
	UserID            string         `json:"user_id"`
	RemainingListings int            `json:"remaining_listings"`
	RemainingFeatured int            `json:"remaining_featured"`
	ActiveTerms       []Subscription `json:"active_terms"`
}

// GrantRequest is the admin grant payload
type GrantRequest struct {
	UserID               string  `json:"user_id" validate:"required,uuid4"`
	PlanID               string  `json:"plan_id" validate:"required,uuid4"`
	TargetSubscriptionID *string `json:"target_subscription_id,omitempty" validate:"omitempty,uuid4"`
}

// ExtendRequest is the admin extend payload. PlanID defaults to the term's own plan.
type ExtendRequest struct {
	PlanID *string `json:"plan_id,omitempty" validate:"omitempty,uuid4"`
}

// PlanInput is the admin create/update payload for a plan
type PlanInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	PriceCents    int64  `json:"price_cents" validate:"gte=0"`
	DurationDays  int    `json:"duration_days" validate:"gt=0,lte=3650"`
	ListingQuota  int    `json:"listing_quota" validate:"gte=0"`
	FeaturedQuota int    `json:"featured_quota" validate:"gte=0"`
}
