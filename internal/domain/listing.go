package domain

import (
	"time"
)

// Listing carries the fields the publish boundary and the sweeper care about.
// Everything else about a listing lives in the marketplace CRUD service.
type Listing struct {
	ID            string     `json:"id" db:"id"`
	OwnerID       string     `json:"owner_id" db:"owner_id"`
	Title         string     `json:"title" db:"title"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured"`
	IsPublished   bool       `json:"is_published" db:"is_published"`
	SlotConsumed  bool       `json:"slot_consumed" db:"slot_consumed"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty" db:"featured_until"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// QuotaNeed is what publishing this listing costs when its slot is not yet consumed
func (l Listing) QuotaNeed() QuotaRequest {
	need := QuotaRequest{Listings: 1}
	if l.IsFeatured {
		need.Featured = 1
	}
	return need
}

// CreateListingRequest creates a draft listing
type CreateListingRequest struct {
	OwnerID    string `json:"owner_id" validate:"required,uuid4"`
	Title      string `json:"title" validate:"required,max=200"`
	IsFeatured bool   `json:"is_featured"`
}

// PublishResult is returned by a publish action
type PublishResult struct {
	Listing   Listing    `json:"listing"`
	Charged   bool       `json:"charged"`
	Deduction *Deduction `json:"deduction,omitempty"`
}

// SweepResult summarizes one expiry sweep run
type SweepResult struct {
	DeactivatedTerms    int64 `json:"deactivated_terms"`
	AffectedUsers       int   `json:"affected_users"`
	UsersUnpublished    int   `json:"users_unpublished"`
	ListingsUnpublished int64 `json:"listings_unpublished"`
}
