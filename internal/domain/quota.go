package domain

// QuotaRequest is how many units a single action needs
type QuotaRequest struct {
	Listings int `json:"listings"`
	Featured int `json:"featured"`
}

// IsZero reports a check-only request
func (r QuotaRequest) IsZero() bool {
	return r.Listings == 0 && r.Featured == 0
}

// DeductionLine is the amount taken from one term
type DeductionLine struct {
	SubscriptionID string `json:"subscription_id"`
	Listings       int    `json:"listings"`
	Featured       int    `json:"featured"`
}

// Deduction is the per-call breakdown of a quota consumption. It is never persisted.
type Deduction struct {
	Lines             []DeductionLine `json:"lines"`
	RemainingListings int             `json:"remaining_listings"`
	RemainingFeatured int             `json:"remaining_featured"`
}
