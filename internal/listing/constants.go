package listing

import "time"

// DefaultBoostDuration is how long a featured publish keeps the listing featured
const DefaultBoostDuration = 7 * 24 * time.Hour

// Log messages
const (
	LogMsgListingCreated     = "Listing created"
	LogMsgListingPublished   = "Listing published"
	LogMsgListingUnpublished = "Listing unpublished"
	LogMsgAlreadyPublished   = "Listing already published"
	LogMsgBoostsCleared      = "Expired featured boosts cleared"
)

// Error messages
const (
	ErrMsgBeginTx       = "failed to begin transaction"
	ErrMsgCommitTx      = "failed to commit transaction"
	ErrMsgLoadListing   = "failed to load listing"
	ErrMsgSaveListing   = "failed to save listing"
	ErrMsgCreateListing = "failed to create listing"
	ErrMsgBlankTitle    = "listing has no title"
)
