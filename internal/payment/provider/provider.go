// Package provider is the boundary to external push-payment services.
// Nothing in here touches the database; callers invoke it outside any transaction.
package provider

import (
	"context"
)

// InitiateRequest asks the provider to prompt the payer
type InitiateRequest struct {
	PaymentID      string
	IdempotencyKey string
	PlanID         string
	PlanName       string
	AmountCents    int64
	Currency       string
	PhoneNumber    string
}

// InitiateResult is the provider's acknowledgement. An empty ProviderReference means the
// request was definitely not accepted.
type InitiateResult struct {
	ProviderReference string
	ProviderMessage   string
}

// Initiator starts a push payment
type Initiator interface {
	// Name is stored on the payment row and selects the callback route
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
}
