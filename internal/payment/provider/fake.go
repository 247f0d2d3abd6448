package provider

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/osse101/RentalsLedger_Go/internal/logger"
)

// Fake accepts every request with a generated reference unless told otherwise.
// It backs PAYMENT_PROVIDER=fake and the service tests.
type Fake struct {
	mu    sync.Mutex
	calls []InitiateRequest

	// Reject makes the provider answer without a reference
	Reject bool
	// Err is returned instead of a result when set
	Err error
	// Hook runs before the result is produced, inside the call
	Hook func(InitiateRequest)
}

// NewFake creates an accepting fake provider
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Name() string {
	return "fake"
}

func (f *Fake) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	hook, reject, err := f.Hook, f.Reject, f.Err
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err != nil {
		return InitiateResult{}, err
	}
	if reject {
		return InitiateResult{ProviderMessage: "request rejected"}, nil
	}

	ref := "ws_CO_" + uuid.NewString()
	logger.FromContext(ctx).Debug(LogMsgFakeInitiated, "payment_id", req.PaymentID, "reference", ref)
	return InitiateResult{
		ProviderReference: ref,
		ProviderMessage:   "Success. Request accepted for processing",
	}, nil
}

// Calls returns every request seen so far
func (f *Fake) Calls() []InitiateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]InitiateRequest, len(f.calls))
	copy(out, f.calls)
	return out
}
