package worker

import (
	"context"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
)

// Func adapts a named function to a Job
type Func struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f Func) Process(ctx context.Context) error { return f.Fn(ctx) }

func (f Func) Name() string { return f.JobName }

// CallbackReconciler applies a raw provider callback. payment.Reconciler satisfies it.
type CallbackReconciler interface {
	HandleCallback(ctx context.Context, providerName string, body []byte) (domain.ReconcileOutcome, error)
}

// CallbackJob reconciles one callback delivery off the request path. The provider has
// already been acknowledged and will not redeliver, so internal errors are retried with
// backoff. Kinded domain errors are returned on the first attempt.
type CallbackJob struct {
	Reconciler CallbackReconciler
	Provider   string
	Body       []byte
	RequestID  string

	// MaxAttempts and Backoff default to CallbackMaxAttempts and CallbackRetryBackoff
	MaxAttempts int
	Backoff     time.Duration
}

func (j *CallbackJob) Name() string { return "reconcile-callback:" + j.Provider }

func (j *CallbackJob) Process(ctx context.Context) error {
	if j.RequestID != "" {
		ctx = logger.WithRequestID(ctx, j.RequestID)
	}
	log := logger.FromContext(ctx).With("provider", j.Provider)

	attempts := j.MaxAttempts
	if attempts < 1 {
		attempts = CallbackMaxAttempts
	}
	delay := j.Backoff
	if delay <= 0 {
		delay = CallbackRetryBackoff
	}

	var err error
	for attempt := 1; ; attempt++ {
		var outcome domain.ReconcileOutcome
		outcome, err = j.Reconciler.HandleCallback(ctx, j.Provider, j.Body)
		if err == nil {
			log.Debug(LogMsgCallbackProcessed, "outcome", outcome, "attempt", attempt)
			return nil
		}
		if !retryable(err) || attempt >= attempts {
			return err
		}
		log.Warn(LogMsgCallbackRetrying, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// retryable reports whether err is an unkinded (internal) failure
func retryable(err error) bool {
	return domain.KindOf(err) == domain.ErrorKindInternal
}
