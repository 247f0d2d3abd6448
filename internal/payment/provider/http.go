package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
)

// HTTPOptions configures an HTTPInitiator
type HTTPOptions struct {
	Name        string
	URL         string
	Token       string
	CallbackURL string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// HTTPInitiator posts push-payment requests to a provider gateway
type HTTPInitiator struct {
	opts   HTTPOptions
	Client *http.Client
}

// NewHTTPInitiator creates a new provider client
func NewHTTPInitiator(opts HTTPOptions) *HTTPInitiator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &HTTPInitiator{
		opts: opts,
		Client: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

func (c *HTTPInitiator) Name() string {
	return c.opts.Name
}

type initiateBody struct {
	Reference        string `json:"reference"`
	AccountReference string `json:"account_reference"`
	Description      string `json:"description"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	PhoneNumber      string `json:"phone_number"`
	CallbackURL      string `json:"callback_url"`
}

// initiateResponse accepts both the STK-style and the generic gateway shape
type initiateResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`

	Reference string `json:"reference"`
	Message   string `json:"message"`
}

func (r initiateResponse) result() InitiateResult {
	res := InitiateResult{ProviderReference: r.CheckoutRequestID, ProviderMessage: r.CustomerMessage}
	if res.ProviderReference == "" {
		res.ProviderReference = r.Reference
	}
	if res.ProviderMessage == "" {
		res.ProviderMessage = r.ResponseDescription
	}
	if res.ProviderMessage == "" {
		res.ProviderMessage = r.Message
	}
	if r.ResponseCode != "" && r.ResponseCode != ResponseCodeAccepted {
		res.ProviderReference = ""
	}
	return res
}

// Initiate sends the request. 5xx and transport errors are retried with the same
// idempotency key; any other non-2xx answer is a definite rejection.
func (c *HTTPInitiator) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	log := logger.FromContext(ctx)
	if c.opts.URL == "" {
		return InitiateResult{}, errors.New(ErrMsgMissingEndpoint)
	}

	payload, err := json.Marshal(initiateBody{
		Reference:        req.PaymentID,
		AccountReference: req.PlanName,
		Description:      Describe(req.PlanName, req.AmountCents, req.Currency),
		AmountCents:      req.AmountCents,
		Currency:         req.Currency,
		PhoneNumber:      req.PhoneNumber,
		CallbackURL:      c.opts.CallbackURL,
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("%s: %w", ErrMsgMarshalRequest, err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.opts.RetryDelay * time.Duration(1<<uint(attempt-1))
			log.Info(LogMsgProviderRetry, "attempt", attempt, "payment_id", req.PaymentID, "delay", delay)
			select {
			case <-ctx.Done():
				observe(start, metrics.ResultError)
				return InitiateResult{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, retry, err := c.send(ctx, req, payload)
		if err == nil {
			observe(start, metrics.ResultSuccess)
			if result.ProviderReference == "" {
				log.Warn(LogMsgProviderRejected, "payment_id", req.PaymentID, "message", result.ProviderMessage)
			} else {
				log.Info(LogMsgProviderAccepted, "payment_id", req.PaymentID, "reference", result.ProviderReference)
			}
			return result, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	observe(start, metrics.ResultError)
	return InitiateResult{}, fmt.Errorf("%s: %w", ErrMsgMaxRetries, lastErr)
}

func (c *HTTPInitiator) send(ctx context.Context, req InitiateRequest, payload []byte) (InitiateResult, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return InitiateResult{}, false, fmt.Errorf("%s: %w", ErrMsgBuildRequest, err)
	}
	httpReq.Header.Set(HeaderContentType, ContentTypeJSON)
	httpReq.Header.Set(HeaderIdempotencyKey, req.IdempotencyKey)
	if c.opts.Token != "" {
		httpReq.Header.Set(HeaderAuthorization, "Bearer "+c.opts.Token)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return InitiateResult{}, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return InitiateResult{}, true, fmt.Errorf(ErrMsgProviderStatus, resp.StatusCode)
	}

	var body initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return InitiateResult{ProviderMessage: fmt.Sprintf(ErrMsgProviderStatus, resp.StatusCode)}, false, nil
		}
		return InitiateResult{}, false, fmt.Errorf("%s: %w", ErrMsgDecodeResponse, err)
	}

	result := body.result()
	if resp.StatusCode >= http.StatusBadRequest {
		result.ProviderReference = ""
		if result.ProviderMessage == "" {
			result.ProviderMessage = fmt.Sprintf(ErrMsgProviderStatus, resp.StatusCode)
		}
	}
	return result, false, nil
}

func observe(start time.Time, result string) {
	metrics.ProviderLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
