package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/payment"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// JobQueue accepts background work without blocking. worker.Pool satisfies it.
type JobQueue interface {
	Enqueue(job worker.Job) bool
}

// CallbackAck is the body every provider callback receives
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// PaymentHandler serves purchase initiation, status and provider callbacks
type PaymentHandler struct {
	service    payment.Service
	reconciler worker.CallbackReconciler
	queue      JobQueue
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service payment.Service, reconciler worker.CallbackReconciler, queue JobQueue) *PaymentHandler {
	return &PaymentHandler{service: service, reconciler: reconciler, queue: queue}
}

// HandleInitiate starts or deduplicates a plan purchase
// @Summary Initiate payment
// @Description Idempotent per (user, plan, amount, target). Repeated requests return the existing attempt with an outcome explaining what happened.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body domain.InitiatePaymentRequest true "Purchase intent"
// @Success 200 {object} domain.InitiatePaymentResult "Existing attempt"
// @Success 201 {object} domain.InitiatePaymentResult "New or re-sent attempt"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/payments [post]
func (h *PaymentHandler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiatePaymentRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Initiate payment"); err != nil {
		return
	}
	res, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, "Initiate payment", err)
		return
	}

	status := http.StatusOK
	if res.Outcome == domain.InitiateOutcomeCreated || res.Outcome == domain.InitiateOutcomeReinitiated {
		status = http.StatusCreated
	}
	respondJSON(w, status, res)
}

// HandleGet returns one payment
// @Summary Payment status
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		respondServiceError(w, r, "Get payment", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleList returns a user's payment history, newest first
// @Summary Payment history
// @Tags payments
// @Produce json
// @Param user_id query string true "User ID"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} domain.Payment
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/payments [get]
func (h *PaymentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUUIDQueryParam(r, w, "user_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(r, w)
	if !ok {
		return
	}
	payments, err := h.service.ListUserPayments(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, r, "List payments", err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

// HandleCallback acknowledges a provider callback and reconciles it in the background.
// Providers always get 200 so they stop redelivering; reconciliation never trusts delivery count.
// @Summary Provider callback
// @Tags payments
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} CallbackAck
// @Router /api/v1/payments/callback/{provider} [post]
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	providerName := chi.URLParam(r, "provider")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn(LogMsgCallbackReadFail, "provider", providerName, "error", err)
		respondJSON(w, http.StatusOK, CallbackAck{ResultCode: 0, ResultDesc: MsgCallbackAcceptDesc})
		return
	}

	job := &worker.CallbackJob{
		Reconciler: h.reconciler,
		Provider:   providerName,
		Body:       body,
		RequestID:  logger.GetRequestID(ctx),
	}
	if h.queue != nil && h.queue.Enqueue(job) {
		log.Debug(LogMsgCallbackQueued, "provider", providerName)
	} else {
		log.Warn(LogMsgCallbackInline, "provider", providerName)
		if err := job.Process(ctx); err != nil {
			log.Error(LogMsgServiceError, "op", "Reconcile callback", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, CallbackAck{ResultCode: 0, ResultDesc: MsgCallbackAcceptDesc})
}
