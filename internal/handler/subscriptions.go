package handler

import (
	"net/http"

	"github.com/osse101/RentalsLedger_Go/internal/subscription"
)

// SubscriptionHandler serves the user-facing ledger views
type SubscriptionHandler struct {
	service subscription.Service
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// HandleListPlans lists the plans users can buy
// @Summary List plans
// @Description Returns active plans; include_suspended=true also returns suspended ones
// @Tags plans
// @Produce json
// @Param include_suspended query bool false "Include suspended plans"
// @Success 200 {array} domain.Plan
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/plans [get]
func (h *SubscriptionHandler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	includeSuspended := GetOptionalQueryParam(r, "include_suspended", "false") == "true"
	plans, err := h.service.ListPlans(r.Context(), includeSuspended)
	if err != nil {
		respondServiceError(w, r, "List plans", err)
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

// HandleListUserSubscriptions lists every term of a user
// @Summary List user subscriptions
// @Tags subscriptions
// @Produce json
// @Param user_id query string true "User ID"
// @Success 200 {array} domain.Subscription
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/subscriptions [get]
func (h *SubscriptionHandler) HandleListUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUUIDQueryParam(r, w, "user_id")
	if !ok {
		return
	}
	subs, err := h.service.ListUserSubscriptions(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "List subscriptions", err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

// HandleGetQuota reports remaining allowances without deducting anything
// @Summary Quota summary
// @Description Totals across every live term of the user, in consumption order
// @Tags subscriptions
// @Produce json
// @Param user_id query string true "User ID"
// @Success 200 {object} domain.QuotaSummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/subscriptions/quota [get]
func (h *SubscriptionHandler) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUUIDQueryParam(r, w, "user_id")
	if !ok {
		return
	}
	summary, err := h.service.GetQuotaSummary(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "Quota summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
