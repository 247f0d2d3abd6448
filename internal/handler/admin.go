package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/payment"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
)

// TaskRunner runs a named background task on demand. scheduler.Scheduler satisfies it.
type TaskRunner interface {
	RunNow(ctx context.Context, name string) error
	Names() []string
}

// TaskRunResponse reports a manual task run
type TaskRunResponse struct {
	Task    string `json:"task"`
	Message string `json:"message"`
}

// AdminHandler serves ledger administration
type AdminHandler struct {
	subscriptions subscription.Service
	payments      payment.Service
	tasks         TaskRunner
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(subscriptions subscription.Service, payments payment.Service, tasks TaskRunner) *AdminHandler {
	return &AdminHandler{subscriptions: subscriptions, payments: payments, tasks: tasks}
}

// HandleGrant grants a plan without payment
// @Summary Grant plan
// @Description Opens a new term, or tops up / reactivates target_subscription_id when given
// @Tags admin
// @Accept json
// @Produce json
// @Param request body domain.GrantRequest true "Grant"
// @Success 201 {object} domain.ActivationResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /api/v1/admin/subscriptions/grant [post]
func (h *AdminHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var req domain.GrantRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Grant subscription"); err != nil {
		return
	}
	res, err := h.subscriptions.Grant(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, "Grant subscription", err)
		return
	}
	logger.FromContext(r.Context()).Info("Admin granted plan", "user_id", req.UserID, "plan_id", req.PlanID,
		"subscription_id", res.Subscription.ID)
	respondJSON(w, http.StatusCreated, res)
}

// HandleExtend applies a plan to an existing term
// @Summary Extend subscription
// @Description Body is optional; without plan_id the term's own plan is applied
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body domain.ExtendRequest false "Plan override"
// @Success 200 {object} domain.ActivationResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /api/v1/admin/subscriptions/{id}/extend [post]
func (h *AdminHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	subID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	var req domain.ExtendRequest
	if r.ContentLength != 0 {
		if err := DecodeAndValidateRequest(r, w, &req, "Extend subscription"); err != nil {
			return
		}
	}
	res, err := h.subscriptions.Extend(r.Context(), subID, req.PlanID)
	if err != nil {
		respondServiceError(w, r, "Extend subscription", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// HandleResetUsage restores a term's remaining counts to its snapshot quotas
// @Summary Reset subscription usage
// @Tags admin
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/subscriptions/{id}/reset-usage [post]
func (h *AdminHandler) HandleResetUsage(w http.ResponseWriter, r *http.Request) {
	subID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptions.ResetUsage(r.Context(), subID)
	if err != nil {
		respondServiceError(w, r, "Reset usage", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Message: MsgUsageReset, Data: sub})
}

// HandleDeactivate ends a term now
// @Summary Deactivate subscription
// @Description Listings are unpublished only if the user has no other live term
// @Tags admin
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/subscriptions/{id}/deactivate [post]
func (h *AdminHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	subID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptions.Deactivate(r.Context(), subID)
	if err != nil {
		respondServiceError(w, r, "Deactivate subscription", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Message: MsgSubscriptionOff, Data: sub})
}

// HandleCreatePlan adds a plan to the catalog
// @Summary Create plan
// @Tags admin
// @Accept json
// @Produce json
// @Param request body domain.PlanInput true "Plan"
// @Success 201 {object} domain.Plan
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/plans [post]
func (h *AdminHandler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var in domain.PlanInput
	if err := DecodeAndValidateRequest(r, w, &in, "Create plan"); err != nil {
		return
	}
	plan, err := h.subscriptions.CreatePlan(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, "Create plan", err)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// HandleUpdatePlan edits a plan. Existing terms keep their snapshot.
// @Summary Update plan
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param request body domain.PlanInput true "Plan"
// @Success 200 {object} domain.Plan
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/plans/{id} [put]
func (h *AdminHandler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	var in domain.PlanInput
	if err := DecodeAndValidateRequest(r, w, &in, "Update plan"); err != nil {
		return
	}
	plan, err := h.subscriptions.UpdatePlan(r.Context(), planID, in)
	if err != nil {
		respondServiceError(w, r, "Update plan", err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// HandleDeletePlan removes an unused plan, or suspends one that live terms still reference
// @Summary Delete plan
// @Tags admin
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/plans/{id} [delete]
func (h *AdminHandler) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	res, err := h.subscriptions.DeletePlan(r.Context(), planID)
	if err != nil {
		respondServiceError(w, r, "Delete plan", err)
		return
	}
	msg := MsgPlanDeleted
	if res.Suspended {
		msg = MsgPlanSuspended
	}
	respondJSON(w, http.StatusOK, DataResponse{Message: msg, Data: res})
}

// HandleSuspendPlan stops sales of a plan
// @Summary Suspend plan
// @Tags admin
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.Plan
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/plans/{id}/suspend [post]
func (h *AdminHandler) HandleSuspendPlan(w http.ResponseWriter, r *http.Request) {
	h.setPlanActive(w, r, false)
}

// HandleResumePlan reopens sales of a suspended plan
// @Summary Resume plan
// @Tags admin
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.Plan
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/plans/{id}/resume [post]
func (h *AdminHandler) HandleResumePlan(w http.ResponseWriter, r *http.Request) {
	h.setPlanActive(w, r, true)
}

func (h *AdminHandler) setPlanActive(w http.ResponseWriter, r *http.Request, active bool) {
	planID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	var (
		plan *domain.Plan
		err  error
	)
	if active {
		plan, err = h.subscriptions.ResumePlan(r.Context(), planID)
	} else {
		plan, err = h.subscriptions.SuspendPlan(r.Context(), planID)
	}
	if err != nil {
		respondServiceError(w, r, "Change plan status", err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// HandleRefund marks a successful payment refunded
// @Summary Refund payment
// @Description Records the refund; quota already granted is not clawed back
// @Tags admin
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/payments/{id}/refund [post]
func (h *AdminHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	p, err := h.payments.Refund(r.Context(), paymentID)
	if err != nil {
		respondServiceError(w, r, "Refund payment", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleListTasks lists the background tasks that can be run on demand
// @Summary List tasks
// @Tags admin
// @Produce json
// @Success 200 {array} string
// @Router /api/v1/admin/tasks [get]
func (h *AdminHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.tasks.Names())
}

// HandleRunTask runs a background task now and waits for it
// @Summary Run task
// @Tags admin
// @Produce json
// @Param name path string true "Task name"
// @Success 200 {object} TaskRunResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/tasks/{name}/run [post]
func (h *AdminHandler) HandleRunTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.tasks.RunNow(r.Context(), name); err != nil {
		respondServiceError(w, r, "Run task", err)
		return
	}
	respondJSON(w, http.StatusOK, TaskRunResponse{Task: name, Message: MsgTaskCompleted})
}
