package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// QuotaErrorResponse carries the shortfall so clients can prompt an upgrade
type QuotaErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Needed int    `json:"needed"`
	Have   int    `json:"have"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusForKind maps every error kind to an HTTP status and a user-facing message.
// Adding a kind without a case here fails TestStatusForKind_CoversEveryKind.
func statusForKind(kind domain.ErrorKind) (int, string) {
	switch kind {
	case domain.ErrorKindInvalidInput:
		return http.StatusBadRequest, ErrMsgInvalidInputUser
	case domain.ErrorKindNotFound:
		return http.StatusNotFound, ErrMsgNotFoundUser
	case domain.ErrorKindInsufficientListingQuota:
		return http.StatusPaymentRequired, ErrMsgListingQuotaUser
	case domain.ErrorKindInsufficientFeaturedQuota:
		return http.StatusPaymentRequired, ErrMsgFeaturedQuotaUser
	case domain.ErrorKindOwnershipViolation:
		return http.StatusForbidden, ErrMsgOwnershipUser
	case domain.ErrorKindPlanSuspended:
		return http.StatusGone, ErrMsgPlanSuspendedUser
	case domain.ErrorKindPaymentInProgress:
		return http.StatusConflict, ErrMsgPaymentPendingUser
	case domain.ErrorKindInvalidTransition:
		return http.StatusConflict, ErrMsgInvalidStateUser
	case domain.ErrorKindProviderFailure:
		return http.StatusBadGateway, ErrMsgProviderFailureUser
	case domain.ErrorKindListingNotPublishable:
		return http.StatusUnprocessableEntity, ErrMsgNotPublishableUser
	case domain.ErrorKindInternal:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}

// respondServiceError logs a failed service call and writes the mapped response.
// Invalid input keeps its own message since it names the offending field.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := domain.KindOf(err)
	status, msg := statusForKind(kind)

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(LogMsgServiceError, "op", op, "kind", kind.String(), "error", err)
	} else {
		log.Info(LogMsgServiceError, "op", op, "kind", kind.String(), "error", err)
	}

	var qe *domain.QuotaError
	if errors.As(err, &qe) {
		respondJSON(w, status, QuotaErrorResponse{Error: msg, Code: kind.String(), Needed: qe.Needed, Have: qe.Have})
		return
	}

	var de *domain.Error
	if kind == domain.ErrorKindInvalidInput && errors.As(err, &de) {
		msg = de.Msg
	}
	respondJSON(w, status, ErrorResponse{Error: msg, Code: kind.String()})
}
