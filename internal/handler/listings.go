package handler

import (
	"net/http"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/listing"
)

// PublishRequest names the user acting on the listing
type PublishRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// ListingHandler serves the publish boundary
type ListingHandler struct {
	service listing.Service
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service listing.Service) *ListingHandler {
	return &ListingHandler{service: service}
}

// HandleCreate creates a draft listing
// @Summary Create draft listing
// @Tags listings
// @Accept json
// @Produce json
// @Param request body domain.CreateListingRequest true "Listing"
// @Success 201 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/listings [post]
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateListingRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create listing"); err != nil {
		return
	}
	l, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, "Create listing", err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

// HandlePublish publishes a listing, charging quota on its first publish
// @Summary Publish listing
// @Description Charges one listing slot, plus one featured slot for featured listings, unless the listing already consumed its slot
// @Tags listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param request body PublishRequest true "Acting user"
// @Success 200 {object} domain.PublishResult
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} QuotaErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/listings/{id}/publish [post]
func (h *ListingHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	listingID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Publish listing"); err != nil {
		return
	}
	res, err := h.service.Publish(r.Context(), listingID, req.UserID)
	if err != nil {
		respondServiceError(w, r, "Publish listing", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// HandleUnpublish takes a listing offline; its slot stays consumed
// @Summary Unpublish listing
// @Tags listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param request body PublishRequest true "Acting user"
// @Success 200 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/listings/{id}/unpublish [post]
func (h *ListingHandler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	listingID, ok := URLParamID(r, w, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Unpublish listing"); err != nil {
		return
	}
	l, err := h.service.Unpublish(r.Context(), listingID, req.UserID)
	if err != nil {
		respondServiceError(w, r, "Unpublish listing", err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}
