package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

func TestHandlePublish(t *testing.T) {
	listingID, userID := uuid.NewString(), uuid.NewString()
	body := `{"user_id":"` + userID + `"}`

	t.Run("charged", func(t *testing.T) {
		svc := new(MockListingService)
		svc.On("Publish", mock.Anything, listingID, userID).Return(&domain.PublishResult{
			Listing: domain.Listing{ID: listingID, IsPublished: true, SlotConsumed: true},
			Charged: true,
		}, nil)
		h := NewListingHandler(svc)

		w := serve(http.MethodPost, "/listings/{id}/publish", h.HandlePublish, "/listings/"+listingID+"/publish", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"charged":true`)
	})

	t.Run("out of quota", func(t *testing.T) {
		svc := new(MockListingService)
		svc.On("Publish", mock.Anything, listingID, userID).
			Return(nil, &domain.QuotaError{Kind: domain.ErrorKindInsufficientListingQuota, Needed: 1, Have: 0})
		h := NewListingHandler(svc)

		w := serve(http.MethodPost, "/listings/{id}/publish", h.HandlePublish, "/listings/"+listingID+"/publish", body)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.JSONEq(t, `{"error":"`+ErrMsgListingQuotaUser+`","code":"INSUFFICIENT_LISTING_QUOTA","needed":1,"have":0}`, w.Body.String())
	})

	t.Run("missing user", func(t *testing.T) {
		svc := new(MockListingService)
		h := NewListingHandler(svc)

		w := serve(http.MethodPost, "/listings/{id}/publish", h.HandlePublish, "/listings/"+listingID+"/publish", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleCreateAndUnpublishListing(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(svc)
	ownerID, listingID := uuid.NewString(), uuid.NewString()

	svc.On("Create", mock.Anything, domain.CreateListingRequest{OwnerID: ownerID, Title: "Studio", IsFeatured: true}).
		Return(&domain.Listing{ID: listingID, OwnerID: ownerID, Title: "Studio", IsFeatured: true}, nil)
	w := serve(http.MethodPost, "/listings", h.HandleCreate, "/listings",
		`{"owner_id":"`+ownerID+`","title":"Studio","is_featured":true}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.On("Unpublish", mock.Anything, listingID, ownerID).Return(nil, domain.ErrOwnershipViolation)
	w = serve(http.MethodPost, "/listings/{id}/unpublish", h.HandleUnpublish, "/listings/"+listingID+"/unpublish",
		`{"user_id":"`+ownerID+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}
