package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

func TestValidator_Phone(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"local format", "0712345678", false},
		{"international with plus", "+254712345678", false},
		{"spaces and dashes", "0712-345 678", false},
		{"too short", "0712", true},
		{"letters", "07123abc78", true},
		{"empty is required", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(domain.InitiatePaymentRequest{
				UserID: uuid.NewString(), PlanID: uuid.NewString(), AmountCents: 100, PhoneNumber: tt.phone,
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatValidationError_UsesJSONNames(t *testing.T) {
	InitValidator()
	err := GetValidator().ValidateStruct(domain.PlanInput{Name: "", DurationDays: 0, ListingQuota: -1})
	require.Error(t, err)

	fields := FormatValidationError(err)
	assert.Equal(t, "This field is required", fields["name"])
	assert.Equal(t, "Must be greater than 0", fields["duration_days"])
	assert.Equal(t, "Must be at least 0", fields["listing_quota"])
	assert.NotContains(t, fields, "DurationDays")
}

func TestFormatValidationError_NonValidatorError(t *testing.T) {
	fields := FormatValidationError(assert.AnError)
	assert.Equal(t, "Invalid request format", fields["error"])
	assert.Nil(t, FormatValidationError(nil))
}
