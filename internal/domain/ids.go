package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateID rejects ids that are not UUIDs before they reach the database
func ValidateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewError(ErrorKindInvalidInput, fmt.Sprintf("%s: invalid %s", ErrMsgInvalidInput, field))
	}
	return nil
}
