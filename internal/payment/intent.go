package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// IntentKey identifies a purchase intent: the same user buying the same plan at the same
// amount for the same target (or a new term) always yields the same key.
func IntentKey(userID, planID string, amountCents int64, targetSubscriptionID *string) string {
	target := domain.IntentKeyNewTerm
	if targetSubscriptionID != nil && *targetSubscriptionID != "" {
		target = *targetSubscriptionID
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		userID, planID, strconv.FormatInt(amountCents, 10), target,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// retryIdempotencyKey salts the intent key for a fresh attempt after a finished one
func retryIdempotencyKey(intentKey string, now time.Time) string {
	return intentKey + domain.IdempotencyRetrySeparator + strconv.FormatInt(now.UnixNano(), 10)
}

// NormalizePhone reduces a payer number to international digits without '+'.
// Local numbers (07XXXXXXXX or 7XXXXXXXX) get the default country code.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgInvalidPhoneNumber)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", domain.NewError(domain.ErrorKindInvalidInput, ErrMsgPhoneRequired)
	}

	switch {
	case len(digits) == localNumberDigits+1 && digits[0] == '0':
		digits = DefaultCountryCode + digits[1:]
	case len(digits) == localNumberDigits && digits[0] != '0':
		digits = DefaultCountryCode + digits
	}

	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits || digits[0] == '0' {
		return "", domain.NewError(domain.ErrorKindInvalidInput, domain.ErrMsgInvalidPhoneNumber)
	}
	return digits, nil
}
