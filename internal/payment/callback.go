package payment

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// Keys tried, in order, for each callback field
var (
	referenceKeys   = []string{"CheckoutRequestID", "checkout_request_id", "checkoutRequestId", "reference", "external_ref"}
	resultCodeKeys  = []string{"ResultCode", "result_code", "resultCode", "status"}
	resultDescKeys  = []string{"ResultDesc", "result_desc", "resultDesc", "message", "description"}
	receiptKeys     = []string{"MpesaReceiptNumber", "receipt", "transaction_code", "TransactionCode", "receipt_number"}
	successStatuses = map[string]bool{"success": true, "successful": true, "completed": true, "paid": true}
	failureStatuses = map[string]bool{"failed": true, "failure": true, "cancelled": true, "canceled": true, "error": true, "declined": true, "timeout": true}
)

// ParseCallback extracts the fields reconciliation needs from a provider callback.
// Accepted shapes: {"Body":{"stkCallback":{...}}}, {"stkCallback":{...}}, a flat object and
// {"data":{...}}. ok is false when no reference can be found; such callbacks are acknowledged
// and dropped.
func ParseCallback(body []byte) (domain.Callback, bool) {
	var root map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return domain.Callback{}, false
	}

	node := callbackNode(root)
	cb := domain.Callback{
		Reference:  firstString(node, referenceKeys),
		ResultDesc: firstString(node, resultDescKeys),
	}
	if cb.Reference == "" {
		return cb, false
	}

	cb.ResultCode = firstString(node, resultCodeKeys)
	cb.Result = classify(cb.ResultCode)

	cb.TransactionCode = firstString(node, receiptKeys)
	if cb.TransactionCode == "" {
		cb.TransactionCode = metadataValue(node, receiptKeys)
	}
	return cb, true
}

func callbackNode(root map[string]any) map[string]any {
	if b, ok := root["Body"].(map[string]any); ok {
		if stk, ok := b["stkCallback"].(map[string]any); ok {
			return stk
		}
		return b
	}
	if stk, ok := root["stkCallback"].(map[string]any); ok {
		return stk
	}
	if data, ok := root["data"].(map[string]any); ok {
		return data
	}
	return root
}

// classify maps a result code or status word to an outcome. Code 0 is success and any
// other number is a failure.
func classify(code string) domain.CallbackResult {
	c := strings.ToLower(strings.TrimSpace(code))
	switch {
	case c == "":
		return domain.CallbackResultUnknown
	case c == "0":
		return domain.CallbackResultSuccess
	case isInteger(c):
		return domain.CallbackResultFailed
	case successStatuses[c]:
		return domain.CallbackResultSuccess
	case failureStatuses[c]:
		return domain.CallbackResultFailed
	}
	return domain.CallbackResultUnknown
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstString(node map[string]any, keys []string) string {
	for _, k := range keys {
		if v := scalarString(node[k]); v != "" {
			return v
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

// metadataValue searches CallbackMetadata.Item[{Name,Value}] for the first matching name
func metadataValue(node map[string]any, names []string) string {
	meta, ok := node["CallbackMetadata"].(map[string]any)
	if !ok {
		return ""
	}
	items, ok := meta["Item"].([]any)
	if !ok {
		return ""
	}
	for _, name := range names {
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if n, _ := item["Name"].(string); n == name {
				if v := scalarString(item["Value"]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
