package relaticsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeInvalidEmail     = "INVALID_EMAIL"
	ErrCodeEmptyItems       = "EMPTY_ITEMS"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeInvalidPrice     = "INVALID_PRICE"
	ErrCodeAmountMismatch   = "AMOUNT_MISMATCH"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeInvalidVat       = "INVALID_VAT"
	ErrCodeInvalidApiKey    = "INVALID_API_KEY"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// ValidationError is a typed rejection from the validation gate.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

func invalid(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var amountTolerance = decimal.NewFromFloat(0.01)

// ValidatePayload checks the raw decoded document against the intake rules.
// Pure function, no side effects; short-circuits on the first violation. It
// works on the generic decoding (JSON numbers arrive as float64) so type
// violations can be reported per field instead of failing the whole decode.
func ValidatePayload(payload map[string]interface{}) *ValidationError {
	// All required top-level fields first; later rules assume they exist.
	for _, field := range []string{"meta", "order_id", "member", "items", "payment"} {
		if _, present := payload[field]; !present {
			return invalid(ErrCodeInvalidPayload, "missing required field %s", field)
		}
	}

	meta, ok := payload["meta"].(map[string]interface{})
	if !ok {
		return invalid(ErrCodeInvalidPayload, "meta is not an object")
	}
	for _, field := range []string{"version", "source", "environment"} {
		if s, ok := meta[field].(string); !ok || s == "" {
			return invalid(ErrCodeInvalidPayload, "meta is missing %s", field)
		}
	}

	orderId, ok := payload["order_id"].(string)
	if !ok || strings.TrimSpace(orderId) == "" {
		return invalid(ErrCodeInvalidPayload, "order_id must be a non-empty string")
	}

	member, ok := payload["member"].(map[string]interface{})
	if !ok {
		return invalid(ErrCodeInvalidPayload, "member is not an object")
	}
	email, _ := member["email"].(string)
	if email == "" || !strings.Contains(email, "@") {
		return invalid(ErrCodeInvalidEmail, "member.email is missing or malformed")
	}
	if name, _ := member["name"].(string); strings.TrimSpace(name) == "" {
		return invalid(ErrCodeInvalidPayload, "member.name is required")
	}

	rawItems, ok := payload["items"].([]interface{})
	if !ok {
		return invalid(ErrCodeInvalidPayload, "items is not a list")
	}
	if len(rawItems) == 0 {
		return invalid(ErrCodeEmptyItems, "items must not be empty")
	}
	itemsTotal := decimal.Zero
	for i, rawItem := range rawItems {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			return invalid(ErrCodeInvalidPayload, "items[%d] is not an object", i)
		}
		if sku, _ := item["sku"].(string); strings.TrimSpace(sku) == "" {
			return invalid(ErrCodeInvalidPayload, "items[%d] is missing sku", i)
		}
		if name, _ := item["name"].(string); strings.TrimSpace(name) == "" {
			return invalid(ErrCodeInvalidPayload, "items[%d] is missing name", i)
		}
		qty, ok := item["qty"].(float64)
		if !ok || qty <= 0 {
			return invalid(ErrCodeInvalidQuantity, "items[%d].qty must be a number greater than zero", i)
		}
		price, ok := item["price"].(float64)
		if !ok || price < 0 {
			return invalid(ErrCodeInvalidPrice, "items[%d].price must be a non-negative number", i)
		}
		itemsTotal = itemsTotal.Add(decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)))
	}

	payment, ok := payload["payment"].(map[string]interface{})
	if !ok {
		return invalid(ErrCodeInvalidPayload, "payment is not an object")
	}
	for _, field := range []string{"method", "reference", "date"} {
		if s, ok := payment[field].(string); !ok || strings.TrimSpace(s) == "" {
			return invalid(ErrCodeInvalidPayload, "payment is missing %s", field)
		}
	}
	amount, ok := payment["amount"].(float64)
	if !ok {
		return invalid(ErrCodeInvalidPayload, "payment.amount must be a number")
	}
	if decimal.NewFromFloat(amount).Sub(itemsTotal).Abs().GreaterThan(amountTolerance) {
		return invalid(ErrCodeAmountMismatch,
			"payment.amount %.2f does not match items total %s", amount, itemsTotal.StringFixed(2))
	}

	dateStr, _ := payment["date"].(string)
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return invalid(ErrCodeInvalidDate, "payment.date %q is not a valid YYYY-MM-DD date", dateStr)
	}
	if date.Format("2006-01-02") > time.Now().Format("2006-01-02") {
		return invalid(ErrCodeInvalidDate, "payment.date %q is in the future", dateStr)
	}

	// VAT is the last rule: optional, and subordinate to every structural check.
	if vat, present := member["vat"]; present {
		s, ok := vat.(string)
		if !ok || len(strings.TrimSpace(s)) < 3 {
			return invalid(ErrCodeInvalidVat, "member.vat must be a string of at least 3 characters")
		}
	}

	return nil
}
