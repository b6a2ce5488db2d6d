package relaticsync

import (
	"encoding/json"
	"testing"
	"time"
)

func basePayload() map[string]interface{} {
	raw := `{
		"meta": {"version": "1.0", "source": "membresia-relatic", "environment": "prod", "timestamp": "2026-01-10T10:00:00Z"},
		"order_id": "ORD-1001",
		"member": {"email": "ana@example.com", "name": "Ana Diaz", "phone": "+50760000000", "vat": "8-123-456"},
		"items": [{"sku": "MEM-PRO", "name": "Pro Membership", "qty": 1, "price": 120.0}],
		"payment": {"method": "YAPPY", "amount": 120.0, "reference": "PAY-1", "date": "2026-01-10"}
	}`
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		panic(err)
	}
	payload["payment"].(map[string]interface{})["date"] = time.Now().Format("2006-01-02")
	return payload
}

func assertRejected(t *testing.T, payload map[string]interface{}, wantCode string) {
	t.Helper()
	err := ValidatePayload(payload)
	if err == nil {
		t.Fatalf("expected rejection with code %s, got nil", wantCode)
	}
	if err.Code != wantCode {
		t.Fatalf("expected code %s, got %s (%s)", wantCode, err.Code, err.Message)
	}
}

func TestValidatePayload_Valid(t *testing.T) {
	if err := ValidatePayload(basePayload()); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidatePayload_MissingMeta(t *testing.T) {
	payload := basePayload()
	delete(payload, "meta")
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_MetaMissingEnvironment(t *testing.T) {
	payload := basePayload()
	payload["meta"].(map[string]interface{})["environment"] = ""
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_EmptyOrderId(t *testing.T) {
	payload := basePayload()
	payload["order_id"] = "   "
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_BadEmail(t *testing.T) {
	payload := basePayload()
	payload["member"].(map[string]interface{})["email"] = "not-an-email"
	assertRejected(t, payload, ErrCodeInvalidEmail)
}

func TestValidatePayload_MissingName(t *testing.T) {
	payload := basePayload()
	delete(payload["member"].(map[string]interface{}), "name")
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_ShortVat(t *testing.T) {
	payload := basePayload()
	payload["member"].(map[string]interface{})["vat"] = "ab"
	assertRejected(t, payload, ErrCodeInvalidVat)
}

func TestValidatePayload_VatAbsentIsFine(t *testing.T) {
	payload := basePayload()
	delete(payload["member"].(map[string]interface{}), "vat")
	if err := ValidatePayload(payload); err != nil {
		t.Fatalf("expected valid payload without vat, got %v", err)
	}
}

func TestValidatePayload_EmptyItems(t *testing.T) {
	payload := basePayload()
	payload["items"] = []interface{}{}
	assertRejected(t, payload, ErrCodeEmptyItems)
}

func TestValidatePayload_ZeroQuantity(t *testing.T) {
	payload := basePayload()
	payload["items"].([]interface{})[0].(map[string]interface{})["qty"] = float64(0)
	assertRejected(t, payload, ErrCodeInvalidQuantity)
}

func TestValidatePayload_NonNumericQuantity(t *testing.T) {
	payload := basePayload()
	payload["items"].([]interface{})[0].(map[string]interface{})["qty"] = "two"
	assertRejected(t, payload, ErrCodeInvalidQuantity)
}

func TestValidatePayload_NegativePrice(t *testing.T) {
	payload := basePayload()
	payload["items"].([]interface{})[0].(map[string]interface{})["price"] = float64(-1)
	assertRejected(t, payload, ErrCodeInvalidPrice)
}

func TestValidatePayload_TwoItemsMatchingAmount(t *testing.T) {
	payload := basePayload()
	payload["items"] = []interface{}{
		map[string]interface{}{"sku": "MEM-PRO", "name": "Pro Membership", "qty": float64(1), "price": float64(120)},
		map[string]interface{}{"sku": "WKS-01", "name": "Workshop", "qty": float64(2), "price": float64(15)},
	}
	payload["payment"].(map[string]interface{})["amount"] = float64(150.00)
	if err := ValidatePayload(payload); err != nil {
		t.Fatalf("expected 1x120 + 2x15 = 150.00 to validate, got %v", err)
	}
}

func TestValidatePayload_AmountWithinTolerance(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["amount"] = float64(120.01)
	if err := ValidatePayload(payload); err != nil {
		t.Fatalf("expected amount within 0.01 tolerance to validate, got %v", err)
	}
}

func TestValidatePayload_AmountMismatch(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["amount"] = float64(119.50)
	assertRejected(t, payload, ErrCodeAmountMismatch)
}

func TestValidatePayload_PaymentMissingReference(t *testing.T) {
	payload := basePayload()
	delete(payload["payment"].(map[string]interface{}), "reference")
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_NonNumericAmount(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["amount"] = "120"
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_BadDate(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["date"] = "10/01/2026"
	assertRejected(t, payload, ErrCodeInvalidDate)
}

func TestValidatePayload_FutureDate(t *testing.T) {
	payload := basePayload()
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	payload["payment"].(map[string]interface{})["date"] = tomorrow
	assertRejected(t, payload, ErrCodeInvalidDate)
}

func TestValidatePayload_MissingPaymentWinsOverBadEmail(t *testing.T) {
	payload := basePayload()
	delete(payload, "payment")
	payload["member"].(map[string]interface{})["email"] = "not-an-email"
	assertRejected(t, payload, ErrCodeInvalidPayload)
}

func TestValidatePayload_EmptyItemsWinsOverShortVat(t *testing.T) {
	payload := basePayload()
	payload["items"] = []interface{}{}
	payload["member"].(map[string]interface{})["vat"] = "ab"
	assertRejected(t, payload, ErrCodeEmptyItems)
}

func TestValidatePayload_BadDateWinsOverShortVat(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["date"] = "not-a-date"
	payload["member"].(map[string]interface{})["vat"] = "ab"
	assertRejected(t, payload, ErrCodeInvalidDate)
}

func TestValidatePayload_TodayIsAccepted(t *testing.T) {
	payload := basePayload()
	payload["payment"].(map[string]interface{})["date"] = time.Now().Format("2006-01-02")
	if err := ValidatePayload(payload); err != nil {
		t.Fatalf("expected today's date to validate, got %v", err)
	}
}
