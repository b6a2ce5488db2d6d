package workflow

import (
	"errors"
	"testing"
)

func TestSettlementAmount_FullExactMatch(t *testing.T) {
	applied, err := settlementAmount(d("120.00"), d("120.00"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Equal(d("120.00")) {
		t.Fatalf("expected 120.00, got %s", applied)
	}
}

func TestSettlementAmount_FullWithinToleranceClosesResidual(t *testing.T) {
	// One cent over still settles the full residual, not the requested amount.
	applied, err := settlementAmount(d("120.01"), d("120.00"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Equal(d("120.00")) {
		t.Fatalf("expected residual 120.00 applied, got %s", applied)
	}

	applied, err = settlementAmount(d("119.99"), d("120.00"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Equal(d("120.00")) {
		t.Fatalf("expected residual 120.00 applied, got %s", applied)
	}
}

func TestSettlementAmount_FullBeyondToleranceRejected(t *testing.T) {
	_, err := settlementAmount(d("119.98"), d("120.00"), false)
	if err == nil {
		t.Fatal("expected AMOUNT_MISMATCH")
	}
	var businessErr *BusinessError
	if !errors.As(err, &businessErr) || businessErr.Code != ErrCodeAmountMismatch {
		t.Fatalf("expected %s, got %v", ErrCodeAmountMismatch, err)
	}
}

func TestSettlementAmount_PartialClampsToResidual(t *testing.T) {
	applied, err := settlementAmount(d("200.00"), d("120.00"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Equal(d("120.00")) {
		t.Fatalf("expected clamp to 120.00, got %s", applied)
	}
}

func TestSettlementAmount_PartialBelowResidual(t *testing.T) {
	applied, err := settlementAmount(d("40.00"), d("100.00"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied.Equal(d("40.00")) {
		t.Fatalf("expected 40.00, got %s", applied)
	}
}
