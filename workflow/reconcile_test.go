package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shidalgo0925/relatic-integration/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAllocateReconciliation_FullMatch(t *testing.T) {
	debits := []LineAmount{{LineId: 1, Residual: d("150.00")}}
	credits := []LineAmount{{LineId: 2, Residual: d("150.00")}}

	allocations := AllocateReconciliation(debits, credits)
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	a := allocations[0]
	if a.DebitLineId != 1 || a.CreditLineId != 2 || !a.Amount.Equal(d("150.00")) {
		t.Fatalf("unexpected allocation %+v", a)
	}
}

func TestAllocateReconciliation_PartialCredit(t *testing.T) {
	debits := []LineAmount{{LineId: 1, Residual: d("150.00")}}
	credits := []LineAmount{{LineId: 2, Residual: d("100.00")}}

	allocations := AllocateReconciliation(debits, credits)
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if !allocations[0].Amount.Equal(d("100.00")) {
		t.Fatalf("expected matched amount 100.00, got %s", allocations[0].Amount)
	}
}

func TestAllocateReconciliation_OneCreditAcrossTwoDebits(t *testing.T) {
	debits := []LineAmount{
		{LineId: 1, Residual: d("60.00")},
		{LineId: 2, Residual: d("40.00")},
	}
	credits := []LineAmount{{LineId: 3, Residual: d("100.00")}}

	allocations := AllocateReconciliation(debits, credits)
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if !allocations[0].Amount.Equal(d("60.00")) || allocations[0].DebitLineId != 1 {
		t.Fatalf("unexpected first allocation %+v", allocations[0])
	}
	if !allocations[1].Amount.Equal(d("40.00")) || allocations[1].DebitLineId != 2 {
		t.Fatalf("unexpected second allocation %+v", allocations[1])
	}
}

func TestAllocateReconciliation_TwoCreditsAgainstOneDebit(t *testing.T) {
	debits := []LineAmount{{LineId: 1, Residual: d("100.00")}}
	credits := []LineAmount{
		{LineId: 2, Residual: d("30.00")},
		{LineId: 3, Residual: d("50.00")},
	}

	allocations := AllocateReconciliation(debits, credits)
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	// 20.00 remains open on the debit side.
	if !total.Equal(d("80.00")) {
		t.Fatalf("expected 80.00 matched, got %s", total)
	}
}

func TestAllocateReconciliation_NoCredits(t *testing.T) {
	debits := []LineAmount{{LineId: 1, Residual: d("100.00")}}

	if allocations := AllocateReconciliation(debits, nil); len(allocations) != 0 {
		t.Fatalf("expected no allocations, got %d", len(allocations))
	}
}

func TestApplySignedAmount(t *testing.T) {
	cases := []struct {
		amount string
		debit  string
		credit string
	}{
		{"120.00", "0", "120.00"},
		{"-120.00", "120.00", "0"},
		{"0", "0", "0"},
	}
	for _, tc := range cases {
		line := &models.AccountMoveLine{}
		applySignedAmount(line, d(tc.amount))
		if !line.Debit.Equal(d(tc.debit)) || !line.Credit.Equal(d(tc.credit)) {
			t.Fatalf("amount %s: got debit=%s credit=%s", tc.amount, line.Debit, line.Credit)
		}
	}
}
