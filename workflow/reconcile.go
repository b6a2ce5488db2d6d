package workflow

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/models"
	"github.com/shidalgo0925/relatic-integration/utils"
)

// LineAmount is the open portion of one reconcilable ledger line.
type LineAmount struct {
	LineId   int
	Residual decimal.Decimal
}

// ReconcileAllocation matches part of a debit line against part of a credit
// line.
type ReconcileAllocation struct {
	DebitLineId  int
	CreditLineId int
	Amount       decimal.Decimal
}

// AllocateReconciliation greedily matches open debit amounts against open
// credit amounts in order. Pure function; the caller applies the result.
func AllocateReconciliation(debits, credits []LineAmount) []ReconcileAllocation {
	var allocations []ReconcileAllocation
	ci := 0
	creditLeft := decimal.Zero
	if len(credits) > 0 {
		creditLeft = credits[0].Residual
	}
	for _, debit := range debits {
		debitLeft := debit.Residual
		for debitLeft.IsPositive() && ci < len(credits) {
			if !creditLeft.IsPositive() {
				ci++
				if ci < len(credits) {
					creditLeft = credits[ci].Residual
				}
				continue
			}
			matched := decimal.Min(debitLeft, creditLeft)
			allocations = append(allocations, ReconcileAllocation{
				DebitLineId:  debit.LineId,
				CreditLineId: credits[ci].LineId,
				Amount:       matched,
			})
			debitLeft = debitLeft.Sub(matched)
			creditLeft = creditLeft.Sub(matched)
		}
	}
	return allocations
}

// ReconcileMoves matches the settlement's receivable credit lines against the
// invoice's open receivable debit lines, records the partial reconcile links,
// updates line residuals, and recomputes the invoice residual and payment
// state.
func ReconcileMoves(tx *gorm.DB, invoice, settlement *models.AccountMove, receivableAccountId int) error {
	debitLines, err := invoice.UnreconciledLines(tx, receivableAccountId)
	if err != nil {
		return err
	}
	creditLines, err := settlement.UnreconciledLines(tx, receivableAccountId)
	if err != nil {
		return err
	}

	var debits, credits []LineAmount
	debitById := map[int]*models.AccountMoveLine{}
	creditById := map[int]*models.AccountMoveLine{}
	for _, line := range debitLines {
		if line.Debit.IsPositive() && line.AmountResidual.IsPositive() {
			debits = append(debits, LineAmount{LineId: line.ID, Residual: line.AmountResidual})
			debitById[line.ID] = line
		}
	}
	for _, line := range creditLines {
		if line.Credit.IsPositive() && line.AmountResidual.IsPositive() {
			credits = append(credits, LineAmount{LineId: line.ID, Residual: line.AmountResidual})
			creditById[line.ID] = line
		}
	}

	for _, allocation := range AllocateReconciliation(debits, credits) {
		record := models.PartialReconcile{
			DebitLineId:  allocation.DebitLineId,
			CreditLineId: allocation.CreditLineId,
			Amount:       allocation.Amount,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if err := settleLine(tx, debitById[allocation.DebitLineId], allocation.Amount); err != nil {
			return err
		}
		if err := settleLine(tx, creditById[allocation.CreditLineId], allocation.Amount); err != nil {
			return err
		}
	}

	return refreshInvoiceResidual(tx, invoice, receivableAccountId)
}

func settleLine(tx *gorm.DB, line *models.AccountMoveLine, amount decimal.Decimal) error {
	residual := line.AmountResidual.Sub(amount)
	reconciled := !residual.IsPositive()
	err := tx.Model(line).Updates(map[string]interface{}{
		"amount_residual": residual,
		"reconciled":      reconciled,
	}).Error
	if err != nil {
		return err
	}
	line.AmountResidual = residual
	if reconciled {
		line.Reconciled = utils.NewTrue()
	}
	return nil
}

func refreshInvoiceResidual(tx *gorm.DB, invoice *models.AccountMove, receivableAccountId int) error {
	var lines []*models.AccountMoveLine
	err := tx.Where("move_id = ? AND account_id = ?", invoice.ID, receivableAccountId).Find(&lines).Error
	if err != nil {
		return err
	}
	residual := decimal.Zero
	for _, line := range lines {
		residual = residual.Add(line.AmountResidual)
	}

	paymentState := models.PaymentStateNotPaid
	switch {
	case !residual.IsPositive():
		paymentState = models.PaymentStatePaid
	case residual.LessThan(invoice.AmountTotal.Abs()):
		paymentState = models.PaymentStatePartial
	}

	err = tx.Model(invoice).Updates(map[string]interface{}{
		"amount_residual": residual,
		"payment_state":   paymentState,
	}).Error
	if err != nil {
		return err
	}
	invoice.AmountResidual = residual
	invoice.PaymentState = paymentState
	return nil
}
