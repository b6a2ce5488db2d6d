package workflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/config"
	"github.com/shidalgo0925/relatic-integration/models"
)

// RefundOrderRef derives the credit note's own business key from the original
// order reference.
func RefundOrderRef(orderRef string) string {
	return orderRef + "-REFUND"
}

// CreateRefund posts a credit note mirroring the order's invoice with negated
// lines. Idempotent on "<order_ref>-REFUND": a repeated call returns the
// existing credit note. The original invoice must exist and be posted.
func CreateRefund(tx *gorm.DB, logger *logrus.Logger, orderRef, reason string, syncLogId *int) (*models.AccountMove, error) {
	refundRef := RefundOrderRef(orderRef)
	existing, err := models.SearchMoveByOrderRef(tx, models.MoveTypeCreditNote, refundRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	invoice, err := models.SearchInvoiceByOrderRef(tx, orderRef)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, NewBusinessError(ErrCodeInvoiceNotFound, fmt.Sprintf("no invoice found for order_ref %q", orderRef))
	}
	if invoice.State != models.MoveStatePosted {
		return nil, NewBusinessError(ErrCodeInvoiceNotPosted, fmt.Sprintf("invoice %d is not posted", invoice.ID))
	}

	var invoiceLines []*models.AccountMoveLine
	if err := tx.Where("move_id = ?", invoice.ID).Order("id").Find(&invoiceLines).Error; err != nil {
		return nil, err
	}

	ref := reason
	if ref == "" {
		ref = fmt.Sprintf("Refund of %s", invoice.Name)
	}
	move := models.AccountMove{
		MoveType:  models.MoveTypeCreditNote,
		State:     models.MoveStateDraft,
		OrderRef:  &refundRef,
		ContactId: invoice.ContactId,
		JournalId: invoice.JournalId,
		Ref:       ref,
		Date:      time.Now(),
		SyncLogId: syncLogId,
	}
	if err := tx.Create(&move).Error; err != nil {
		config.LogError(logger, "workflow", "CreateRefund", "create credit note", orderRef, err)
		return nil, err
	}

	for _, invoiceLine := range invoiceLines {
		line := models.AccountMoveLine{
			MoveId:      move.ID,
			AccountId:   invoiceLine.AccountId,
			ContactId:   invoiceLine.ContactId,
			ProductId:   invoiceLine.ProductId,
			TaxId:       invoiceLine.TaxId,
			Description: invoiceLine.Description,
			Quantity:    invoiceLine.Quantity.Neg(),
			UnitPrice:   invoiceLine.UnitPrice,
		}
		applySignedAmount(&line, invoiceLine.Debit.Sub(invoiceLine.Credit))
		if err := tx.Create(&line).Error; err != nil {
			return nil, err
		}
	}

	err = tx.Model(&move).Updates(map[string]interface{}{
		"amount_untaxed":  invoice.AmountUntaxed.Neg(),
		"amount_tax":      invoice.AmountTax.Neg(),
		"amount_total":    invoice.AmountTotal.Neg(),
		"amount_residual": decimal.Zero,
	}).Error
	if err != nil {
		return nil, err
	}
	move.AmountUntaxed = invoice.AmountUntaxed.Neg()
	move.AmountTax = invoice.AmountTax.Neg()
	move.AmountTotal = invoice.AmountTotal.Neg()

	if err := postMove(tx, &move); err != nil {
		return nil, err
	}
	return &move, nil
}
