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

// CreateInvoice builds and posts the customer invoice for an order. Idempotent
// on the order reference: when a posted invoice already exists it is returned
// unchanged and nothing is written.
//
// Lines follow the signed-amount convention: income and tax amounts post as
// credits, negative amounts flip to debits, and the receivable counterpart
// takes the opposite side. Credit notes reuse this path with negated lines.
func CreateInvoice(tx *gorm.DB, logger *logrus.Logger, contact *models.Contact, orderRef string, orderDate time.Time, items []OrderItem, autoCreateProducts bool, syncLogId *int) (*models.AccountMove, error) {
	existing, err := models.SearchInvoiceByOrderRef(tx, orderRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	receivableId := contact.ReceivableAccountId
	if receivableId == 0 {
		receivable, err := models.GetDefaultReceivableAccount(tx)
		if err != nil {
			return nil, err
		}
		if receivable == nil {
			return nil, NewBusinessError(ErrCodeReceivableAccountMissing, "no active receivable account is configured")
		}
		receivableId = receivable.ID
	}

	move := models.AccountMove{
		MoveType:  models.MoveTypeInvoice,
		State:     models.MoveStateDraft,
		OrderRef:  &orderRef,
		ContactId: contact.ID,
		Date:      orderDate,
		SyncLogId: syncLogId,
	}
	if err := tx.Create(&move).Error; err != nil {
		config.LogError(logger, "workflow", "CreateInvoice", "create move", orderRef, err)
		return nil, err
	}

	amountUntaxed := decimal.Zero
	amountTax := decimal.Zero
	taxByAccount := map[int]decimal.Decimal{}
	taxIdByAccount := map[int]int{}

	for _, item := range items {
		product, err := resolveProduct(tx, item, autoCreateProducts)
		if err != nil {
			return nil, err
		}
		incomeAccountId, err := incomeAccountForProduct(tx, product)
		if err != nil {
			return nil, err
		}

		subtotal := item.Subtotal()
		amountUntaxed = amountUntaxed.Add(subtotal)

		var taxId int
		if item.TaxRate != nil && !item.TaxRate.IsZero() {
			tax, err := models.GetSaleTaxByRate(tx, *item.TaxRate)
			if err != nil {
				return nil, err
			}
			// An unconfigured rate is tolerated as zero-tax rather than
			// rejecting the sale.
			if tax != nil {
				taxId = tax.ID
				taxAmount := subtotal.Mul(tax.Rate).Div(decimal.NewFromInt(100))
				taxByAccount[tax.AccountId] = taxByAccount[tax.AccountId].Add(taxAmount)
				taxIdByAccount[tax.AccountId] = tax.ID
				amountTax = amountTax.Add(taxAmount)
			}
		}

		line := models.AccountMoveLine{
			MoveId:      move.ID,
			AccountId:   incomeAccountId,
			ContactId:   contact.ID,
			ProductId:   product.ID,
			TaxId:       taxId,
			Description: product.Name,
			Quantity:    item.Qty,
			UnitPrice:   item.UnitPrice,
		}
		applySignedAmount(&line, subtotal)
		if err := tx.Create(&line).Error; err != nil {
			return nil, err
		}
	}

	for accountId, taxAmount := range taxByAccount {
		line := models.AccountMoveLine{
			MoveId:      move.ID,
			AccountId:   accountId,
			ContactId:   contact.ID,
			TaxId:       taxIdByAccount[accountId],
			Description: "Tax",
		}
		applySignedAmount(&line, taxAmount)
		if err := tx.Create(&line).Error; err != nil {
			return nil, err
		}
	}

	amountTotal := amountUntaxed.Add(amountTax)
	receivableLine := models.AccountMoveLine{
		MoveId:      move.ID,
		AccountId:   receivableId,
		ContactId:   contact.ID,
		Description: fmt.Sprintf("Receivable %s", orderRef),
	}
	applySignedAmount(&receivableLine, amountTotal.Neg())
	if err := tx.Create(&receivableLine).Error; err != nil {
		return nil, err
	}

	err = tx.Model(&move).Updates(map[string]interface{}{
		"amount_untaxed":  amountUntaxed,
		"amount_tax":      amountTax,
		"amount_total":    amountTotal,
		"amount_residual": amountTotal.Abs(),
	}).Error
	if err != nil {
		return nil, err
	}
	move.AmountUntaxed = amountUntaxed
	move.AmountTax = amountTax
	move.AmountTotal = amountTotal
	move.AmountResidual = amountTotal.Abs()

	if err := postMove(tx, &move); err != nil {
		return nil, err
	}
	return &move, nil
}

// applySignedAmount places a signed amount on the credit side when positive
// and the debit side when negative. One rule covers invoices and their
// negated refund lines.
func applySignedAmount(line *models.AccountMoveLine, amount decimal.Decimal) {
	if amount.Sign() >= 0 {
		line.Credit = amount
	} else {
		line.Debit = amount.Abs()
	}
}
