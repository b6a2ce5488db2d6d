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

// PaymentMethods lists the accepted payment method codes. Each maps to a bank
// journal of the same name.
var PaymentMethods = map[string]bool{
	"YAPPY":         true,
	"TARJETA":       true,
	"TRANSFERENCIA": true,
}

// amountTolerance absorbs rounding drift between the source system and the
// ledger when comparing settlement amounts.
var amountTolerance = decimal.NewFromFloat(0.01)

// PaymentInput is the normalized payment block of a sale payload.
type PaymentInput struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
	Date      time.Time
}

// RegisterPayment posts a journal entry settling the invoice and reconciles
// it against the invoice's open receivable. Full settlements must match the
// residual within tolerance; partial mode clamps the applied amount to the
// open residual instead.
func RegisterPayment(tx *gorm.DB, logger *logrus.Logger, invoice *models.AccountMove, contact *models.Contact, payment PaymentInput, partial bool, syncLogId *int) (*models.AccountMove, error) {
	if invoice.State != models.MoveStatePosted {
		return nil, NewBusinessError(ErrCodeInvoiceNotPosted, fmt.Sprintf("invoice %d is not posted", invoice.ID))
	}
	if !payment.Amount.IsPositive() {
		return nil, NewBusinessError(ErrCodeInvalidAmount, fmt.Sprintf("payment amount %s is not positive", payment.Amount))
	}

	if !PaymentMethods[payment.Method] {
		return nil, NewBusinessError(ErrCodeJournalNotFound, fmt.Sprintf("unsupported payment method %q", payment.Method))
	}
	journal, err := models.GetBankJournalByName(tx, payment.Method)
	if err != nil {
		return nil, err
	}
	if journal == nil {
		return nil, NewBusinessError(ErrCodeJournalNotFound, fmt.Sprintf("no bank journal configured for payment method %q", payment.Method))
	}
	if journal.DefaultAccountId == 0 {
		return nil, NewBusinessError(ErrCodeJournalNotFound, fmt.Sprintf("journal %q has no default account", journal.Name))
	}

	applied, amountErr := settlementAmount(payment.Amount, invoice.AmountResidual, partial)
	if amountErr != nil {
		return nil, amountErr
	}

	receivableId, err := invoiceReceivableAccountId(tx, invoice)
	if err != nil {
		return nil, err
	}

	date := payment.Date
	if date.IsZero() {
		date = time.Now()
	}
	move := models.AccountMove{
		MoveType:  models.MoveTypeEntry,
		State:     models.MoveStateDraft,
		ContactId: contact.ID,
		JournalId: journal.ID,
		Ref:       payment.Reference,
		Date:      date,
		SyncLogId: syncLogId,
	}
	if err := tx.Create(&move).Error; err != nil {
		config.LogError(logger, "workflow", "RegisterPayment", "create settlement", invoice.ID, err)
		return nil, err
	}

	bankLine := models.AccountMoveLine{
		MoveId:      move.ID,
		AccountId:   journal.DefaultAccountId,
		ContactId:   contact.ID,
		Description: fmt.Sprintf("Payment %s", payment.Method),
		Debit:       applied,
	}
	if err := tx.Create(&bankLine).Error; err != nil {
		return nil, err
	}
	receivableLine := models.AccountMoveLine{
		MoveId:      move.ID,
		AccountId:   receivableId,
		ContactId:   contact.ID,
		Description: fmt.Sprintf("Settlement %s", invoice.Name),
		Credit:      applied,
	}
	if err := tx.Create(&receivableLine).Error; err != nil {
		return nil, err
	}

	err = tx.Model(&move).Updates(map[string]interface{}{
		"amount_total": applied,
	}).Error
	if err != nil {
		return nil, err
	}
	move.AmountTotal = applied

	if err := postMove(tx, &move); err != nil {
		return nil, err
	}
	if err := ReconcileMoves(tx, invoice, &move, receivableId); err != nil {
		return nil, err
	}
	return &move, nil
}

// settlementAmount resolves the amount actually applied to the invoice.
// Partial mode clamps to the open residual. Full mode requires the requested
// amount to match the residual within tolerance and then applies the residual
// itself, so a tolerated rounding drift still closes the invoice instead of
// leaving a stray sub-cent residual.
func settlementAmount(requested, residual decimal.Decimal, partial bool) (decimal.Decimal, error) {
	if partial {
		return decimal.Min(requested, residual), nil
	}
	if requested.Sub(residual).Abs().GreaterThan(amountTolerance) {
		return decimal.Zero, NewBusinessError(ErrCodeAmountMismatch,
			fmt.Sprintf("payment amount %s does not match open residual %s", requested, residual))
	}
	return residual, nil
}

// invoiceReceivableAccountId finds the receivable account the invoice was
// posted against by inspecting its debit lines on reconcilable accounts.
func invoiceReceivableAccountId(tx *gorm.DB, invoice *models.AccountMove) (int, error) {
	var lines []*models.AccountMoveLine
	err := tx.Where("move_id = ? AND debit > 0", invoice.ID).Order("id").Find(&lines).Error
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		account, err := models.GetAccount(tx, line.AccountId)
		if err != nil {
			return 0, err
		}
		if account.Reconcilable != nil && *account.Reconcilable {
			return account.ID, nil
		}
	}
	return 0, NewBusinessError(ErrCodeReceivableAccountMissing, fmt.Sprintf("invoice %d has no reconcilable receivable line", invoice.ID))
}
