package workflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/models"
	"github.com/shidalgo0925/relatic-integration/utils"
)

func documentPrefix(moveType models.MoveType) string {
	switch moveType {
	case models.MoveTypeInvoice:
		return "INV"
	case models.MoveTypeCreditNote:
		return "CN"
	default:
		return "PAY"
	}
}

// postMove transitions a draft move to Posted. It verifies the double-entry
// balance, assigns the document number from the move id, stamps PostedAt, and
// opens residuals on reconcilable lines. The move must already be persisted
// with its lines.
func postMove(tx *gorm.DB, move *models.AccountMove) error {
	if move.State == models.MoveStatePosted {
		return nil
	}

	var lines []*models.AccountMoveLine
	if err := tx.Where("move_id = ?", move.ID).Find(&lines).Error; err != nil {
		return err
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return NewBusinessError(ErrCodeUnbalancedMove,
			fmt.Sprintf("move %d does not balance: debit=%s credit=%s", move.ID, totalDebit, totalCredit))
	}

	for _, line := range lines {
		account, err := models.GetAccount(tx, line.AccountId)
		if err != nil {
			return err
		}
		if account.Reconcilable == nil || !*account.Reconcilable {
			continue
		}
		residual := line.Debit.Sub(line.Credit).Abs()
		err = tx.Model(line).Updates(map[string]interface{}{
			"amount_residual": residual,
			"reconciled":      false,
		}).Error
		if err != nil {
			return err
		}
		line.AmountResidual = residual
		line.Reconciled = utils.NewFalse()
	}

	now := time.Now()
	name := fmt.Sprintf("%s/%06d", documentPrefix(move.MoveType), move.ID)
	err := tx.Model(move).Updates(map[string]interface{}{
		"state":     models.MoveStatePosted,
		"name":      name,
		"posted_at": now,
	}).Error
	if err != nil {
		return err
	}
	move.State = models.MoveStatePosted
	move.Name = name
	move.PostedAt = &now
	move.Lines = lines
	return nil
}
