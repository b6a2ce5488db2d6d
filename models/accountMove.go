package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountMove is one ledger document: a customer invoice, a credit note, or a
// plain journal entry (settlements are entries). Invoices and credit notes
// carry the external order reference; the UNIQUE constraint on it is the last
// line of defense against duplicate processing, since application locking
// alone is not trusted.
type AccountMove struct {
	ID           int          `gorm:"primary_key" json:"id"`
	MoveType     MoveType     `gorm:"type:enum('Invoice','CreditNote','Entry');index;size:12;not null" json:"move_type"`
	State        MoveState    `gorm:"type:enum('Draft','Posted');default:'Draft';index;size:8;not null" json:"state"`
	PaymentState PaymentState `gorm:"type:enum('NotPaid','Partial','Paid');default:'NotPaid';size:8;not null" json:"payment_state"`
	// Name is the document number, assigned at posting time.
	Name string `gorm:"size:30;index" json:"name"`
	// OrderRef is the external business key. Nullable: plain entries have none.
	// Never copied onto derived documents (refunds get "<ref>-REFUND").
	OrderRef  *string `gorm:"size:72;uniqueIndex:uniq_move_order_ref" json:"order_ref"`
	ContactId int     `gorm:"index" json:"contact_id"`
	JournalId int     `gorm:"index" json:"journal_id"`
	// Ref is the free-form payment/document reference from the source system.
	Ref            string             `gorm:"size:255" json:"ref"`
	Date           time.Time          `json:"date"`
	AmountUntaxed  decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"amount_untaxed"`
	AmountTax      decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"amount_tax"`
	AmountTotal    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"amount_total"`
	AmountResidual decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"amount_residual"`
	Lines          []*AccountMoveLine `gorm:"foreignKey:MoveId" json:"lines"`
	// SyncLogId is a nullable weak reference for traceability only.
	SyncLogId *int       `json:"sync_log_id"`
	PostedAt  *time.Time `json:"posted_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type AccountMoveLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	MoveId      int             `gorm:"index;not null" json:"move_id"`
	AccountId   int             `gorm:"index;not null" json:"account_id"`
	ContactId   int             `gorm:"index" json:"contact_id"`
	ProductId   int             `json:"product_id"`
	TaxId       int             `json:"tax_id"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	// AmountResidual tracks the unmatched portion of reconcilable lines.
	AmountResidual decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_residual"`
	Reconciled     *bool           `gorm:"not null;default:false" json:"reconciled"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PartialReconcile links one receivable debit line (invoice side) to one
// receivable credit line (settlement side) for a matched amount.
type PartialReconcile struct {
	ID           int             `gorm:"primary_key" json:"id"`
	DebitLineId  int             `gorm:"index;not null" json:"debit_line_id"`
	CreditLineId int             `gorm:"index;not null" json:"credit_line_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// SearchMoveByOrderRef finds a posted-or-draft move by its external key and
// type. Returns (nil, nil) when absent.
func SearchMoveByOrderRef(tx *gorm.DB, moveType MoveType, orderRef string) (*AccountMove, error) {
	var move AccountMove
	err := tx.Where("move_type = ? AND order_ref = ?", moveType, orderRef).Take(&move).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &move, nil
}

// SearchInvoiceByOrderRef is the idempotency probe used by the fast path.
func SearchInvoiceByOrderRef(tx *gorm.DB, orderRef string) (*AccountMove, error) {
	return SearchMoveByOrderRef(tx, MoveTypeInvoice, orderRef)
}

// UnreconciledLines returns the move's open lines on the given reconcilable
// account, oldest first.
func (m *AccountMove) UnreconciledLines(tx *gorm.DB, accountId int) ([]*AccountMoveLine, error) {
	var lines []*AccountMoveLine
	err := tx.Where("move_id = ? AND account_id = ? AND reconciled = false", m.ID, accountId).
		Order("id").Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
