package workflow

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/config"
	"github.com/shidalgo0925/relatic-integration/models"
)

// SaleInput is the fully normalized content of one sale event.
type SaleInput struct {
	OrderRef string
	Member   MemberInput
	Items    []OrderItem
	Payment  PaymentInput
}

// SaleOutcome reports what the pipeline produced for a sale event.
type SaleOutcome struct {
	Contact     *models.Contact
	Invoice     *models.AccountMove
	PaymentMove *models.AccountMove
	// AlreadyExists is set when the order had been fully processed before and
	// no new documents were created.
	AlreadyExists bool
}

// ProcessSale runs the full pipeline for one order inside the caller's
// transaction: advisory lock, duplicate recheck, contact upsert, invoice
// posting, payment registration and reconciliation. Any error leaves the
// transaction to roll back, so either every document exists or none does.
func ProcessSale(tx *gorm.DB, logger *logrus.Logger, settings *config.Settings, sale SaleInput, syncLogId *int) (*SaleOutcome, error) {
	if err := AcquireOrderPostingLock(tx, sale.OrderRef); err != nil {
		return nil, err
	}
	defer ReleaseOrderPostingLock(tx, sale.OrderRef)

	// Recheck under the lock: a concurrent delivery may have won the race
	// after the caller's fast-path probe.
	existing, err := models.SearchInvoiceByOrderRef(tx, sale.OrderRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		contact, err := models.GetContactByEmail(tx, sale.Member.Email)
		if err != nil {
			return nil, err
		}
		return &SaleOutcome{Contact: contact, Invoice: existing, AlreadyExists: true}, nil
	}

	contact, err := CreateOrUpdateContact(tx, logger, sale.Member, settings.DefaultCountryCode, syncLogId)
	if err != nil {
		return nil, err
	}

	invoice, err := CreateInvoice(tx, logger, contact, sale.OrderRef, sale.Payment.Date, sale.Items, settings.AutoCreateProducts, syncLogId)
	if err != nil {
		// The UNIQUE constraint on order_ref is the last line of defense; a
		// duplicate key here means another delivery won despite the lock.
		// This transaction's REPEATABLE READ snapshot may predate the
		// winner's commit, so re-read on a fresh connection outside it.
		if isDuplicateKeyErr(err) {
			base := config.GetDB()
			if base == nil {
				base = tx
			}
			winner, serr := models.SearchInvoiceByOrderRef(base, sale.OrderRef)
			if serr == nil && winner != nil {
				return &SaleOutcome{Contact: contact, Invoice: winner, AlreadyExists: true}, nil
			}
		}
		return nil, err
	}

	paymentMove, err := RegisterPayment(tx, logger, invoice, contact, sale.Payment, false, syncLogId)
	if err != nil {
		return nil, err
	}

	return &SaleOutcome{
		Contact:     contact,
		Invoice:     invoice,
		PaymentMove: paymentMove,
	}, nil
}
