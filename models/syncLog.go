package models

import (
	"time"

	"gorm.io/gorm"
)

// SyncLog is the append-only audit record of one ingestion attempt. Every
// inbound call gets its own row, duplicates included, and rows are never
// deleted. Only the owning request moves a row to a terminal status.
//
// The row is committed before the posting transaction starts, so it survives
// rollback as evidence of the attempt.
type SyncLog struct {
	ID          int    `gorm:"primary_key" json:"id"`
	OrderRef    string `gorm:"size:64;index;not null" json:"order_ref"`
	PayloadHash string `gorm:"size:64;index" json:"payload_hash"`
	// PayloadJSON keeps the raw business content for forensics and for the
	// operator-driven retry endpoint.
	PayloadJSON  []byte `gorm:"type:json" json:"payload"`
	Status       string `gorm:"size:10;not null;default:'pending';index" json:"status"`
	ErrorCode    string `gorm:"size:64" json:"error_code"`
	ErrorMessage string `gorm:"type:text" json:"error_message"`
	RetryCount   int    `gorm:"default:0" json:"retry_count"`
	// Weak references into the ledger; nullable both ways, no cascade.
	ContactId      *int       `json:"contact_id"`
	InvoiceId      *int       `json:"invoice_id"`
	PaymentMoveId  *int       `json:"payment_move_id"`
	PayloadVersion string     `gorm:"size:20" json:"payload_version"`
	Source         string     `gorm:"size:50" json:"source"`
	Environment    string     `gorm:"size:10" json:"environment"`
	DurationMs     int64      `json:"duration_ms"`
	ReceivedAt     time.Time  `gorm:"autoCreateTime" json:"received_at"`
	ProcessedAt    *time.Time `json:"processed_at"`
}

// CreateSyncLog persists a pending attempt record. Callers must do this on the
// base connection (not inside the posting transaction) so the record commits
// before any business mutation.
func CreateSyncLog(db *gorm.DB, orderRef, payloadHash string, payloadJSON []byte, version, source, environment string) (*SyncLog, error) {
	if source == "" {
		source = SyncSourceDefault
	}
	log := SyncLog{
		OrderRef:       orderRef,
		PayloadHash:    payloadHash,
		PayloadJSON:    payloadJSON,
		Status:         SyncStatusPending,
		PayloadVersion: version,
		Source:         source,
		Environment:    environment,
	}
	if err := db.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func GetSyncLog(db *gorm.DB, id int) (*SyncLog, error) {
	var log SyncLog
	if err := db.Take(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// LatestSuccessSyncLog returns the most recent successful attempt for an order
// reference, or nil when none exists. Used to echo the original linked ids on
// idempotent replays.
func LatestSuccessSyncLog(db *gorm.DB, orderRef string) *SyncLog {
	var log SyncLog
	err := db.Where("order_ref = ? AND status = ?", orderRef, SyncStatusSuccess).
		Order("id desc").First(&log).Error
	if err != nil {
		return nil
	}
	return &log
}

func (l *SyncLog) MarkSuccess(db *gorm.DB, contactId, invoiceId int, paymentMoveId *int, durationMs int64) error {
	now := time.Now()
	l.Status = SyncStatusSuccess
	l.ContactId = &contactId
	l.InvoiceId = &invoiceId
	l.PaymentMoveId = paymentMoveId
	l.DurationMs = durationMs
	l.ProcessedAt = &now
	return db.Model(l).Updates(map[string]interface{}{
		"status":          SyncStatusSuccess,
		"contact_id":      contactId,
		"invoice_id":      invoiceId,
		"payment_move_id": paymentMoveId,
		"duration_ms":     durationMs,
		"processed_at":    now,
	}).Error
}

// MarkError records a terminal failure. retry=true flags the attempt as
// retryable for an external scheduler; nothing in this service retries on its
// own.
func (l *SyncLog) MarkError(db *gorm.DB, errorCode, errorMessage string, retry bool, durationMs int64) error {
	now := time.Now()
	status := SyncStatusError
	if retry {
		status = SyncStatusRetry
	}
	l.Status = status
	l.ErrorCode = errorCode
	l.ErrorMessage = errorMessage
	l.RetryCount = l.RetryCount + 1
	l.DurationMs = durationMs
	l.ProcessedAt = &now
	return db.Model(l).Updates(map[string]interface{}{
		"status":        status,
		"error_code":    errorCode,
		"error_message": errorMessage,
		"retry_count":   gorm.Expr("retry_count + 1"),
		"duration_ms":   durationMs,
		"processed_at":  now,
	}).Error
}
