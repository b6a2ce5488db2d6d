package relaticsync

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shidalgo0925/relatic-integration/config"
	"github.com/shidalgo0925/relatic-integration/models"
	"github.com/shidalgo0925/relatic-integration/utils"
	"github.com/shidalgo0925/relatic-integration/workflow"
)

// SaleWebhookHandler is the single ingestion endpoint. One inbound call is one
// Sync Attempt: authenticate, verify integrity, validate, record the attempt,
// then process inside one transaction. Duplicate deliveries resolve to the
// first outcome without new side effects.
func SaleWebhookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := config.GetLogger()
		settings := config.GetSettings()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorEnvelope(ErrCodeInvalidPayload, "unable to read request body", false))
			return
		}

		if !checkAPIKey(c, settings) {
			c.JSON(http.StatusUnauthorized, NewErrorEnvelope(ErrCodeInvalidApiKey, "missing or invalid api key", false))
			return
		}
		if !verifySignature(body, c.GetHeader(SignatureHeader), settings) {
			c.JSON(http.StatusUnauthorized, NewErrorEnvelope(ErrCodeInvalidSignature, "request signature mismatch", false))
			return
		}

		var raw map[string]interface{}
		if err := json.Unmarshal(body, &raw); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorEnvelope(ErrCodeInvalidPayload, "request body is not valid JSON", false))
			return
		}
		if verr := ValidatePayload(raw); verr != nil {
			c.JSON(http.StatusBadRequest, NewErrorEnvelope(verr.Code, verr.Message, false))
			return
		}

		var payload SalePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorEnvelope(ErrCodeInvalidPayload, "request body does not match the sale schema", false))
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusInternalServerError, NewErrorEnvelope(ErrCodeInternalError, "service is not ready", true))
			return
		}
		ctx := utils.SetOrderRefInContext(c.Request.Context(), payload.OrderId)
		db = db.WithContext(ctx)

		// The attempt record commits before any business mutation so it
		// survives a later rollback.
		syncLog, err := models.CreateSyncLog(db, payload.OrderId, utils.CanonicalPayloadHash(raw), body,
			payload.Meta.Version, payload.Meta.Source, payload.Meta.Environment)
		if err != nil {
			config.LogError(logger, "relaticsync", "SaleWebhookHandler", "create sync log", payload.OrderId, err)
			c.JSON(http.StatusInternalServerError, NewErrorEnvelope(ErrCodeInternalError, "unable to record sync attempt", true))
			return
		}

		// Fast path: a posted invoice already exists, no lock needed.
		existing, err := models.SearchInvoiceByOrderRef(db, payload.OrderId)
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}
		if existing != nil {
			respondReplay(c, db, syncLog, payload.OrderId, existing, start)
			return
		}

		// Best-effort cross-instance gate. Correctness does not depend on
		// redis; the advisory lock inside the transaction is authoritative.
		if locker := config.GetRedisLock(); locker != nil {
			if lock, lerr := locker.Obtain(ctx, "relatic:order:"+payload.OrderId, 30*time.Second, nil); lerr == nil {
				defer lock.Release(ctx)
			} else if !errors.Is(lerr, redislock.ErrNotObtained) {
				config.LogError(logger, "relaticsync", "SaleWebhookHandler", "redis lock", payload.OrderId, lerr)
			}
		}

		sale, err := toSaleInput(payload)
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}

		var outcome *workflow.SaleOutcome
		err = db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			outcome, txErr = workflow.ProcessSale(tx, logger, settings, sale, &syncLog.ID)
			return txErr
		})
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}

		if outcome.AlreadyExists {
			respondReplay(c, db, syncLog, payload.OrderId, outcome.Invoice, start)
			return
		}

		var paymentMoveId *int
		if outcome.PaymentMove != nil {
			paymentMoveId = &outcome.PaymentMove.ID
		}
		if err := syncLog.MarkSuccess(db, outcome.Contact.ID, outcome.Invoice.ID, paymentMoveId, time.Since(start).Milliseconds()); err != nil {
			config.LogError(logger, "relaticsync", "SaleWebhookHandler", "mark success", payload.OrderId, err)
		}

		c.JSON(http.StatusOK, SuccessEnvelope{
			Status: "success",
			Data: SaleData{
				OrderId:       payload.OrderId,
				PartnerId:     outcome.Contact.ID,
				InvoiceId:     outcome.Invoice.ID,
				InvoiceNumber: outcome.Invoice.Name,
				PaymentMoveId: paymentMoveId,
				SyncLogId:     syncLog.ID,
			},
			Message: "order processed",
		})
	}
}

// respondReplay renders the idempotent-replay response: same linked ids as the
// first successful attempt, no new documents.
func respondReplay(c *gin.Context, db *gorm.DB, syncLog *models.SyncLog, orderRef string, invoice *models.AccountMove, start time.Time) {
	var paymentMoveId *int
	partnerId := invoice.ContactId
	if prior := models.LatestSuccessSyncLog(db, orderRef); prior != nil {
		paymentMoveId = prior.PaymentMoveId
		if prior.ContactId != nil {
			partnerId = *prior.ContactId
		}
	}
	_ = syncLog.MarkSuccess(db, partnerId, invoice.ID, paymentMoveId, time.Since(start).Milliseconds())

	c.JSON(http.StatusOK, SuccessEnvelope{
		Status: "success",
		Data: SaleData{
			OrderId:       orderRef,
			PartnerId:     partnerId,
			InvoiceId:     invoice.ID,
			InvoiceNumber: invoice.Name,
			PaymentMoveId: paymentMoveId,
			SyncLogId:     syncLog.ID,
			AlreadyExists: true,
		},
		Message: "order processed",
		Warning: "order was already processed; no new records created",
	})
}

// finishError maps a processing failure to the error envelope and marks the
// attempt out-of-band, after the business transaction has rolled back.
func finishError(c *gin.Context, db *gorm.DB, logger *logrus.Logger, syncLog *models.SyncLog, start time.Time, err error) {
	durationMs := time.Since(start).Milliseconds()

	var businessErr *workflow.BusinessError
	if errors.As(err, &businessErr) {
		retry := businessErr.Retryable
		if merr := syncLog.MarkError(db, businessErr.Code, businessErr.Message, retry, durationMs); merr != nil {
			logger.Errorf("failed to mark sync log %d: %v", syncLog.ID, merr)
		}
		status := http.StatusUnprocessableEntity
		if retry {
			status = http.StatusInternalServerError
		}
		c.JSON(status, NewErrorEnvelope(businessErr.Code, businessErr.Message, retry))
		return
	}

	if merr := syncLog.MarkError(db, ErrCodeInternalError, err.Error(), true, durationMs); merr != nil {
		logger.Errorf("failed to mark sync log %d: %v", syncLog.ID, merr)
	}
	logger.Errorf("unexpected failure processing order %s: %v", syncLog.OrderRef, err)
	c.JSON(http.StatusInternalServerError, NewErrorEnvelope(ErrCodeInternalError, "unexpected internal error", true))
}

// toSaleInput converts the wire payload into normalized workflow input.
func toSaleInput(payload SalePayload) (workflow.SaleInput, error) {
	items := make([]workflow.OrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		orderItem := workflow.OrderItem{
			Sku:       strings.TrimSpace(item.Sku),
			Name:      strings.TrimSpace(item.Name),
			Qty:       decimal.NewFromFloat(item.Qty),
			UnitPrice: decimal.NewFromFloat(item.Price),
		}
		if item.TaxRate != nil {
			rate := decimal.NewFromFloat(*item.TaxRate)
			orderItem.TaxRate = &rate
		}
		items = append(items, orderItem)
	}

	date, err := time.Parse("2006-01-02", payload.Payment.Date)
	if err != nil {
		return workflow.SaleInput{}, workflow.NewBusinessError(workflow.ErrCodeValidation, "payment date is not a valid date")
	}

	return workflow.SaleInput{
		OrderRef: payload.OrderId,
		Member: workflow.MemberInput{
			Email:       payload.Member.Email,
			Name:        strings.TrimSpace(payload.Member.Name),
			Phone:       payload.Member.Phone,
			Vat:         payload.Member.Vat,
			Street:      strings.TrimSpace(payload.Member.Street),
			City:        strings.TrimSpace(payload.Member.City),
			CountryCode: strings.ToUpper(strings.TrimSpace(payload.Member.CountryCode)),
		},
		Items: items,
		Payment: workflow.PaymentInput{
			Method:    strings.ToUpper(strings.TrimSpace(payload.Payment.Method)),
			Amount:    decimal.NewFromFloat(payload.Payment.Amount),
			Reference: payload.Payment.Reference,
			Date:      date,
		},
	}, nil
}

// SyncLogsHandler lists recent sync attempts, newest first. Supports
// order_ref and status filters and a capped limit.
func SyncLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not ready"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		query := db.Model(&models.SyncLog{}).Order("id desc").Limit(limit)
		if orderRef := strings.TrimSpace(c.Query("order_ref")); orderRef != "" {
			query = query.Where("order_ref = ?", orderRef)
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			query = query.Where("status = ?", status)
		}

		var logs []models.SyncLog
		if err := query.Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": logs})
	}
}

func SyncLogDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not ready"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sync log id"})
			return
		}

		syncLog, err := models.GetSyncLog(db, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, syncLog)
	}
}

// RetrySyncLogHandler re-runs a failed attempt from its stored payload. The
// rerun goes through the same idempotent pipeline, so retrying a log whose
// order was meanwhile processed resolves to the replay path.
func RetrySyncLogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := config.GetLogger()
		settings := config.GetSettings()

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not ready"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sync log id"})
			return
		}
		syncLog, err := models.GetSyncLog(db, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if syncLog.Status == models.SyncStatusSuccess {
			c.JSON(http.StatusConflict, gin.H{"error": "sync log already succeeded"})
			return
		}
		if len(syncLog.PayloadJSON) == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "sync log has no stored payload"})
			return
		}

		var payload SalePayload
		if err := json.Unmarshal(syncLog.PayloadJSON, &payload); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "stored payload is not replayable"})
			return
		}

		ctx := utils.SetOrderRefInContext(c.Request.Context(), payload.OrderId)
		db = db.WithContext(ctx)

		existing, err := models.SearchInvoiceByOrderRef(db, payload.OrderId)
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}
		if existing != nil {
			respondReplay(c, db, syncLog, payload.OrderId, existing, start)
			return
		}

		sale, err := toSaleInput(payload)
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}

		var outcome *workflow.SaleOutcome
		err = db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			outcome, txErr = workflow.ProcessSale(tx, logger, settings, sale, &syncLog.ID)
			return txErr
		})
		if err != nil {
			finishError(c, db, logger, syncLog, start, err)
			return
		}
		if outcome.AlreadyExists {
			respondReplay(c, db, syncLog, payload.OrderId, outcome.Invoice, start)
			return
		}

		var paymentMoveId *int
		if outcome.PaymentMove != nil {
			paymentMoveId = &outcome.PaymentMove.ID
		}
		if err := syncLog.MarkSuccess(db, outcome.Contact.ID, outcome.Invoice.ID, paymentMoveId, time.Since(start).Milliseconds()); err != nil {
			config.LogError(logger, "relaticsync", "RetrySyncLogHandler", "mark success", payload.OrderId, err)
		}

		c.JSON(http.StatusOK, SuccessEnvelope{
			Status: "success",
			Data: SaleData{
				OrderId:       payload.OrderId,
				PartnerId:     outcome.Contact.ID,
				InvoiceId:     outcome.Invoice.ID,
				InvoiceNumber: outcome.Invoice.Name,
				PaymentMoveId: paymentMoveId,
				SyncLogId:     syncLog.ID,
			},
			Message: "order processed",
		})
	}
}

// RefundRequest is the internal refund endpoint's body.
type RefundRequest struct {
	OrderId string `json:"order_id" binding:"required"`
	Reason  string `json:"reason"`
}

// RefundHandler posts an idempotent credit note reversing the order's invoice.
func RefundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not ready"})
			return
		}

		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		var creditNote *models.AccountMove
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var txErr error
			creditNote, txErr = workflow.CreateRefund(tx, logger, req.OrderId, req.Reason, nil)
			return txErr
		})
		if err != nil {
			var businessErr *workflow.BusinessError
			if errors.As(err, &businessErr) {
				c.JSON(http.StatusUnprocessableEntity, NewErrorEnvelope(businessErr.Code, businessErr.Message, false))
				return
			}
			config.LogError(logger, "relaticsync", "RefundHandler", "create refund", req.OrderId, err)
			c.JSON(http.StatusInternalServerError, NewErrorEnvelope(ErrCodeInternalError, "unexpected internal error", true))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":             "success",
			"credit_note_id":     creditNote.ID,
			"credit_note_number": creditNote.Name,
			"order_ref":          workflow.RefundOrderRef(req.OrderId),
		})
	}
}
