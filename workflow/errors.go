package workflow

// BusinessError is a classified processing failure. Retryable marks transient
// conditions worth re-delivering; everything else is a permanent rejection of
// this payload.
type BusinessError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *BusinessError) Error() string {
	return e.Code + ": " + e.Message
}

func NewBusinessError(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

func NewRetryableError(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message, Retryable: true}
}

const (
	ErrCodeValidation               = "VALIDATION_ERROR"
	ErrCodeReceivableAccountMissing = "RECEIVABLE_ACCOUNT_MISSING"
	ErrCodeProductNotFound          = "PRODUCT_NOT_FOUND"
	ErrCodeIncomeAccountMissing     = "INCOME_ACCOUNT_MISSING"
	ErrCodeJournalNotFound          = "JOURNAL_NOT_FOUND"
	ErrCodeInvoiceNotPosted         = "INVOICE_NOT_POSTED"
	ErrCodeInvoiceNotFound          = "INVOICE_NOT_FOUND"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeAmountMismatch           = "AMOUNT_MISMATCH"
	ErrCodeUnbalancedMove           = "UNBALANCED_MOVE"
	ErrCodeLockTimeout              = "LOCK_TIMEOUT"
)
