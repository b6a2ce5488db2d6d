package relaticsync

// Wire types for the sale webhook. Amounts are kept as json.Number where they
// are decoded into typed structs; the validation gate itself works on the raw
// decoded document to report precise per-field errors.

type MetaPayload struct {
	Version     string `json:"version"`
	Source      string `json:"source"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

type MemberPayload struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Vat         string `json:"vat,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

type ItemPayload struct {
	Sku     string   `json:"sku"`
	Name    string   `json:"name"`
	Qty     float64  `json:"qty"`
	Price   float64  `json:"price"`
	TaxRate *float64 `json:"tax_rate,omitempty"`
}

type PaymentPayload struct {
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Date      string  `json:"date"`
}

type SalePayload struct {
	Meta    MetaPayload    `json:"meta"`
	OrderId string         `json:"order_id"`
	Member  MemberPayload  `json:"member"`
	Items   []ItemPayload  `json:"items"`
	Payment PaymentPayload `json:"payment"`
}

// SaleData is the data block of a success envelope.
type SaleData struct {
	OrderId       string `json:"order_id"`
	PartnerId     int    `json:"partner_id"`
	InvoiceId     int    `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	PaymentMoveId *int   `json:"payment_move_id,omitempty"`
	SyncLogId     int    `json:"sync_log_id"`
	AlreadyExists bool   `json:"already_exists,omitempty"`
}

type SuccessEnvelope struct {
	Status  string   `json:"status"`
	Data    SaleData `json:"data"`
	Message string   `json:"message"`
	Warning string   `json:"warning,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status string    `json:"status"`
	Error  ErrorBody `json:"error"`
	Retry  bool      `json:"retry"`
}

func NewErrorEnvelope(code, message string, retry bool) ErrorEnvelope {
	return ErrorEnvelope{
		Status: "error",
		Error:  ErrorBody{Code: code, Message: message},
		Retry:  retry,
	}
}
