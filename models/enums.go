package models

type MoveType string

const (
	MoveTypeInvoice    MoveType = "Invoice"
	MoveTypeCreditNote MoveType = "CreditNote"
	MoveTypeEntry      MoveType = "Entry"
)

type MoveState string

const (
	MoveStateDraft  MoveState = "Draft"
	MoveStatePosted MoveState = "Posted"
)

type PaymentState string

const (
	PaymentStateNotPaid PaymentState = "NotPaid"
	PaymentStatePartial PaymentState = "Partial"
	PaymentStatePaid    PaymentState = "Paid"
)

type AccountDetailType string

const (
	AccountDetailTypeCash               AccountDetailType = "Cash"
	AccountDetailTypeBank               AccountDetailType = "Bank"
	AccountDetailTypeAccountsReceivable AccountDetailType = "AccountsReceivable"
	AccountDetailTypeIncome             AccountDetailType = "Income"
	AccountDetailTypeOutputTax          AccountDetailType = "OutputTax"
)

type JournalType string

const (
	JournalTypeBank    JournalType = "Bank"
	JournalTypeCash    JournalType = "Cash"
	JournalTypeGeneral JournalType = "General"
)

type TaxUse string

const (
	TaxUseSale     TaxUse = "Sale"
	TaxUsePurchase TaxUse = "Purchase"
)

type ProductType string

const (
	ProductTypeService ProductType = "Service"
	ProductTypeGoods   ProductType = "Goods"
)

const (
	SyncStatusPending = "pending"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
	SyncStatusRetry   = "retry"
)

const (
	SyncSourceDefault = "membresia-relatic"
)
