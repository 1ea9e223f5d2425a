package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CardLabel identifies the gateway on every payment record.
const CardLabel = "Qpay"

// InvoiceRequest describes a charge to be created at the gateway.
// Built once per checkout attempt; immutable after construction.
type InvoiceRequest struct {
	OrderReference string
	Amount         decimal.Decimal
	Currency       string
	Description    string
	CallbackURL    string
}

// InvoiceHandle is the gateway-assigned reference for a pending charge.
// Stored on the pending order so a later callback can be correlated back.
type InvoiceHandle struct {
	InvoiceID string
	ShortLink string
	QRImage   string
	Raw       json.RawMessage
}

type SettlementStatus string

const (
	SettlementStatusPaid    SettlementStatus = "PAID"
	SettlementStatusNotPaid SettlementStatus = "NOT_PAID"
)

// PaymentRowSucceeded is the processing state a PAID row must carry.
// A PAID row in any other state contradicts itself.
const PaymentRowSucceeded = "succeeded"

// PaymentRow is a single row from the gateway's payment/check response.
// PaymentStatus says whether the invoice was paid; Status is the row's own
// processing state and must agree with it.
type PaymentRow struct {
	PaymentID     string `json:"payment_id"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
	Amount        string `json:"payment_amount"`
	Currency      string `json:"payment_currency"`
	Wallet        string `json:"payment_wallet"`
}

// StatusResult is the outcome of a single status poll. Raw always carries
// the body that was observed, paid or not, so it can be audited verbatim.
type StatusResult struct {
	Status SettlementStatus
	Row    *PaymentRow
	Raw    json.RawMessage
}

// PaymentRecord is the durable settlement outcome. Append-only; created
// exactly once per confirmed invoice, enforced by the unique transaction id.
type PaymentRecord struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	TransactionID string          `json:"transaction_id" gorm:"type:text;not null;uniqueIndex"`
	OrderNumber   string          `json:"order_number" gorm:"type:text;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string          `json:"currency" gorm:"type:text;not null"`
	CardLabel     string          `json:"card_label" gorm:"type:text;not null"`
	RawResponse   datatypes.JSON  `json:"raw_response" gorm:"type:jsonb;not null"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
}

func (PaymentRecord) TableName() string { return "payment_records" }

// RefundRecord is written per refund attempt, including failed ones: a
// failed attempt still gets a record with an empty response body so the
// trail stays complete.
type RefundRecord struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	TransactionID string         `json:"transaction_id" gorm:"type:text;not null;index"`
	OrderNumber   string         `json:"order_number" gorm:"type:text;not null"`
	RawResponse   datatypes.JSON `json:"raw_response" gorm:"type:jsonb"`
	Succeeded     bool           `json:"succeeded" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null"`
}

func (RefundRecord) TableName() string { return "refund_records" }

// AccessToken is a short-lived gateway credential fetched immediately
// before each privileged call. Never cached.
type AccessToken struct {
	Value string
}

// SettlementContext is the slice of the pending order the coordinator
// needs to build a payment record.
type SettlementContext struct {
	OrderID     snowflake.ID
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
}

type SettlementState string

const (
	SettlementStateSettled  SettlementState = "settled"
	SettlementStateRejected SettlementState = "rejected"
)

const RejectReasonNotPaid = "order_not_paid"

// SettlementResult is the outcome of a confirmation attempt. A not-paid
// invoice is an expected business outcome and lands in the Rejected state;
// hard transport and invariant failures surface as errors instead.
type SettlementResult struct {
	State  SettlementState
	Record *PaymentRecord
	Reason string
}

func (r SettlementResult) Settled() bool { return r.State == SettlementStateSettled }
