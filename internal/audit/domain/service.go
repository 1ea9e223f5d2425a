package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// GatewayResponse is one recorded gateway interaction, keyed by the
// transaction reference it belongs to. Append-only.
type GatewayResponse struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	TransactionID string         `json:"transaction_id" gorm:"type:text;not null;index"`
	Action        string         `json:"action" gorm:"type:text;not null"`
	Response      datatypes.JSON `json:"response" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null"`
}

func (GatewayResponse) TableName() string { return "gateway_responses" }

const (
	ActionCreateInvoice = "invoice.create"
	ActionCheckStatus   = "payment.check"
	ActionRefund        = "payment.refund"
)

// Service records every gateway interaction. Recording is best effort:
// callers log a failed write and carry on with the original outcome.
type Service interface {
	Record(ctx context.Context, transactionID string, action string, response []byte) error
	List(ctx context.Context, transactionID string) ([]GatewayResponse, error)
}

var (
	ErrInvalidTransaction = errors.New("invalid_transaction")
	ErrInvalidAction      = errors.New("invalid_action")
)
