package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusPlaced   OrderStatus = "placed"
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderContext is the pending order a gateway callback settles against.
// InvoiceID is the correlation key: set once when the gateway invoice is
// created, looked up when the payer comes back.
type OrderContext struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderNumber string          `json:"order_number" gorm:"type:text;not null;uniqueIndex"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency    string          `json:"currency" gorm:"type:text;not null"`
	InvoiceID   *string         `json:"invoice_id" gorm:"type:text;index"`
	Status      OrderStatus     `json:"status" gorm:"type:text;not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (OrderContext) TableName() string { return "orders" }

type CreateRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*OrderContext, error)
	FindByNumber(ctx context.Context, orderNumber string) (*OrderContext, error)
	// FindByInvoiceID resolves the correlation key. More than one order
	// sharing an invoice id is an error condition, never silently resolved.
	FindByInvoiceID(ctx context.Context, invoiceID string) (*OrderContext, error)
	AttachInvoice(ctx context.Context, orderID snowflake.ID, invoiceID string) error
	Finalize(ctx context.Context, orderID snowflake.ID) error
	MarkRefunded(ctx context.Context, orderID snowflake.ID) error
}

var (
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrOrderExists          = errors.New("order_exists")
	ErrDuplicateCorrelation = errors.New("duplicate_correlation")
	ErrInvalidOrder         = errors.New("invalid_order")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrOrderNotOpen         = errors.New("order_not_open")
)
