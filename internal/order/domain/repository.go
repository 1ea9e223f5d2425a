package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *OrderContext) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*OrderContext, error)
	FindByNumber(ctx context.Context, db *gorm.DB, orderNumber string) (*OrderContext, error)
	// ListByInvoiceID returns every order carrying the invoice id so the
	// caller can detect duplicate correlation.
	ListByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID string) ([]OrderContext, error)
	SetInvoiceID(ctx context.Context, db *gorm.DB, id snowflake.ID, invoiceID string) error
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from OrderStatus, to OrderStatus) (bool, error)
}
