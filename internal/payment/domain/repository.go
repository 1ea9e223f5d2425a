package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertPayment inserts once per transaction id; returns false when a
	// record already exists and nothing was written.
	InsertPayment(ctx context.Context, db *gorm.DB, record *PaymentRecord) (bool, error)
	FindPayment(ctx context.Context, db *gorm.DB, transactionID string) (*PaymentRecord, error)
	InsertRefund(ctx context.Context, db *gorm.DB, record *RefundRecord) error
}
