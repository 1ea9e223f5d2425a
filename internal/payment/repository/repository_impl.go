package repository

import (
	"context"

	"github.com/mglearn/checkout/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, record *domain.PaymentRecord) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_records (
			id, transaction_id, order_number, amount, currency, card_label,
			raw_response, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO NOTHING`,
		record.ID,
		record.TransactionID,
		record.OrderNumber,
		record.Amount,
		record.Currency,
		record.CardLabel,
		record.RawResponse,
		record.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindPayment(ctx context.Context, db *gorm.DB, transactionID string) (*domain.PaymentRecord, error) {
	var item domain.PaymentRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, transaction_id, order_number, amount, currency, card_label,
			raw_response, created_at
		 FROM payment_records
		 WHERE transaction_id = ?
		 LIMIT 1`,
		transactionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) InsertRefund(ctx context.Context, db *gorm.DB, record *domain.RefundRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO refund_records (
			id, transaction_id, order_number, raw_response, succeeded, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.TransactionID,
		record.OrderNumber,
		record.RawResponse,
		record.Succeeded,
		record.CreatedAt,
	).Error
}
