package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mglearn/checkout/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.OrderContext) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, order_number, amount, currency, invoice_id, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderNumber,
		order.Amount,
		order.Currency,
		order.InvoiceID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.OrderContext, error) {
	var item domain.OrderContext
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_number, amount, currency, invoice_id, status,
			created_at, updated_at
		 FROM orders
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, orderNumber string) (*domain.OrderContext, error) {
	var item domain.OrderContext
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_number, amount, currency, invoice_id, status,
			created_at, updated_at
		 FROM orders
		 WHERE order_number = ?
		 LIMIT 1`,
		orderNumber,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID string) ([]domain.OrderContext, error) {
	var items []domain.OrderContext
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_number, amount, currency, invoice_id, status,
			created_at, updated_at
		 FROM orders
		 WHERE invoice_id = ?
		 ORDER BY id ASC`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetInvoiceID(ctx context.Context, db *gorm.DB, id snowflake.ID, invoiceID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET invoice_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		invoiceID,
		id,
	).Error
}

func (r *repo) SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
