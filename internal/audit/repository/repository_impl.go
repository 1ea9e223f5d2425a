package repository

import (
	"context"

	"github.com/mglearn/checkout/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.GatewayResponse) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO gateway_responses (
			id, transaction_id, action, response, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TransactionID,
		entry.Action,
		entry.Response,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, transactionID string) ([]domain.GatewayResponse, error) {
	var items []domain.GatewayResponse
	err := db.WithContext(ctx).Raw(
		`SELECT id, transaction_id, action, response, created_at
		 FROM gateway_responses
		 WHERE transaction_id = ?
		 ORDER BY created_at ASC, id ASC`,
		transactionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
