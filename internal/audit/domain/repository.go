package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *GatewayResponse) error
	List(ctx context.Context, db *gorm.DB, transactionID string) ([]GatewayResponse, error)
}
