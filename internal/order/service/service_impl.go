package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/mglearn/checkout/internal/order/domain"
	pkgdb "github.com/mglearn/checkout/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  orderdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  orderdomain.Repository
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.OrderContext, error) {
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	if req.OrderNumber == "" {
		return nil, orderdomain.ErrInvalidOrder
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, orderdomain.ErrInvalidCurrency
	}
	if req.Amount.IsNegative() {
		return nil, orderdomain.ErrInvalidOrder
	}

	now := time.Now().UTC()
	order := &orderdomain.OrderContext{
		ID:          s.genID.Generate(),
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      orderdomain.OrderStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, orderdomain.ErrOrderExists
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) FindByNumber(ctx context.Context, orderNumber string) (*orderdomain.OrderContext, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, orderdomain.ErrInvalidOrder
	}
	order, err := s.repo.FindByNumber(ctx, s.db, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) FindByInvoiceID(ctx context.Context, invoiceID string) (*orderdomain.OrderContext, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, orderdomain.ErrOrderNotFound
	}

	orders, err := s.repo.ListByInvoiceID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	switch len(orders) {
	case 0:
		return nil, orderdomain.ErrOrderNotFound
	case 1:
		return &orders[0], nil
	default:
		s.log.Warn("duplicate invoice correlation",
			zap.String("invoice_id", invoiceID),
			zap.Int("orders", len(orders)),
		)
		return nil, orderdomain.ErrDuplicateCorrelation
	}
}

func (s *Service) AttachInvoice(ctx context.Context, orderID snowflake.ID, invoiceID string) error {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return orderdomain.ErrInvalidOrder
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return orderdomain.ErrOrderNotFound
	}
	return s.repo.SetInvoiceID(ctx, s.db, orderID, invoiceID)
}

// Finalize marks the order placed inside its own transaction. This is the
// atomic boundary around order creation; the settlement coordinator itself
// runs outside it.
func (s *Service) Finalize(ctx context.Context, orderID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.repo.SetStatus(ctx, tx, orderID, orderdomain.OrderStatusOpen, orderdomain.OrderStatusPlaced)
		if err != nil {
			return err
		}
		if !updated {
			return orderdomain.ErrOrderNotOpen
		}
		return nil
	})
}

func (s *Service) MarkRefunded(ctx context.Context, orderID snowflake.ID) error {
	updated, err := s.repo.SetStatus(ctx, s.db, orderID, orderdomain.OrderStatusPlaced, orderdomain.OrderStatusRefunded)
	if err != nil {
		return err
	}
	if !updated {
		return orderdomain.ErrOrderNotOpen
	}
	return nil
}
