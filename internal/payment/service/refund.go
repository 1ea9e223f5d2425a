package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// IssueRefund issues a compensating refund for a captured invoice. A
// failed gateway call still leaves a refund record with an empty body so
// the attempt stays visible, then the original failure propagates.
func (s *Service) IssueRefund(ctx context.Context, orderNumber string, invoiceID string, amount decimal.Decimal, currency string) (string, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return "", paymentdomain.ErrInvalidInvoice
	}

	raw, err := s.gateway.Refund(ctx, invoiceID, refundIdempotencyKey(orderNumber))
	if err != nil {
		s.insertRefundRecord(ctx, invoiceID, orderNumber, nil, false)
		s.recordResponse(ctx, invoiceID, auditdomain.ActionRefund, nil)
		s.log.Error("refund failed",
			zap.String("order_number", orderNumber),
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		s.countRefund("failed")
		return "", fmt.Errorf("%w: %v", paymentdomain.ErrRefund, err)
	}

	s.insertRefundRecord(ctx, invoiceID, orderNumber, raw, true)
	s.recordResponse(ctx, invoiceID, auditdomain.ActionRefund, raw)
	s.log.Info("refund issued",
		zap.String("order_number", orderNumber),
		zap.String("invoice_id", invoiceID),
		zap.String("amount", amount.String()),
		zap.String("currency", currency),
	)
	s.countRefund("issued")

	return invoiceID, nil
}

func (s *Service) insertRefundRecord(ctx context.Context, invoiceID string, orderNumber string, raw []byte, succeeded bool) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	record := &paymentdomain.RefundRecord{
		ID:            s.genID.Generate(),
		TransactionID: invoiceID,
		OrderNumber:   orderNumber,
		RawResponse:   datatypes.JSON(raw),
		Succeeded:     succeeded,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.InsertRefund(ctx, s.db, record); err != nil {
		s.log.Warn("failed to write refund record",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
	}
}

// The key is derived from the order so a retried refund carries the same
// token. Versioned to aid future development.
func refundIdempotencyKey(orderNumber string) string {
	return "order_refund_v1_" + strings.TrimSpace(orderNumber)
}

func (s *Service) countRefund(outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRefund(outcome)
	}
}
