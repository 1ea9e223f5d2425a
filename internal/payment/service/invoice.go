package service

import (
	"context"
	"strings"

	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"go.uber.org/zap"
)

// CreateInvoice registers the charge at the gateway and records the raw
// response. Single attempt; the handle's invoice id becomes the
// correlation key the caller stores on the pending order.
func (s *Service) CreateInvoice(ctx context.Context, req paymentdomain.InvoiceRequest) (*paymentdomain.InvoiceHandle, error) {
	req.OrderReference = strings.TrimSpace(req.OrderReference)
	if req.OrderReference == "" {
		return nil, paymentdomain.ErrInvalidInvoice
	}
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}

	handle, err := s.gateway.CreateInvoice(ctx, req)
	if err != nil {
		s.countInvoice("failed")
		return nil, err
	}

	s.recordResponse(ctx, handle.InvoiceID, auditdomain.ActionCreateInvoice, handle.Raw)
	s.log.Info("created gateway invoice",
		zap.String("order_number", req.OrderReference),
		zap.String("invoice_id", handle.InvoiceID),
	)
	s.countInvoice("created")

	return handle, nil
}

func (s *Service) countInvoice(outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordInvoiceCreated(outcome)
	}
}
