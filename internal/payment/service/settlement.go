package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	obsmetrics "github.com/mglearn/checkout/internal/observability/metrics"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Gateway    paymentdomain.Gateway
	AuditSvc   auditdomain.Service
	Repo       paymentdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	gateway    paymentdomain.Gateway
	auditSvc   auditdomain.Service
	repo       paymentdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		gateway:    p.Gateway,
		auditSvc:   p.AuditSvc,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

// Confirm polls the gateway once for the invoice and converts a paid
// result into a durable payment record. A not-paid invoice is an expected
// outcome and comes back as a rejected result, not an error. Every path
// records the raw gateway response exactly once before the outcome is
// signaled; the coordinator itself holds no lock and never retries —
// at-most-once settlement rests on the unique transaction id.
func (s *Service) Confirm(ctx context.Context, invoiceID string, order paymentdomain.SettlementContext) (paymentdomain.SettlementResult, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return paymentdomain.SettlementResult{}, paymentdomain.ErrInvalidInvoice
	}

	status, err := s.gateway.CheckStatus(ctx, invoiceID)
	if err != nil {
		s.countSettlement("gateway_error")
		return paymentdomain.SettlementResult{}, err
	}

	if status.Status != paymentdomain.SettlementStatusPaid {
		s.recordResponse(ctx, invoiceID, auditdomain.ActionCheckStatus, status.Raw)
		s.log.Info("invoice not paid",
			zap.String("invoice_id", invoiceID),
			zap.String("order_number", order.OrderNumber),
		)
		s.countSettlement("rejected")
		return paymentdomain.SettlementResult{
			State:  paymentdomain.SettlementStateRejected,
			Reason: paymentdomain.RejectReasonNotPaid,
		}, nil
	}

	// The paid check matched the row on payment status; the row's own
	// processing state disagreeing is a gateway bug, not a business outcome.
	if status.Row == nil || status.Row.Status != paymentdomain.PaymentRowSucceeded {
		s.recordResponse(ctx, invoiceID, auditdomain.ActionCheckStatus, status.Raw)
		s.log.Error("paid check contradicts payment row",
			zap.String("invoice_id", invoiceID),
			zap.String("order_number", order.OrderNumber),
		)
		s.countSettlement("invariant_violation")
		return paymentdomain.SettlementResult{}, paymentdomain.ErrGatewayInvariant
	}

	s.recordResponse(ctx, invoiceID, auditdomain.ActionCheckStatus, status.Raw)

	record := &paymentdomain.PaymentRecord{
		ID:            s.genID.Generate(),
		TransactionID: invoiceID,
		OrderNumber:   order.OrderNumber,
		Amount:        order.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(order.Currency)),
		CardLabel:     paymentdomain.CardLabel,
		RawResponse:   datatypes.JSON(status.Raw),
		CreatedAt:     time.Now().UTC(),
	}

	inserted, err := s.repo.InsertPayment(ctx, s.db, record)
	if err != nil {
		return paymentdomain.SettlementResult{}, err
	}
	if !inserted {
		// Replay. Surface the record that won so the caller can still
		// render the original settlement.
		existing, findErr := s.repo.FindPayment(ctx, s.db, invoiceID)
		if findErr != nil {
			s.log.Warn("failed to load settled payment record",
				zap.String("invoice_id", invoiceID),
				zap.Error(findErr),
			)
		}
		s.countSettlement("duplicate")
		return paymentdomain.SettlementResult{
			State:  paymentdomain.SettlementStateSettled,
			Record: existing,
		}, paymentdomain.ErrSettlementExists
	}

	s.log.Info("settled invoice",
		zap.String("invoice_id", invoiceID),
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", record.Amount.String()),
		zap.String("currency", record.Currency),
	)
	s.countSettlement("settled")

	return paymentdomain.SettlementResult{
		State:  paymentdomain.SettlementStateSettled,
		Record: record,
	}, nil
}

// recordResponse is best effort: the audit service logs its own failures
// and the original settlement outcome is never displaced by a failed write.
func (s *Service) recordResponse(ctx context.Context, transactionID string, action string, raw []byte) {
	if s.auditSvc == nil {
		s.log.Warn("audit service unavailable", zap.String("action", action))
		return
	}
	_ = s.auditSvc.Record(ctx, transactionID, action, raw)
}

func (s *Service) countSettlement(outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordSettlement(outcome)
	}
}
