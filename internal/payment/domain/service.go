package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Gateway issues the outbound operations against the payment gateway.
// Every call fetches a fresh access token; none of them retry.
type Gateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceHandle, error)
	CheckStatus(ctx context.Context, invoiceID string) (*StatusResult, error)
	Refund(ctx context.Context, invoiceID string, idempotencyKey string) (json.RawMessage, error)
}

type Service interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceHandle, error)
	Confirm(ctx context.Context, invoiceID string, order SettlementContext) (SettlementResult, error)
	IssueRefund(ctx context.Context, orderNumber string, invoiceID string, amount decimal.Decimal, currency string) (string, error)
}

var (
	// ErrGatewayUnavailable wraps transport-level failures; recoverable by caller retry.
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	// ErrGatewayAuth means the token exchange produced no access token; fatal until config is fixed.
	ErrGatewayAuth = errors.New("gateway_auth_error")
	// ErrGatewaySettlement covers create-invoice transport or decode failures.
	ErrGatewaySettlement = errors.New("gateway_settlement_error")
	// ErrGatewayInvariant fires when a paid check contradicts the row's own
	// payment status. Must never be swallowed.
	ErrGatewayInvariant = errors.New("gateway_invariant_violation")
	// ErrRefund wraps any refund failure; always audited before propagating.
	ErrRefund = errors.New("refund_error")
	// ErrSettlementExists means a payment record for the transaction id is
	// already present; the duplicate attempt created nothing. The result
	// still carries the record that won.
	ErrSettlementExists = errors.New("settlement_exists")

	ErrInvalidInvoice = errors.New("invalid_invoice")
	ErrInvalidAmount  = errors.New("invalid_amount")
)
