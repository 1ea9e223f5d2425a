package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/shopspring/decimal"
)

func TestIssueRefund(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	gateway := &fakeGateway{refundRaw: json.RawMessage(`{"status":"REFUNDED"}`)}
	svc := newTestService(t, db, gateway)

	transactionID, err := svc.IssueRefund(ctx, "EDX-100042", "inv_42", decimal.RequireFromString("19.99"), "MNT")
	if err != nil {
		t.Fatalf("issue refund: %v", err)
	}
	if transactionID != "inv_42" {
		t.Errorf("transaction id = %q", transactionID)
	}

	if len(gateway.refundKeys) != 1 || gateway.refundKeys[0] != "order_refund_v1_EDX-100042" {
		t.Errorf("idempotency keys = %v", gateway.refundKeys)
	}

	var succeeded bool
	if err := db.Raw("SELECT succeeded FROM refund_records WHERE transaction_id = ?", "inv_42").Scan(&succeeded).Error; err != nil {
		t.Fatalf("read refund record: %v", err)
	}
	if !succeeded {
		t.Error("refund record not marked succeeded")
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want 1", got)
	}
}

func TestIssueRefundFailureStillRecorded(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	gateway := &fakeGateway{refundErr: errors.New("connection reset")}
	svc := newTestService(t, db, gateway)

	_, err := svc.IssueRefund(ctx, "EDX-100042", "inv_42", decimal.RequireFromString("19.99"), "MNT")
	if !errors.Is(err, paymentdomain.ErrRefund) {
		t.Fatalf("err = %v, want refund error", err)
	}

	// The failed attempt still leaves a refund record with an empty body
	// and an audit entry.
	if got := countRows(t, db, "refund_records"); got != 1 {
		t.Fatalf("refund records = %d, want 1", got)
	}

	var row struct {
		Succeeded   bool
		RawResponse string
	}
	if err := db.Raw("SELECT succeeded, raw_response FROM refund_records WHERE transaction_id = ?", "inv_42").Scan(&row).Error; err != nil {
		t.Fatalf("read refund record: %v", err)
	}
	if row.Succeeded {
		t.Error("failed refund marked succeeded")
	}
	if row.RawResponse != "{}" {
		t.Errorf("raw response = %q, want empty document", row.RawResponse)
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want 1", got)
	}
}

func TestIssueRefundEmptyInvoice(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	_, err := svc.IssueRefund(context.Background(), "EDX-100042", "", decimal.Zero, "MNT")
	if !errors.Is(err, paymentdomain.ErrInvalidInvoice) {
		t.Fatalf("err = %v, want invalid invoice", err)
	}
}
