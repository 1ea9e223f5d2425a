package service_test

import (
	"context"
	"errors"
	"testing"

	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/shopspring/decimal"
)

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	handle, err := svc.CreateInvoice(ctx, paymentdomain.InvoiceRequest{
		OrderReference: "EDX-100042",
		Amount:         decimal.RequireFromString("19.99"),
		Currency:       "MNT",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if handle.InvoiceID != "inv_EDX-100042" {
		t.Errorf("invoice id = %q", handle.InvoiceID)
	}

	var action string
	if err := db.Raw("SELECT action FROM gateway_responses WHERE transaction_id = ?", handle.InvoiceID).Scan(&action).Error; err != nil {
		t.Fatalf("read audit action: %v", err)
	}
	if action != "invoice.create" {
		t.Errorf("audit action = %q", action)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	_, err := svc.CreateInvoice(ctx, paymentdomain.InvoiceRequest{
		OrderReference: "",
		Amount:         decimal.NewFromInt(10),
	})
	if !errors.Is(err, paymentdomain.ErrInvalidInvoice) {
		t.Fatalf("err = %v, want invalid invoice", err)
	}

	_, err = svc.CreateInvoice(ctx, paymentdomain.InvoiceRequest{
		OrderReference: "EDX-1",
		Amount:         decimal.Zero,
	})
	if !errors.Is(err, paymentdomain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want invalid amount", err)
	}
}
