package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepo "github.com/mglearn/checkout/internal/audit/repository"
	auditservice "github.com/mglearn/checkout/internal/audit/service"
	"github.com/mglearn/checkout/internal/payment/adapters/qpay"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	paymentrepo "github.com/mglearn/checkout/internal/payment/repository"
	paymentservice "github.com/mglearn/checkout/internal/payment/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	status    *paymentdomain.StatusResult
	statusErr error

	refundRaw  json.RawMessage
	refundErr  error
	refundKeys []string
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, req paymentdomain.InvoiceRequest) (*paymentdomain.InvoiceHandle, error) {
	return &paymentdomain.InvoiceHandle{
		InvoiceID: "inv_" + req.OrderReference,
		ShortLink: "https://s.qpay.mn/x",
		Raw:       json.RawMessage(`{"invoice_id":"inv_` + req.OrderReference + `"}`),
	}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, invoiceID string) (*paymentdomain.StatusResult, error) {
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.status, nil
}

func (g *fakeGateway) Refund(ctx context.Context, invoiceID string, idempotencyKey string) (json.RawMessage, error) {
	g.refundKeys = append(g.refundKeys, idempotencyKey)
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refundRaw, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE payment_records (
			id BIGINT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			order_number TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL,
			card_label TEXT NOT NULL,
			raw_response TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payment_records_transaction_id ON payment_records(transaction_id)`,
		`CREATE TABLE refund_records (
			id BIGINT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			order_number TEXT NOT NULL,
			raw_response TEXT,
			succeeded BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE gateway_responses (
			id BIGINT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			action TEXT NOT NULL,
			response TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gateway paymentdomain.Gateway) paymentdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	return paymentservice.NewService(paymentservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Gateway:  gateway,
		AuditSvc: auditSvc,
		Repo:     paymentrepo.Provide(),
	})
}

func countRows(t *testing.T, db *gorm.DB, table string) int {
	t.Helper()

	var count int
	if err := db.Raw("SELECT COUNT(*) FROM " + table).Scan(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func settlementContext() paymentdomain.SettlementContext {
	return paymentdomain.SettlementContext{
		OrderID:     42,
		OrderNumber: "EDX-100042",
		Amount:      decimal.RequireFromString("19.99"),
		Currency:    "MNT",
	}
}

func paidStatus() *paymentdomain.StatusResult {
	return &paymentdomain.StatusResult{
		Status: paymentdomain.SettlementStatusPaid,
		Row: &paymentdomain.PaymentRow{
			PaymentID:     "pay_1",
			PaymentStatus: "PAID",
			Status:        "succeeded",
			Amount:        "1999",
			Currency:      "MNT",
		},
		Raw: json.RawMessage(`{"rows":[{"payment_id":"pay_1","payment_status":"PAID","status":"succeeded"}]}`),
	}
}

func TestConfirmSettlesPaidInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{status: paidStatus()})

	result, err := svc.Confirm(ctx, "inv_42", settlementContext())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !result.Settled() {
		t.Fatalf("state = %s, want settled", result.State)
	}
	if result.Record == nil {
		t.Fatal("settled result carries no record")
	}
	if result.Record.CardLabel != paymentdomain.CardLabel {
		t.Errorf("card label = %q", result.Record.CardLabel)
	}

	if got := countRows(t, db, "payment_records"); got != 1 {
		t.Errorf("payment records = %d, want 1", got)
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want 1", got)
	}

	var action string
	if err := db.Raw("SELECT action FROM gateway_responses").Scan(&action).Error; err != nil {
		t.Fatalf("read audit action: %v", err)
	}
	if action != "payment.check" {
		t.Errorf("audit action = %q", action)
	}
}

func TestConfirmNotPaidIsRejectedNotError(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{status: &paymentdomain.StatusResult{
		Status: paymentdomain.SettlementStatusNotPaid,
		Raw:    json.RawMessage(`{"error":"PAYMENT_NOTFOUND"}`),
	}})

	result, err := svc.Confirm(ctx, "inv_42", settlementContext())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if result.Settled() {
		t.Fatal("not-paid invoice reported as settled")
	}
	if result.State != paymentdomain.SettlementStateRejected {
		t.Fatalf("state = %s, want rejected", result.State)
	}
	if result.Reason != paymentdomain.RejectReasonNotPaid {
		t.Errorf("reason = %q", result.Reason)
	}

	if got := countRows(t, db, "payment_records"); got != 0 {
		t.Errorf("payment records = %d, want 0", got)
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want exactly 1", got)
	}
}

func TestConfirmDuplicateSettlement(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{status: paidStatus()})

	if _, err := svc.Confirm(ctx, "inv_42", settlementContext()); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	result, err := svc.Confirm(ctx, "inv_42", settlementContext())
	if !errors.Is(err, paymentdomain.ErrSettlementExists) {
		t.Fatalf("second confirm err = %v, want settlement exists", err)
	}
	if result.Record == nil || result.Record.TransactionID != "inv_42" {
		t.Errorf("replay record = %+v, want the record that won", result.Record)
	}

	if got := countRows(t, db, "payment_records"); got != 1 {
		t.Errorf("payment records = %d, want 1 after replay", got)
	}
}

func TestConfirmInvariantViolation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	// Paid status with no row contradicts itself.
	svc := newTestService(t, db, &fakeGateway{status: &paymentdomain.StatusResult{
		Status: paymentdomain.SettlementStatusPaid,
		Raw:    json.RawMessage(`{"rows":[]}`),
	}})

	_, err := svc.Confirm(ctx, "inv_42", settlementContext())
	if !errors.Is(err, paymentdomain.ErrGatewayInvariant) {
		t.Fatalf("err = %v, want invariant violation", err)
	}

	if got := countRows(t, db, "payment_records"); got != 0 {
		t.Errorf("payment records = %d, want 0", got)
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want 1", got)
	}
}

func TestConfirmRowStatusContradiction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	// Through the real gateway client: a row can claim PAID while its own
	// processing state says otherwise.
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok_123"})
	})
	mux.HandleFunc("/payment/check", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rows": []map[string]string{
				{"payment_id": "pay_1", "payment_status": "PAID", "status": "FAILED"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gateway, err := qpay.NewClient(qpay.Config{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	svc := newTestService(t, db, gateway)

	_, err = svc.Confirm(ctx, "inv_42", settlementContext())
	if !errors.Is(err, paymentdomain.ErrGatewayInvariant) {
		t.Fatalf("err = %v, want invariant violation", err)
	}

	if got := countRows(t, db, "payment_records"); got != 0 {
		t.Errorf("payment records = %d, want 0", got)
	}
	if got := countRows(t, db, "gateway_responses"); got != 1 {
		t.Errorf("gateway responses = %d, want 1", got)
	}
}

func TestConfirmGatewayError(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{statusErr: paymentdomain.ErrGatewayUnavailable})

	_, err := svc.Confirm(ctx, "inv_42", settlementContext())
	if !errors.Is(err, paymentdomain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want gateway unavailable", err)
	}
	if got := countRows(t, db, "gateway_responses"); got != 0 {
		t.Errorf("gateway responses = %d, want 0 when nothing was observed", got)
	}
}

func TestConfirmEmptyInvoice(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	_, err := svc.Confirm(context.Background(), "  ", settlementContext())
	if !errors.Is(err, paymentdomain.ErrInvalidInvoice) {
		t.Fatalf("err = %v, want invalid invoice", err)
	}
}
