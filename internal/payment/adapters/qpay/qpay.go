package qpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
)

const (
	invoiceReceiverCode = "terminal"

	paymentStatusPaid = "PAID"
	errPaymentNotFound = "PAYMENT_NOTFOUND"

	// Only the first page of status rows is ever inspected. The gateway has
	// never returned more than one settlement row per invoice in practice;
	// the window is kept deliberately and documented here.
	checkPageNumber = 1
	checkPageLimit  = 100
)

// Config is the immutable gateway configuration. Credentials are set at
// construction and never mutated afterwards.
type Config struct {
	BaseURL      string
	InvoiceCode  string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" || strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, paymentdomain.ErrGatewayAuth
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type invoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	ShortURL  string `json:"qPay_shortUrl"`
	QRImage   string `json:"qr_image"`
}

type checkRequest struct {
	ObjectType string      `json:"object_type"`
	ObjectID   string      `json:"object_id"`
	Offset     checkOffset `json:"offset"`
}

type checkOffset struct {
	PageNumber int `json:"page_number"`
	PageLimit  int `json:"page_limit"`
}

type checkResponse struct {
	Rows  []paymentdomain.PaymentRow `json:"rows"`
	Error string                     `json:"error"`
}

// Authenticate exchanges the client credentials for a short-lived bearer
// token. Called fresh before every privileged operation.
func (c *Client) Authenticate(ctx context.Context) (paymentdomain.AccessToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/token", nil)
	if err != nil {
		return paymentdomain.AccessToken{}, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return paymentdomain.AccessToken{}, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return paymentdomain.AccessToken{}, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayAuth, err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return paymentdomain.AccessToken{}, paymentdomain.ErrGatewayAuth
	}
	return paymentdomain.AccessToken{Value: token.AccessToken}, nil
}

// CreateInvoice registers a pending charge at the gateway. Single attempt;
// any transport or decode failure surfaces as a settlement error.
func (c *Client) CreateInvoice(ctx context.Context, req paymentdomain.InvoiceRequest) (*paymentdomain.InvoiceHandle, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"invoice_code":          c.cfg.InvoiceCode,
		"sender_invoice_no":     req.OrderReference,
		"invoice_receiver_code": invoiceReceiverCode,
		"invoice_description":   req.Description,
		"amount":                MinorUnits(req.Amount),
		"callback_url":          req.CallbackURL,
	}

	raw, err := c.post(ctx, "/invoice", token, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewaySettlement, err)
	}

	var decoded invoiceResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewaySettlement, err)
	}
	if strings.TrimSpace(decoded.InvoiceID) == "" {
		return nil, fmt.Errorf("%w: missing invoice_id", paymentdomain.ErrGatewaySettlement)
	}

	return &paymentdomain.InvoiceHandle{
		InvoiceID: decoded.InvoiceID,
		ShortLink: decoded.ShortURL,
		QRImage:   decoded.QRImage,
		Raw:       raw,
	}, nil
}

// CheckStatus polls the gateway once for the invoice's settlement rows.
// A row with a PAID payment status yields a paid result carrying that row;
// PAYMENT_NOTFOUND or no matching row yields the canonical not-paid result.
// The raw body is returned either way so the caller can audit it.
func (c *Client) CheckStatus(ctx context.Context, invoiceID string) (*paymentdomain.StatusResult, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, paymentdomain.ErrInvalidInvoice
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.post(ctx, "/payment/check", token, checkRequest{
		ObjectType: "INVOICE",
		ObjectID:   invoiceID,
		Offset: checkOffset{
			PageNumber: checkPageNumber,
			PageLimit:  checkPageLimit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}

	var decoded checkResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}

	if decoded.Error != errPaymentNotFound {
		for i := range decoded.Rows {
			if decoded.Rows[i].PaymentStatus == paymentStatusPaid {
				row := decoded.Rows[i]
				return &paymentdomain.StatusResult{
					Status: paymentdomain.SettlementStatusPaid,
					Row:    &row,
					Raw:    raw,
				}, nil
			}
		}
	}

	return &paymentdomain.StatusResult{
		Status: paymentdomain.SettlementStatusNotPaid,
		Raw:    raw,
	}, nil
}

// Refund issues a compensating deletion for a captured invoice. The
// idempotency key is caller-supplied so a retried refund cannot double-pay.
func (c *Client) Refund(ctx context.Context, invoiceID string, idempotencyKey string) (json.RawMessage, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, paymentdomain.ErrInvalidInvoice
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+"/payment/refund/"+invoiceID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	return raw, nil
}

func (c *Client) post(ctx context.Context, path string, token paymentdomain.AccessToken, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
