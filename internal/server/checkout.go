package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/mglearn/checkout/internal/order/domain"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// notPaidUserMessage is shown to the payer when the wallet flow comes back
// without a captured payment. Kept in Mongolian for the storefront.
const notPaidUserMessage = "Төлбөр төлөгдөөгүй байна"

type createCheckoutRequest struct {
	OrderNumber string          `json:"order_number" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type createCheckoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	InvoiceID   string `json:"invoice_id"`
	QPayLink    string `json:"qpay_link"`
	QPayQR      string `json:"qpay_qr"`
}

// CreateCheckoutInvoice opens a pending order and registers the charge at
// the gateway in one step. The gateway invoice id is attached to the order
// so the later callback can find it again.
func (s *Server) CreateCheckoutInvoice(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()

	pending, err := s.orderSvc.Create(ctx, orderdomain.CreateRequest{
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	handle, err := s.paymentSvc.CreateInvoice(ctx, paymentdomain.InvoiceRequest{
		OrderReference: pending.OrderNumber,
		Amount:         pending.Amount,
		Currency:       pending.Currency,
		Description:    req.Description,
		CallbackURL:    s.cfg.QPayCallbackURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.AttachInvoice(ctx, pending.ID, handle.InvoiceID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createCheckoutResponse{
		OrderID:     pending.ID.String(),
		OrderNumber: pending.OrderNumber,
		InvoiceID:   handle.InvoiceID,
		QPayLink:    handle.ShortLink,
		QPayQR:      handle.QRImage,
	})
}

// CheckPayment is the gateway callback surface. Its contract is fixed:
// 201 with a receipt page URL when the invoice settled, 400 otherwise.
// The payer-facing not-paid case carries a user message; every other
// failure is an empty 400 so nothing about the gateway leaks out.
func (s *Server) CheckPayment(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Query("qpay_payment_id"))
	if invoiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	ctx := c.Request.Context()

	pending, err := s.orderSvc.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		s.log.Warn("callback for unknown invoice",
			zap.String("invoice_id", invoiceID),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	result, err := s.paymentSvc.Confirm(ctx, invoiceID, paymentdomain.SettlementContext{
		OrderID:     pending.ID,
		OrderNumber: pending.OrderNumber,
		Amount:      pending.Amount,
		Currency:    pending.Currency,
	})
	switch {
	case errors.Is(err, paymentdomain.ErrSettlementExists):
		// Replayed callback for an already settled invoice. The receipt
		// is still the right answer.
		s.log.Info("callback replay for settled invoice",
			zap.String("invoice_id", invoiceID),
			zap.String("order_number", pending.OrderNumber),
		)
	case err != nil:
		s.log.Error("settlement confirmation failed",
			zap.String("invoice_id", invoiceID),
			zap.String("order_number", pending.OrderNumber),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	case !result.Settled():
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code":   http.StatusBadRequest,
			"user_message": notPaidUserMessage,
		})
		return
	}

	if err := s.orderSvc.Finalize(ctx, pending.ID); err != nil && !errors.Is(err, orderdomain.ErrOrderNotOpen) {
		s.log.Error("failed to finalize order after settlement",
			zap.String("order_number", pending.OrderNumber),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"receipt_page_url": s.receiptPageURL(pending.OrderNumber),
	})
}

type refundResponse struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// RefundOrder issues a compensating refund for a placed order.
func (s *Server) RefundOrder(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("number"))
	if orderNumber == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()

	placed, err := s.orderSvc.FindByNumber(ctx, orderNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if placed.InvoiceID == nil || *placed.InvoiceID == "" {
		AbortWithError(c, newValidationError("order", "order_has_no_invoice", "order has no gateway invoice"))
		return
	}

	transactionID, err := s.paymentSvc.IssueRefund(ctx, placed.OrderNumber, *placed.InvoiceID, placed.Amount, placed.Currency)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.MarkRefunded(ctx, placed.ID); err != nil {
		s.log.Warn("refund issued but order status not updated",
			zap.String("order_number", placed.OrderNumber),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, refundResponse{
		OrderNumber:   placed.OrderNumber,
		TransactionID: transactionID,
		Status:        string(orderdomain.OrderStatusRefunded),
	})
}

func (s *Server) GetOrder(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("number"))
	if orderNumber == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	found, err := s.orderSvc.FindByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// ListGatewayResponses returns the audit trail for one transaction.
func (s *Server) ListGatewayResponses(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Param("transaction_id"))

	responses, err := s.auditSvc.List(c.Request.Context(), transactionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

func (s *Server) receiptPageURL(orderNumber string) string {
	return s.cfg.EcommerceBaseURL + s.cfg.ReceiptPath + "?order_number=" + url.QueryEscape(orderNumber)
}
