package payment

import (
	"github.com/mglearn/checkout/internal/config"
	"github.com/mglearn/checkout/internal/payment/adapters/qpay"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/mglearn/checkout/internal/payment/repository"
	paymentservice "github.com/mglearn/checkout/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) (paymentdomain.Gateway, error) {
		return qpay.NewClient(qpay.Config{
			BaseURL:      cfg.QPayBaseURL,
			InvoiceCode:  cfg.QPayInvoiceCode,
			ClientID:     cfg.QPayClientID,
			ClientSecret: cfg.QPayClientSecret,
			Timeout:      cfg.QPayTimeout,
		})
	}),
	fx.Provide(paymentservice.NewService),
)
