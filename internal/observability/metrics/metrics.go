package metrics

import (
	"strings"

	"github.com/mglearn/checkout/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level settlement instruments.
type Metrics struct {
	settlements *prometheus.CounterVec
	refunds     *prometheus.CounterVec
	invoices    *prometheus.CounterVec
}

var Module = fx.Module("observability.metrics",
	fx.Provide(func(cfg config.Config) *Metrics {
		return New(prometheus.DefaultRegisterer, cfg)
	}),
)

func New(registerer prometheus.Registerer, cfg config.Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "checkout"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "checkout_settlements_total",
		Help:        "Settlement confirmation attempts by low-cardinality outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "checkout_refunds_total",
		Help:        "Refund attempts by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	invoices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "checkout_invoices_created_total",
		Help:        "Gateway invoices created by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	registerer.MustRegister(settlements, refunds, invoices)

	return &Metrics{
		settlements: settlements,
		refunds:     refunds,
		invoices:    invoices,
	}
}

func (m *Metrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRefund(outcome string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordInvoiceCreated(outcome string) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(outcome).Inc()
}
