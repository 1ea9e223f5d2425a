package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/mglearn/checkout/internal/audit"
	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	"github.com/mglearn/checkout/internal/config"
	obsmetrics "github.com/mglearn/checkout/internal/observability/metrics"
	"github.com/mglearn/checkout/internal/order"
	orderdomain "github.com/mglearn/checkout/internal/order/domain"
	"github.com/mglearn/checkout/internal/payment"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	audit.Module,
	order.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	orderSvc   orderdomain.Service
	paymentSvc paymentdomain.Service
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	OrderSvc   orderdomain.Service
	PaymentSvc paymentdomain.Service
	AuditSvc   auditdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("http.server"),
		genID:      p.GenID,
		orderSvc:   p.OrderSvc,
		paymentSvc: p.PaymentSvc,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerCheckoutRoutes()
	svc.registerCallbackRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCheckoutRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/checkout/invoice", s.CreateCheckoutInvoice)
	api.GET("/orders/:number", s.GetOrder)
	api.POST("/orders/:number/refund", s.RefundOrder)
}

// The gateway redirects the payer here after the wallet flow. The route
// shape is fixed by the gateway callback configuration.
func (s *Server) registerCallbackRoutes() {
	s.engine.GET("/payment/qpay/check", s.CheckPayment)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.GET("/gateway/responses/:transaction_id", s.ListGatewayResponses)
}
