package migration

import (
	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	"github.com/mglearn/checkout/internal/config"
	orderdomain "github.com/mglearn/checkout/internal/order/domain"
	paymentdomain "github.com/mglearn/checkout/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is a dev-only target; the versioned migrations are
			// written for postgres.
			return conn.AutoMigrate(
				&orderdomain.OrderContext{},
				&paymentdomain.PaymentRecord{},
				&paymentdomain.RefundRecord{},
				&auditdomain.GatewayResponse{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
