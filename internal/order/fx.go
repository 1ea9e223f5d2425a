package order

import (
	"github.com/mglearn/checkout/internal/order/repository"
	"github.com/mglearn/checkout/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
