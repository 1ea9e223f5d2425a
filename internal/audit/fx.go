package audit

import (
	"github.com/mglearn/checkout/internal/audit/repository"
	"github.com/mglearn/checkout/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
