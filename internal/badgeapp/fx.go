package badgeapp

import (
	"github.com/smallbiznis/meritup/internal/badgeapp/repository"
	"github.com/smallbiznis/meritup/internal/badgeapp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("badgeapp.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
