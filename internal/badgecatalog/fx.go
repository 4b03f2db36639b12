package badgecatalog

import (
	"github.com/smallbiznis/meritup/internal/badgecatalog/repository"
	"github.com/smallbiznis/meritup/internal/badgecatalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("badgecatalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
