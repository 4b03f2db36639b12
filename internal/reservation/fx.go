package reservation

import (
	"github.com/smallbiznis/meritup/internal/reservation/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("reservation.ledger",
	fx.Provide(repository.Provide),
)
