package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time so services stay testable.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock to the fx graph.
var Module = fx.Provide(NewSystemClock)

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
