package fault

import (
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/random"
)

// Effect carries the electrical and thermal values a fault may alter.
type Effect struct {
	PowerW    float64
	CurrentA  float64
	CellTempC float64
}

type effectFunc func(src random.Source, e *Effect)

var effects = [...]effectFunc{
	model.FaultNone: nil,
	model.FaultShading: func(src random.Source, e *Effect) {
		e.PowerW *= random.Uniform(src, 0.6, 0.9)
	},
	model.FaultHotspot: func(src random.Source, e *Effect) {
		e.PowerW *= random.Uniform(src, 0.4, 0.8)
		e.CellTempC += random.Uniform(src, 3, 8)
	},
	model.FaultStringOpen:   cutOutput,
	model.FaultInverterTrip: cutOutput,
	model.FaultSoiling: func(src random.Source, e *Effect) {
		e.PowerW *= random.Uniform(src, 0.8, 0.95)
	},
}

func cutOutput(_ random.Source, e *Effect) {
	e.PowerW = 0
	e.CurrentA = 0
}

// Apply mutates e according to kind, drawing from src where the fault is
// stochastic.
func Apply(src random.Source, kind model.FaultKind, e *Effect) {
	if kind < 0 || int(kind) >= len(effects) {
		return
	}
	if fn := effects[kind]; fn != nil {
		fn(src, e)
	}
}
