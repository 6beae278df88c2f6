// Package fault injects categorical faults into panel readings.
package fault

import (
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/random"
)

// Entry is one row of the fault catalog.
type Entry struct {
	Kind   model.FaultKind
	Status model.Status
	Weight float64
}

// Catalog is walked in order when drawing a fault. NONE carries no mass of
// its own; it is the fallback when the sample lands past every fault.
var Catalog = [...]Entry{
	{model.FaultNone, model.StatusOK, 0.0},
	{model.FaultShading, model.StatusWarning, 0.0015},
	{model.FaultHotspot, model.StatusFault, 0.0005},
	{model.FaultStringOpen, model.StatusFault, 0.0004},
	{model.FaultInverterTrip, model.StatusFault, 0.0003},
	{model.FaultSoiling, model.StatusWarning, 0.0008},
}

// Assign draws one uniform sample and returns the first catalog entry whose
// cumulative weight reaches it.
func Assign(src random.Source) (model.FaultKind, model.Status) {
	r := src.Float64()
	acc := 0.0
	for _, e := range Catalog {
		acc += e.Weight
		if r <= acc {
			return e.Kind, e.Status
		}
	}
	return model.FaultNone, model.StatusOK
}

// StatusOf returns the status associated with kind in the catalog.
func StatusOf(kind model.FaultKind) model.Status {
	for _, e := range Catalog {
		if e.Kind == kind {
			return e.Status
		}
	}
	return model.StatusOK
}

// Assigner selects the fault for a reading.
type Assigner interface {
	Assign(src random.Source) (model.FaultKind, model.Status)
}

// Weighted draws from Catalog.
type Weighted struct{}

// Assign implements Assigner.
func (Weighted) Assign(src random.Source) (model.FaultKind, model.Status) { return Assign(src) }

// Fixed always returns the same fault without consuming a draw.
type Fixed model.FaultKind

// Assign implements Assigner.
func (f Fixed) Assign(random.Source) (model.FaultKind, model.Status) {
	kind := model.FaultKind(f)
	return kind, StatusOf(kind)
}
