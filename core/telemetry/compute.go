// Package telemetry turns a panel spec and site conditions into a reading.
package telemetry

import (
	"math"
	"time"

	"github.com/kilianp07/solartelemetry/core/environment"
	"github.com/kilianp07/solartelemetry/core/fault"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/random"
)

const (
	stcIrradianceWm2 = 1000.0
	stcCellTempC     = 25.0
	overRating       = 1.10
	offThresholdW    = 0.1
	irradianceFloor  = 1.0
)

// Engine computes telemetry records. All randomness comes from src, in a
// fixed order per record: electronic noise, voltage, fault draw, then any
// fault side effect draws.
type Engine struct {
	src         random.Source
	faults      fault.Assigner
	baseAmbient float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithFaultAssigner replaces the weighted catalog draw.
func WithFaultAssigner(a fault.Assigner) Option {
	return func(e *Engine) { e.faults = a }
}

// WithBaseAmbient sets the mean daily ambient temperature.
func WithBaseAmbient(c float64) Option {
	return func(e *Engine) { e.baseAmbient = c }
}

// NewEngine returns an Engine drawing from src.
func NewEngine(src random.Source, opts ...Option) *Engine {
	e := &Engine{src: src, faults: fault.Weighted{}, baseAmbient: environment.DefaultBaseTempC}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OrientationTiltModifier favours south facing (180°) panels tilted 25°.
// The result is clamped to [0.85,1.05].
func OrientationTiltModifier(orientationDeg, tiltDeg float64) float64 {
	orient := 1.0 - math.Abs(180-orientationDeg)/180.0*0.1
	tilt := 1.0 - math.Abs(25-tiltDeg)/25.0*0.08
	return clamp(orient*tilt, 0.85, 1.05)
}

// DegradationFactor is the remaining power fraction after dayIndex days.
func DegradationFactor(perDay float64, dayIndex int) float64 {
	return math.Pow(1.0-perDay, float64(dayIndex))
}

// Compute derives one record for spec at ts. cloud is the attenuation shared
// by the panel's string for this timestamp.
func (e *Engine) Compute(spec model.PanelSpec, ts time.Time, w environment.Window, dayIndex int, cloud float64) model.TelemetryRecord {
	irr := stcIrradianceWm2 * environment.DiurnalIrradianceFactor(ts, w) * cloud

	ambient := environment.AmbientTemperatureC(ts, e.baseAmbient)
	cell := environment.PanelCellTempC(ambient, irr)

	orient := OrientationTiltModifier(spec.OrientationDeg, spec.TiltDeg)
	degr := DegradationFactor(spec.DegradationPerDay, dayIndex)

	pRaw := spec.PStcW * (irr / stcIrradianceWm2) * spec.EfficiencyJitter * orient * degr
	pTemp := pRaw * (1.0 + spec.TempCoeffP*(cell-stcCellTempC))
	pNoisy := pTemp * random.Uniform(e.src, 0.98, 1.02)
	pDC := clamp(pNoisy, 0, spec.PStcW*overRating)

	var v, i float64
	if pDC <= offThresholdW {
		v = spec.VMppt * random.Uniform(e.src, 0.92, 1.05)
	} else {
		v = spec.VMppt * random.Uniform(e.src, 0.97, 1.03)
		i = pDC / v
	}

	if irr < irradianceFloor {
		irr = 0
	}

	kind, status := e.faults.Assign(e.src)
	eff := fault.Effect{PowerW: pDC, CurrentA: i, CellTempC: cell}
	fault.Apply(e.src, kind, &eff)
	pDC, cell = eff.PowerW, eff.CellTempC

	if v > 0 {
		i = pDC / v
	} else {
		i = 0
	}

	return model.TelemetryRecord{
		Timestamp:      ts,
		TimestampUTC:   model.FormatTimestamp(ts),
		PanelID:        spec.PanelID,
		StringID:       spec.StringID,
		Status:         status,
		Fault:          kind,
		PowerW:         round(math.Max(0, pDC), 2),
		VoltageV:       round(math.Max(0, v), 2),
		CurrentA:       round(math.Max(0, i), 3),
		IrradianceWm2:  round(irr, 1),
		AmbientTempC:   round(ambient, 2),
		CellTempC:      round(cell, 2),
		OrientationDeg: round(spec.OrientationDeg, 1),
		TiltDeg:        round(spec.TiltDeg, 1),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.RoundToEven(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
