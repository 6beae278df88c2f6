// Package summary aggregates a telemetry stream into per-string statistics.
package summary

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/solartelemetry/core/factory"
	"github.com/kilianp07/solartelemetry/core/logger"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/output"
)

// StringSummary describes one string over a run.
type StringSummary struct {
	StringID        string
	Records         int
	MeanPowerW      float64
	StdDevPowerW    float64
	PeakPowerW      float64
	EnergyWh        float64
	PeakIrradiance  float64
	Faults          map[model.FaultKind]int
	FaultRecordRate float64
}

type accumulator struct {
	power      []float64
	irradiance []float64
	faults     map[model.FaultKind]int
}

// Aggregator is an output.Sink that keeps per-string samples and logs a
// summary when closed.
type Aggregator struct {
	step   time.Duration
	log    logger.Logger
	byID   map[string]*accumulator
	closed bool
}

// Config configures the aggregator sink.
type Config struct {
	StepSeconds int `json:"step_seconds"`
}

// NewAggregator returns an empty aggregator. step converts power samples into
// energy; log may be nil.
func NewAggregator(step time.Duration, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Aggregator{step: step, log: log, byID: make(map[string]*accumulator)}
}

// Write records rec.
func (a *Aggregator) Write(rec model.TelemetryRecord) error {
	acc, ok := a.byID[rec.StringID]
	if !ok {
		acc = &accumulator{faults: make(map[model.FaultKind]int)}
		a.byID[rec.StringID] = acc
	}
	acc.power = append(acc.power, rec.PowerW)
	acc.irradiance = append(acc.irradiance, rec.IrradianceWm2)
	if rec.Fault != model.FaultNone {
		acc.faults[rec.Fault]++
	}
	return nil
}

// Summaries returns the statistics per string, ordered by string id.
func (a *Aggregator) Summaries() []StringSummary {
	ids := make([]string, 0, len(a.byID))
	for id := range a.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]StringSummary, 0, len(ids))
	hours := a.step.Hours()
	for _, id := range ids {
		acc := a.byID[id]
		s := StringSummary{StringID: id, Records: len(acc.power), Faults: acc.faults}
		if len(acc.power) > 1 {
			s.MeanPowerW, s.StdDevPowerW = stat.MeanStdDev(acc.power, nil)
		} else {
			s.MeanPowerW = acc.power[0]
		}
		s.PeakPowerW = floats.Max(acc.power)
		s.EnergyWh = floats.Sum(acc.power) * hours
		s.PeakIrradiance = floats.Max(acc.irradiance)
		faulted := 0
		for _, n := range acc.faults {
			faulted += n
		}
		s.FaultRecordRate = float64(faulted) / float64(len(acc.power))
		out = append(out, s)
	}
	return out
}

// Close logs one line per string.
func (a *Aggregator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	for _, s := range a.Summaries() {
		faults := make(map[string]int, len(s.Faults))
		for k, n := range s.Faults {
			faults[k.String()] = n
		}
		a.log.Infow("string summary", map[string]any{
			"string_id":       s.StringID,
			"records":         s.Records,
			"mean_power_w":    s.MeanPowerW,
			"stddev_power_w":  s.StdDevPowerW,
			"peak_power_w":    s.PeakPowerW,
			"energy_wh":       s.EnergyWh,
			"peak_irradiance": s.PeakIrradiance,
			"fault_rate":      s.FaultRecordRate,
			"faults":          faults,
		})
	}
	return nil
}

var _ output.Sink = (*Aggregator)(nil)

var defaultLogger logger.Logger = logger.NopLogger{}

// SetDefaultLogger sets the logger used by aggregators built from
// configuration.
func SetDefaultLogger(l logger.Logger) {
	if l == nil {
		l = logger.NopLogger{}
	}
	defaultLogger = l
}

func init() {
	_ = output.RegisterSink("summary", func(conf map[string]any) (output.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.StepSeconds <= 0 {
			c.StepSeconds = 60
		}
		return NewAggregator(time.Duration(c.StepSeconds)*time.Second, defaultLogger), nil
	})
}
