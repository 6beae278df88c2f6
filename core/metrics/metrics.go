package metrics

import (
	"time"

	"github.com/kilianp07/solartelemetry/core/factory"
	"github.com/kilianp07/solartelemetry/core/model"
)

// Config defines the metrics recorders of a run.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, exposes /metrics on this address.
	PrometheusAddr string `json:"prometheus_addr"`
	// Hold keeps the /metrics server up after the run until interrupted.
	Hold bool `json:"hold"`
}

// Recorder receives each generated telemetry record.
type Recorder interface {
	RecordTelemetry(rec model.TelemetryRecord) error
}

// FleetSizeRecorder records the number of simulated panels.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// RunEvent summarises a completed generation run.
type RunEvent struct {
	RunID      string
	Site       string
	Panels     int
	Timestamps int
	Records    int
	Faults     map[model.FaultKind]int
	Start      time.Time // first simulated timestamp
	End        time.Time // last simulated timestamp
	Elapsed    time.Duration
}

// RunRecorder records run summaries.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// NopRecorder implements every recorder interface with no-op methods.
type NopRecorder struct{}

func (NopRecorder) RecordTelemetry(model.TelemetryRecord) error { return nil }
func (NopRecorder) RecordFleetSize(int) error                   { return nil }
func (NopRecorder) RecordRun(RunEvent) error                    { return nil }
