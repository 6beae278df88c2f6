// Package simulation drives the telemetry engine over a time range.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solartelemetry/core/environment"
	"github.com/kilianp07/solartelemetry/core/fleet"
	"github.com/kilianp07/solartelemetry/core/logger"
	"github.com/kilianp07/solartelemetry/core/metrics"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/output"
	"github.com/kilianp07/solartelemetry/core/random"
	"github.com/kilianp07/solartelemetry/core/telemetry"
)

// Driver generates the fleet once and then computes one record per panel per
// timestamp. Every random draw comes from a single Source seeded with the run
// seed, so equal configs produce equal streams.
type Driver struct {
	cfg    Config
	src    random.Source
	engine *telemetry.Engine
	fleet  []model.PanelSpec
	sink   output.Sink
	rec    metrics.Recorder
	log    logger.Logger
	runID  string
}

// Option configures a Driver.
type Option func(*Driver)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Driver) { d.rec = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(d *Driver) { d.runID = id }
}

// WithEngineOptions passes options to the telemetry engine.
func WithEngineOptions(opts ...telemetry.Option) Option {
	return func(d *Driver) {
		d.engine = telemetry.NewEngine(d.src, opts...)
	}
}

// NewDriver validates cfg and generates the fleet.
func NewDriver(cfg Config, sink output.Sink, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if sink == nil {
		sink = output.NopSink{}
	}
	src := random.New(cfg.Seed)
	d := &Driver{
		cfg:   cfg,
		src:   src,
		fleet: fleet.Generate(src, cfg.Panels, cfg.Seed),
		sink:  sink,
		rec:   metrics.NopRecorder{},
		log:   logger.NopLogger{},
		runID: uuid.NewString(),
	}
	d.engine = telemetry.NewEngine(src)
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Fleet returns the generated panels.
func (d *Driver) Fleet() []model.PanelSpec { return d.fleet }

// RunID identifies this run in logs and metrics.
func (d *Driver) RunID() string { return d.runID }

// Run streams every record to the sink. Metrics failures are logged and do
// not stop the run; sink failures do. The context is checked between
// timestamps.
func (d *Driver) Run(ctx context.Context) (metrics.RunEvent, error) {
	began := time.Now()
	ev := metrics.RunEvent{
		RunID:  d.runID,
		Site:   d.cfg.Site,
		Panels: len(d.fleet),
		Faults: make(map[model.FaultKind]int),
		Start:  d.cfg.Start.UTC(),
	}
	d.log.Infow("simulation started", map[string]any{
		"run_id":   d.runID,
		"site":     d.cfg.Site,
		"panels":   len(d.fleet),
		"start":    model.FormatTimestamp(d.cfg.Start),
		"duration": d.cfg.Duration.String(),
		"step":     d.cfg.Step.String(),
		"steps":    Steps(d.cfg.Duration, d.cfg.Step),
		"daylight": d.cfg.Window.String(),
		"seed":     d.cfg.Seed,
	})
	if fr, ok := d.rec.(metrics.FleetSizeRecorder); ok {
		if err := fr.RecordFleetSize(len(d.fleet)); err != nil {
			d.log.Warnf("record fleet size: %v", err)
		}
	}

	metricErrs := 0
	for ts := range TimeRange(d.cfg.Start, d.cfg.Duration, d.cfg.Step) {
		if err := ctx.Err(); err != nil {
			return ev, err
		}
		dayIdx := DayIndex(d.cfg.Start, ts)
		clouds := NewStringCloudCache(d.src, environment.CloudCoverFactor(d.src))
		for _, spec := range d.fleet {
			rec := d.engine.Compute(spec, ts, d.cfg.Window, dayIdx, clouds.Factor(spec.StringID))
			if err := d.sink.Write(rec); err != nil {
				return ev, fmt.Errorf("write %s at %s: %w", rec.PanelID, rec.TimestampUTC, err)
			}
			if err := d.rec.RecordTelemetry(rec); err != nil {
				if metricErrs == 0 {
					d.log.Warnf("record telemetry: %v", err)
				}
				metricErrs++
			}
			ev.Records++
			if rec.Fault != model.FaultNone {
				ev.Faults[rec.Fault]++
				d.log.Debugw("fault injected", map[string]any{
					"panel_id":  rec.PanelID,
					"string_id": rec.StringID,
					"fault":     rec.Fault.String(),
					"timestamp": rec.TimestampUTC,
				})
			}
		}
		ev.End = ts.UTC()
		ev.Timestamps++
	}
	ev.Elapsed = time.Since(began)

	if rr, ok := d.rec.(metrics.RunRecorder); ok {
		if err := rr.RecordRun(ev); err != nil {
			d.log.Warnf("record run: %v", err)
		}
	}
	fields := map[string]any{
		"run_id":     d.runID,
		"records":    ev.Records,
		"timestamps": ev.Timestamps,
		"elapsed":    ev.Elapsed.String(),
	}
	if metricErrs > 0 {
		fields["metric_errors"] = metricErrs
	}
	for k, n := range ev.Faults {
		fields["faults_"+k.String()] = n
	}
	d.log.Infow("simulation finished", fields)
	return ev, nil
}
