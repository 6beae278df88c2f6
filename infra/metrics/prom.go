package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solartelemetry/core/metrics"
	"github.com/kilianp07/solartelemetry/core/model"
)

// PromRecorder exposes generation progress as Prometheus metrics.
type PromRecorder struct {
	records  *prometheus.CounterVec
	power    *prometheus.HistogramVec
	fleet    prometheus.Gauge
	lastTS   prometheus.Gauge
	duration prometheus.Gauge
}

// NewPromRecorder registers metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromRecorder() (*PromRecorder, error) {
	return NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromRecorderWithRegistry(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solar_records_total",
		Help: "Telemetry records generated",
	}, []string{"status", "fault"})
	power := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solar_power_watts",
		Help:    "Distribution of generated panel DC power",
		Buckets: prometheus.LinearBuckets(0, 50, 10),
	}, []string{"string_id"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solar_fleet_panels",
		Help: "Number of simulated panels",
	})
	lastTS := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solar_last_timestamp_seconds",
		Help: "Simulated timestamp of the latest record",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solar_run_duration_seconds",
		Help: "Wall clock duration of the last completed run",
	})

	var err error
	if records, err = register(reg, records); err != nil {
		return nil, err
	}
	if power, err = register(reg, power); err != nil {
		return nil, err
	}
	if fleet, err = register(reg, fleet); err != nil {
		return nil, err
	}
	if lastTS, err = register(reg, lastTS); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PromRecorder{records: records, power: power, fleet: fleet, lastTS: lastTS, duration: duration}, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTelemetry counts the record and observes its power.
func (p *PromRecorder) RecordTelemetry(rec model.TelemetryRecord) error {
	p.records.WithLabelValues(rec.Status.String(), rec.Fault.String()).Inc()
	p.power.WithLabelValues(rec.StringID).Observe(rec.PowerW)
	p.lastTS.Set(float64(rec.Timestamp.Unix()))
	return nil
}

// RecordFleetSize sets the fleet gauge.
func (p *PromRecorder) RecordFleetSize(size int) error {
	p.fleet.Set(float64(size))
	return nil
}

// RecordRun sets the run duration gauge.
func (p *PromRecorder) RecordRun(ev coremetrics.RunEvent) error {
	p.duration.Set(ev.Elapsed.Seconds())
	return nil
}
