package app

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solartelemetry/config"
	"github.com/kilianp07/solartelemetry/core/factory"
	coremetrics "github.com/kilianp07/solartelemetry/core/metrics"
	"github.com/kilianp07/solartelemetry/core/output"
	"github.com/kilianp07/solartelemetry/core/simulation"
	"github.com/kilianp07/solartelemetry/core/summary"
	"github.com/kilianp07/solartelemetry/infra/logger"
	"github.com/kilianp07/solartelemetry/infra/metrics"
	_ "github.com/kilianp07/solartelemetry/infra/mqtt"
	_ "github.com/kilianp07/solartelemetry/pkg/export"
)

// Service wires the configured sinks and recorders around a driver.
type Service struct {
	Driver   *simulation.Driver
	Event    coremetrics.RunEvent
	sink     output.Sink
	recorder coremetrics.Recorder
	log      logger.Logger
	promAddr string
	hold     bool
}

// New creates a Service from the configuration. now supplies the start time
// when none is configured.
func New(cfg *config.Config, now time.Time) (*Service, error) {
	logg := logger.New("service")
	simCfg, fellBack, err := cfg.Simulation.Run(now)
	if err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	if fellBack {
		logg.Warnf("invalid daylight window %q, using %s", cfg.Simulation.Daylight, simCfg.Window)
	}
	logg.Infof("timezone %s is a label only, timestamps are emitted in UTC", cfg.Simulation.Timezone)

	runID := uuid.NewString()
	summary.SetDefaultLogger(logger.New("summary"))
	sink, err := output.NewSink(withRunContext(cfg.Output.SinkConfigs(), runID, simCfg))
	if err != nil {
		return nil, fmt.Errorf("output sink: %w", err)
	}

	recCfgs := cfg.Metrics.Sinks
	if cfg.Metrics.PrometheusAddr != "" && !hasType(recCfgs, "prometheus") {
		recCfgs = append(recCfgs, factory.ModuleConfig{Type: "prometheus"})
	}
	rec, err := coremetrics.NewRecorder(withRunContext(recCfgs, runID, simCfg))
	if err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("metrics recorder: %w", err)
	}

	drv, err := simulation.NewDriver(simCfg, sink,
		simulation.WithRecorder(rec),
		simulation.WithLogger(logger.New("simulation")),
		simulation.WithRunID(runID),
	)
	if err != nil {
		_ = sink.Close()
		closeRecorder(rec)
		return nil, err
	}
	return &Service{
		Driver:   drv,
		sink:     sink,
		recorder: rec,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
		hold:     cfg.Metrics.Hold,
	}, nil
}

// Run generates the whole stream and returns once every record is written or
// the context is cancelled. With hold set, the /metrics server keeps serving
// after the run until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	var promErr chan error
	if s.promAddr != "" {
		promCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		promErr = make(chan error, 1)
		go func() {
			err := metrics.StartPromServer(promCtx, s.promAddr)
			if err != nil {
				s.log.Errorf("prom server: %v", err)
			}
			promErr <- err
		}()
	}
	ev, err := s.Driver.Run(ctx)
	s.Event = ev
	if err != nil || promErr == nil || !s.hold {
		return err
	}
	s.log.Infof("run finished, serving metrics on %s until interrupted", s.promAddr)
	select {
	case <-ctx.Done():
		return nil
	case err := <-promErr:
		return err
	}
}

// Close flushes the sinks and releases recorder clients.
func (s *Service) Close() error {
	closeRecorder(s.recorder)
	return s.sink.Close()
}

func closeRecorder(r coremetrics.Recorder) {
	if c, ok := r.(interface{ Close() }); ok {
		c.Close()
	}
}

func hasType(cfgs []factory.ModuleConfig, typ string) bool {
	for _, c := range cfgs {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// withRunContext copies cfgs, filling run-scoped values the modules did not
// set themselves.
func withRunContext(cfgs []factory.ModuleConfig, runID string, sim simulation.Config) []factory.ModuleConfig {
	out := make([]factory.ModuleConfig, len(cfgs))
	for i, c := range cfgs {
		conf := make(map[string]any, len(c.Conf)+2)
		maps.Copy(conf, c.Conf)
		switch c.Type {
		case "mqtt", "influx":
			setDefault(conf, "run_id", runID)
			setDefault(conf, "site", sim.Site)
		case "summary":
			setDefault(conf, "step_seconds", int(sim.Step/time.Second))
		}
		out[i] = factory.ModuleConfig{Type: c.Type, Conf: conf}
	}
	return out
}

func setDefault(conf map[string]any, key string, v any) {
	if _, ok := conf[key]; !ok {
		conf[key] = v
	}
}
