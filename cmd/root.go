package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solartelemetry/app"
	"github.com/kilianp07/solartelemetry/config"
	"github.com/kilianp07/solartelemetry/core/factory"
	"github.com/kilianp07/solartelemetry/infra/logger"
)

type options struct {
	cfgPath  string
	panels   int
	start    string
	hours    float64
	minutes  float64
	step     int
	out      string
	format   string
	seed     int64
	site     string
	daylight string
	timezone string
	logLevel string
	summary  bool
	hold     bool
}

// NewRootCmd builds the command tree. Each call returns independent flag
// state.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "solartelemetry",
		Short: "Generate synthetic per-panel solar telemetry",
		Long: `Generate a deterministic stream of per-panel solar telemetry for a
simulated fleet. Records are written as CSV or JSON Lines to stdout or a file
and can additionally be published to MQTT or recorded as metrics.`,
		Example: `  solartelemetry --panels 100 --start 2025-10-18T06:00:00 --hours 12 --out telemetry.csv
  solartelemetry --format jsonl --panels 5 --minutes 30 --step 10`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.cfgPath, "config", "c", "", "optional configuration file (yaml or json)")
	pf.IntVar(&o.panels, "panels", 50, "number of panels")
	pf.Int64Var(&o.seed, "seed", 42, "random seed for reproducibility")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	f := root.Flags()
	f.StringVar(&o.start, "start", "", `ISO start time (e.g. "2025-10-18T06:00:00"), default now (UTC)`)
	f.Float64Var(&o.hours, "hours", 0, "duration in hours (mutually exclusive with --minutes)")
	f.Float64Var(&o.minutes, "minutes", 0, "duration in minutes (mutually exclusive with --hours)")
	f.IntVar(&o.step, "step", 60, "step in seconds between samples")
	f.StringVar(&o.out, "out", "-", `output file path or "-" for stdout`)
	f.StringVar(&o.format, "format", "csv", "output format: csv or jsonl")
	f.StringVar(&o.site, "site", "Site-A", "logical site name")
	f.StringVar(&o.daylight, "daylight", "06:00-18:00", `daylight window "HH:MM-HH:MM" for the diurnal curve`)
	f.StringVar(&o.timezone, "timezone", "UTC", "label only, timestamps are emitted in UTC")
	f.BoolVar(&o.summary, "summary", false, "log a per-string summary when the run completes")
	f.BoolVar(&o.hold, "metrics-hold", false, "keep serving /metrics after the run until interrupted")

	root.AddCommand(newFleetCmd(o), newVersionCmd())
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

func run(cmd *cobra.Command, o *options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, time.Now())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("close outputs: %v", err)
		}
	}()
	return svc.Run(ctx)
}

// loadConfig reads the optional config file, applies the flags that were set
// explicitly and configures logging.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, o, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// applyFlags overrides cfg with explicitly set o. Flags a command does
// not define are never reported as changed.
func applyFlags(cmd *cobra.Command, o *options, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	sim := &cfg.Simulation
	if changed("hours") && changed("minutes") {
		return config.ErrDurationConflict
	}
	if changed("hours") {
		h := o.hours
		sim.Hours, sim.Minutes = &h, nil
	}
	if changed("minutes") {
		m := o.minutes
		sim.Hours, sim.Minutes = nil, &m
	}
	if changed("panels") {
		sim.Panels = o.panels
	}
	if changed("seed") {
		sim.Seed = o.seed
	}
	if changed("start") {
		sim.Start = o.start
	}
	if changed("step") {
		sim.StepSeconds = o.step
	}
	if changed("site") {
		sim.Site = o.site
	}
	if changed("daylight") {
		sim.Daylight = o.daylight
	}
	if changed("timezone") {
		sim.Timezone = o.timezone
	}
	if changed("out") {
		cfg.Output.Path = o.out
	}
	if changed("format") {
		cfg.Output.Format = o.format
	}
	if changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if changed("metrics-hold") {
		cfg.Metrics.Hold = o.hold
	}
	if o.summary {
		cfg.Output.Sinks = append(cfg.Output.Sinks, factory.ModuleConfig{Type: "summary"})
	}
	return nil
}
