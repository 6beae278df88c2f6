package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/solartelemetry/core/environment"
	"github.com/kilianp07/solartelemetry/core/simulation"
)

// ErrDurationConflict is returned when both hours and minutes are set.
var ErrDurationConflict = errors.New("provide ONLY one of --hours or --minutes")

// DefaultDuration applies when neither hours nor minutes is set.
const DefaultDuration = 8 * time.Hour

// SimulationConfig holds the generation parameters.
type SimulationConfig struct {
	Panels int   `json:"panels"`
	Seed   int64 `json:"seed"`
	// Start is an ISO-8601 timestamp. Values without an offset are UTC.
	// Empty means now, truncated to the second.
	Start       string   `json:"start"`
	Hours       *float64 `json:"hours"`
	Minutes     *float64 `json:"minutes"`
	StepSeconds int      `json:"step_seconds"`
	Daylight    string   `json:"daylight"`
	Site        string   `json:"site"`
	// Timezone is a label only; timestamps are always emitted in UTC.
	Timezone string `json:"timezone"`
}

// SetDefaults applies defaults to zero string and step values. Panels and
// seed keep their zero values when explicitly set, so their defaults come
// from Default.
func (c *SimulationConfig) SetDefaults() {
	if c.StepSeconds == 0 {
		c.StepSeconds = 60
	}
	if c.Daylight == "" {
		c.Daylight = "06:00-18:00"
	}
	if c.Site == "" {
		c.Site = "Site-A"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

func defaultSimulation() SimulationConfig {
	c := SimulationConfig{Panels: 50, Seed: 42}
	c.SetDefaults()
	return c
}

// Validate checks the values that would make a run impossible. An invalid
// daylight window is not an error; it falls back to the default window.
func (c SimulationConfig) Validate() error {
	if c.Panels < 0 {
		return fmt.Errorf("panels must be non-negative, got %d", c.Panels)
	}
	if c.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive, got %d", c.StepSeconds)
	}
	d, err := c.Duration()
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", d)
	}
	if c.Start != "" {
		if _, err := ParseStart(c.Start); err != nil {
			return err
		}
	}
	return nil
}

// Duration resolves hours or minutes. Neither set yields DefaultDuration.
func (c SimulationConfig) Duration() (time.Duration, error) {
	switch {
	case c.Hours != nil && c.Minutes != nil:
		return 0, ErrDurationConflict
	case c.Hours != nil:
		return time.Duration(*c.Hours * float64(time.Hour)), nil
	case c.Minutes != nil:
		return time.Duration(*c.Minutes * float64(time.Minute)), nil
	default:
		return DefaultDuration, nil
	}
}

var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseStart parses an ISO-8601 start time and converts it to UTC.
func ParseStart(s string) (time.Time, error) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", s)
}

// Run resolves the configuration into engine parameters. now supplies the
// default start. The boolean reports whether the daylight window fell back
// to the default.
func (c SimulationConfig) Run(now time.Time) (simulation.Config, bool, error) {
	d, err := c.Duration()
	if err != nil {
		return simulation.Config{}, false, err
	}
	start := now.UTC().Truncate(time.Second)
	if c.Start != "" {
		if start, err = ParseStart(c.Start); err != nil {
			return simulation.Config{}, false, err
		}
	}
	w, fellBack := environment.WindowOrDefault(c.Daylight)
	return simulation.Config{
		Start:    start,
		Duration: d,
		Step:     time.Duration(c.StepSeconds) * time.Second,
		Window:   w,
		Panels:   c.Panels,
		Seed:     c.Seed,
		Site:     c.Site,
	}, fellBack, nil
}
