package simulation

import (
	"fmt"
	"time"

	"github.com/kilianp07/solartelemetry/core/environment"
)

// Config describes one generation run.
type Config struct {
	Start    time.Time
	Duration time.Duration
	Step     time.Duration
	Window   environment.Window
	Panels   int
	Seed     int64
	Site     string
}

// Validate checks the values the engine relies on.
func (c Config) Validate() error {
	if c.Panels < 0 {
		return fmt.Errorf("panels must be non-negative, got %d", c.Panels)
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %s", c.Step)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", c.Duration)
	}
	return nil
}
