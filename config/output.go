package config

import (
	"fmt"

	"github.com/kilianp07/solartelemetry/core/factory"
)

// OutputConfig selects the primary record stream and any extra sinks.
type OutputConfig struct {
	// Format is csv or jsonl.
	Format string `json:"format"`
	// Path is a file path or "-" for stdout.
	Path  string                 `json:"path"`
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "csv"
	}
	if c.Path == "" {
		c.Path = "-"
	}
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	if c.Format != "csv" && c.Format != "jsonl" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d: type is required", i)
		}
	}
	return nil
}

// SinkConfigs returns the primary format sink followed by the extra sinks.
func (c OutputConfig) SinkConfigs() []factory.ModuleConfig {
	out := make([]factory.ModuleConfig, 0, len(c.Sinks)+1)
	out = append(out, factory.ModuleConfig{Type: c.Format, Conf: map[string]any{"path": c.Path}})
	return append(out, c.Sinks...)
}
