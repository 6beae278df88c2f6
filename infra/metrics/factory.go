package metrics

import (
	"github.com/kilianp07/solartelemetry/core/factory"
	coremetrics "github.com/kilianp07/solartelemetry/core/metrics"
)

// init registers the built-in recorders.
func init() {
	_ = coremetrics.RegisterRecorder("prometheus", func(map[string]any) (coremetrics.Recorder, error) {
		return NewPromRecorder()
	})

	_ = coremetrics.RegisterRecorder("influx", func(conf map[string]any) (coremetrics.Recorder, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxRecorderWithFallback(c), nil
	})
}
