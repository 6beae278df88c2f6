package metrics

import (
	"errors"

	"github.com/kilianp07/solartelemetry/core/model"
)

// MultiRecorder fans out to several recorders.
type MultiRecorder struct {
	Recorders []Recorder
}

// NewMultiRecorder creates a MultiRecorder with the provided recorders.
func NewMultiRecorder(recs ...Recorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recs}
}

// RecordTelemetry forwards the record to every recorder, even after one
// fails, and joins their errors.
func (m *MultiRecorder) RecordTelemetry(rec model.TelemetryRecord) error {
	var errs []error
	for _, r := range m.Recorders {
		if err := r.RecordTelemetry(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordFleetSize forwards to recorders implementing FleetSizeRecorder.
func (m *MultiRecorder) RecordFleetSize(size int) error {
	var errs []error
	for _, r := range m.Recorders {
		if fr, ok := r.(FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards to recorders implementing RunRecorder.
func (m *MultiRecorder) RecordRun(ev RunEvent) error {
	var errs []error
	for _, r := range m.Recorders {
		if rr, ok := r.(RunRecorder); ok {
			if err := rr.RecordRun(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases recorders holding resources, such as network clients.
func (m *MultiRecorder) Close() {
	for _, r := range m.Recorders {
		if c, ok := r.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
