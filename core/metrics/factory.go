package metrics

import "github.com/kilianp07/solartelemetry/core/factory"

var recorderRegistry = factory.NewRegistry[Recorder]()

// RegisterRecorder adds a recorder factory identified by name.
func RegisterRecorder(name string, f factory.Factory[Recorder]) error {
	return recorderRegistry.Register(name, f)
}

// NewRecorder creates a Recorder from the provided configuration. Recorders
// created before a failing one are closed.
func NewRecorder(cfgs []factory.ModuleConfig) (Recorder, error) {
	if len(cfgs) == 0 {
		return NopRecorder{}, nil
	}
	if len(cfgs) == 1 {
		return recorderRegistry.Create(cfgs[0])
	}
	recs := make([]Recorder, 0, len(cfgs))
	for _, c := range cfgs {
		r, err := recorderRegistry.Create(c)
		if err != nil {
			NewMultiRecorder(recs...).Close()
			return nil, err
		}
		recs = append(recs, r)
	}
	return NewMultiRecorder(recs...), nil
}

func init() {
	_ = RegisterRecorder("nop", func(map[string]any) (Recorder, error) {
		return NopRecorder{}, nil
	})
}
