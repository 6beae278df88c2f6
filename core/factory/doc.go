// Package factory instantiates pluggable modules, such as telemetry outputs
// and metrics recorders, from configuration. A module is named by a type
// string and configured by a map of raw settings that its factory decodes
// into a typed struct.
//
//	reg := factory.NewRegistry[output.Sink]()
//	reg.Register("jsonl", func(conf map[string]any) (output.Sink, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return export.NewSink("jsonl", c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "-"}})
package factory
