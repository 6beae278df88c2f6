// Package export streams telemetry records as CSV or JSON Lines.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kilianp07/solartelemetry/core/factory"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/output"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// Config selects the destination of a file sink.
type Config struct {
	Path string `json:"path"`
}

// Open returns a writer for path. Standard output is never closed by the
// returned closer.
func Open(path string) (io.Writer, io.Closer, error) {
	if path == "" || path == Stdout {
		return os.Stdout, nopCloser{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output %s: %w", path, err)
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CSVSink writes a header row followed by one row per record.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
	header bool
}

// NewCSVSink writes CSV to w. closer may be nil.
func NewCSVSink(w io.Writer, closer io.Closer) *CSVSink {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if closer == nil {
		closer = nopCloser{}
	}
	return &CSVSink{w: cw, closer: closer}
}

// Write emits the header on first use, then the record row.
func (s *CSVSink) Write(rec model.TelemetryRecord) error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	return s.w.Write(rec.Fields())
}

func (s *CSVSink) writeHeader() error {
	if s.header {
		return nil
	}
	s.header = true
	return s.w.Write(model.FieldNames)
}

// Close flushes buffered rows. A run with no records still produces the
// header.
func (s *CSVSink) Close() error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.closer.Close()
		return err
	}
	return s.closer.Close()
}

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink writes JSON Lines to w. closer may be nil.
func NewJSONLSink(w io.Writer, closer io.Closer) *JSONLSink {
	buf := bufio.NewWriter(w)
	if closer == nil {
		closer = nopCloser{}
	}
	return &JSONLSink{buf: buf, enc: json.NewEncoder(buf), closer: closer}
}

// Write encodes rec followed by a newline.
func (s *JSONLSink) Write(rec model.TelemetryRecord) error {
	return s.enc.Encode(rec)
}

// Close flushes and releases the destination.
func (s *JSONLSink) Close() error {
	if err := s.buf.Flush(); err != nil {
		_ = s.closer.Close()
		return err
	}
	return s.closer.Close()
}

// NewSink builds the sink for format ("csv" or "jsonl") writing to path.
func NewSink(format, path string) (output.Sink, error) {
	if format != "csv" && format != "jsonl" {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	w, c, err := Open(path)
	if err != nil {
		return nil, err
	}
	if format == "csv" {
		return NewCSVSink(w, c), nil
	}
	return NewJSONLSink(w, c), nil
}

func fileSinkFactory(format string) factory.Factory[output.Sink] {
	return func(conf map[string]any) (output.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSink(format, c.Path)
	}
}

func init() {
	_ = output.RegisterSink("csv", fileSinkFactory("csv"))
	_ = output.RegisterSink("jsonl", fileSinkFactory("jsonl"))
}
