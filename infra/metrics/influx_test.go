package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/solartelemetry/core/metrics"
	"github.com/kilianp07/solartelemetry/core/model"
)

func sampleRecord(ts time.Time) model.TelemetryRecord {
	return model.TelemetryRecord{
		Timestamp:      ts,
		TimestampUTC:   model.FormatTimestamp(ts),
		PanelID:        "P00001",
		StringID:       "S01",
		Status:         model.StatusWarning,
		Fault:          model.FaultSoiling,
		PowerW:         312.45,
		VoltageV:       36.12,
		CurrentA:       8.65,
		IrradianceWm2:  850.2,
		AmbientTempC:   30,
		CellTempC:      51.25,
		OrientationDeg: 178.4,
		TiltDeg:        24.9,
	}
}

func TestInfluxRecorder_RecordTelemetry(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := NewInfluxRecorder(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket", Site: "Site-A", RunID: "run-1"})
	defer rec.Close()
	now := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	if err := rec.RecordTelemetry(sampleRecord(now)); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("panel_telemetry").
		AddTag("panel_id", "P00001").
		AddTag("string_id", "S01").
		AddTag("status", "WARNING").
		AddTag("fault", "SOILING").
		AddTag("site", "Site-A").
		AddTag("run_id", "run-1").
		AddField("power_w", 312.45).
		AddField("voltage_v", 36.12).
		AddField("current_a", 8.65).
		AddField("irradiance_wm2", 850.2).
		AddField("ambient_temp_c", 30.0).
		AddField("cell_temp_c", 51.25).
		AddField("orientation_deg", 178.4).
		AddField("tilt_deg", 24.9).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	mu.Lock()
	defer mu.Unlock()
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n%s\nwant:\n%s", body, expected)
	}
}

func TestInfluxRecorder_RecordRun(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := NewInfluxRecorder(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer rec.Close()
	ev := coremetrics.RunEvent{
		RunID:   "run-2",
		Site:    "Site-B",
		Panels:  10,
		Records: 100,
		Faults:  map[model.FaultKind]int{model.FaultHotspot: 2},
		End:     time.Date(2025, 10, 18, 18, 0, 0, 0, time.UTC),
	}
	if err := rec.RecordRun(ev); err != nil {
		t.Fatalf("record run: %v", err)
	}
	for _, want := range []string{"simulation_run", "run_id=run-2", "site=Site-B", "records=100i", "faults_hotspot=2i"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestNewInfluxRecorderWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	rec := NewInfluxRecorderWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := rec.(*InfluxRecorder); ok {
		t.Fatalf("expected NopRecorder on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
