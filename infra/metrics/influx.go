package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/solartelemetry/core/metrics"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/infra/logger"
)

// InfluxConfig holds the connection settings of the InfluxDB recorder.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	Site   string `json:"site"`
	RunID  string `json:"run_id"`
}

// InfluxRecorder writes each telemetry record as a point in InfluxDB.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	site     string
	runID    string
	log      logger.Logger
}

// NewInfluxRecorder creates a recorder configured for the given InfluxDB endpoint.
func NewInfluxRecorder(cfg InfluxConfig) *InfluxRecorder {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		site:     cfg.Site,
		runID:    cfg.RunID,
		log:      logger.New("influx-recorder"),
	}
}

// NewInfluxRecorderWithFallback pings the InfluxDB instance and returns a
// NopRecorder if the health check fails.
func NewInfluxRecorderWithFallback(cfg InfluxConfig) coremetrics.Recorder {
	r := NewInfluxRecorder(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := r.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			r.log.Errorf("influx health check error: %v", err)
		} else {
			r.log.Errorf("influx health status: %s", health.Status)
		}
		r.client.Close()
		return coremetrics.NopRecorder{}
	}
	return r
}

// TelemetryPoint converts a record to the panel_telemetry measurement.
func (r *InfluxRecorder) TelemetryPoint(rec model.TelemetryRecord) *write.Point {
	p := write.NewPointWithMeasurement("panel_telemetry").
		AddTag("panel_id", rec.PanelID).
		AddTag("string_id", rec.StringID).
		AddTag("status", rec.Status.String()).
		AddTag("fault", rec.Fault.String())
	if r.site != "" {
		p = p.AddTag("site", r.site)
	}
	if r.runID != "" {
		p = p.AddTag("run_id", r.runID)
	}
	return p.AddField("power_w", rec.PowerW).
		AddField("voltage_v", rec.VoltageV).
		AddField("current_a", rec.CurrentA).
		AddField("irradiance_wm2", rec.IrradianceWm2).
		AddField("ambient_temp_c", rec.AmbientTempC).
		AddField("cell_temp_c", rec.CellTempC).
		AddField("orientation_deg", rec.OrientationDeg).
		AddField("tilt_deg", rec.TiltDeg).
		SetTime(rec.Timestamp)
}

// RecordTelemetry writes the record as line protocol.
func (r *InfluxRecorder) RecordTelemetry(rec model.TelemetryRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.writeAPI.WritePoint(ctx, r.TelemetryPoint(rec))
}

// RecordRun writes a simulation_run point summarising the run.
func (r *InfluxRecorder) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_run").
		AddTag("run_id", ev.RunID).
		AddTag("site", ev.Site).
		AddField("panels", ev.Panels).
		AddField("timestamps", ev.Timestamps).
		AddField("records", ev.Records).
		AddField("elapsed_ms", ev.Elapsed.Milliseconds())
	for kind, n := range ev.Faults {
		p = p.AddField("faults_"+strings.ToLower(kind.String()), n)
	}
	return r.writeAPI.WritePoint(ctx, p.SetTime(ev.End))
}

// Close releases the underlying client.
func (r *InfluxRecorder) Close() {
	r.client.Close()
}
