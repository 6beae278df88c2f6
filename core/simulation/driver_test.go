package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solartelemetry/core/environment"
	"github.com/kilianp07/solartelemetry/core/fleet"
	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/random"
	"github.com/kilianp07/solartelemetry/core/telemetry"
)

type memSink struct {
	recs []model.TelemetryRecord
	err  error
}

func (m *memSink) Write(rec model.TelemetryRecord) error {
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memSink) Close() error { return nil }

type fleetRecorder struct {
	size    int
	records int
	err     error
}

func (f *fleetRecorder) RecordTelemetry(model.TelemetryRecord) error {
	f.records++
	return f.err
}

func (f *fleetRecorder) RecordFleetSize(n int) error {
	f.size = n
	return nil
}

func testConfig() Config {
	return Config{
		Start:    time.Date(2025, 10, 18, 6, 0, 0, 0, time.UTC),
		Duration: 12 * time.Hour,
		Step:     10 * time.Minute,
		Window:   environment.DefaultWindow,
		Panels:   45,
		Seed:     42,
		Site:     "Site-A",
	}
}

func run(t *testing.T, cfg Config) []model.TelemetryRecord {
	t.Helper()
	sink := &memSink{}
	d, err := NewDriver(cfg, sink)
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.NoError(t, err)
	return sink.recs
}

func TestDriverReproducible(t *testing.T) {
	cfg := testConfig()
	a := run(t, cfg)
	b := run(t, cfg)
	require.Len(t, a, 45*Steps(cfg.Duration, cfg.Step))
	assert.Equal(t, a, b)

	cfg.Seed = 43
	c := run(t, cfg)
	assert.NotEqual(t, a, c)
}

// The driver must consume draws in the documented order: fleet, then per
// timestamp the site cloud, string jitter on first encounter and per panel
// computation.
func TestDriverDrawOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = time.Hour
	got := run(t, cfg)

	src := random.New(cfg.Seed)
	panels := fleet.Generate(src, cfg.Panels, cfg.Seed)
	engine := telemetry.NewEngine(src)
	var want []model.TelemetryRecord
	for ts := range TimeRange(cfg.Start, cfg.Duration, cfg.Step) {
		site := environment.CloudCoverFactor(src)
		clouds := map[string]float64{}
		for _, p := range panels {
			f, ok := clouds[p.StringID]
			if !ok {
				f = site * random.Uniform(src, 0.95, 1.05)
				if f > 1 {
					f = 1
				}
				if f < 0.6 {
					f = 0.6
				}
				clouds[p.StringID] = f
			}
			want = append(want, engine.Compute(p, ts, cfg.Window, DayIndex(cfg.Start, ts), f))
		}
	}
	assert.Equal(t, want, got)
}

func TestDriverStringsShareCloud(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 0
	cfg.Start = time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	recs := run(t, cfg)
	require.Len(t, recs, 45)
	byString := map[string]float64{}
	for _, r := range recs {
		if r.Fault != model.FaultNone {
			continue
		}
		if v, ok := byString[r.StringID]; ok {
			assert.Equal(t, v, r.IrradianceWm2, r.PanelID)
		} else {
			byString[r.StringID] = r.IrradianceWm2
		}
	}
	assert.Len(t, byString, 3)
}

func TestDriverNightIsDark(t *testing.T) {
	cfg := testConfig()
	cfg.Start = time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)
	cfg.Duration = 5 * time.Hour
	for _, r := range run(t, cfg) {
		assert.Equal(t, 0.0, r.IrradianceWm2)
		assert.InDelta(t, 0.0, r.PowerW, 0.1)
	}
}

func TestDriverRecordsMetrics(t *testing.T) {
	rec := &fleetRecorder{err: errors.New("metrics down")}
	d, err := NewDriver(testConfig(), &memSink{}, WithRecorder(rec))
	require.NoError(t, err)
	ev, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, rec.size)
	assert.Equal(t, ev.Records, rec.records)
	assert.Equal(t, 73, ev.Timestamps)
	assert.Equal(t, 45*73, ev.Records)
	assert.Equal(t, "Site-A", ev.Site)
	assert.NotEmpty(t, ev.RunID)
	assert.Equal(t, testConfig().Start.Add(12*time.Hour), ev.End)
}

func TestDriverSinkError(t *testing.T) {
	boom := errors.New("disk full")
	d, err := NewDriver(testConfig(), &memSink{err: boom})
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDriverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &memSink{}
	d, err := NewDriver(testConfig(), sink)
	require.NoError(t, err)
	_, err = d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.recs)
}

func TestDriverForcedFault(t *testing.T) {
	sink := &memSink{}
	d, err := NewDriver(testConfig(), sink,
		WithEngineOptions(telemetry.WithFaultAssigner(fixedTrip{})), WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", d.RunID())
	ev, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ev.Records, ev.Faults[model.FaultInverterTrip])
	for _, r := range sink.recs {
		assert.Zero(t, r.PowerW)
		assert.Zero(t, r.CurrentA)
	}
}

type fixedTrip struct{}

func (fixedTrip) Assign(random.Source) (model.FaultKind, model.Status) {
	return model.FaultInverterTrip, model.StatusFault
}

func TestNewDriverValidates(t *testing.T) {
	cfg := testConfig()
	cfg.Step = 0
	_, err := NewDriver(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Panels = -1
	_, err = NewDriver(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Panels = 0
	d, err := NewDriver(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, d.Fleet())
	ev, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ev.Records)
}
