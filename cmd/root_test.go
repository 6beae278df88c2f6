package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solartelemetry/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	_, err := execute(t, "--panels", "2", "--minutes", "2", "--start", "2025-10-18T12:00:00", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 1+2*3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp_utc,panel_id,string_id,status,fault,"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "2025-10-18T12:02:00Z,P00002,S01,"))
}

func TestRootHoursAndMinutesConflict(t *testing.T) {
	_, err := execute(t, "--hours", "1", "--minutes", "5", "--out", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrDurationConflict))
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	out := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`simulation:
  panels: 5
  hours: 4
  start: "2025-10-18T12:00:00"
output:
  format: jsonl
  path: `+out+`
`), 0o644))

	_, err := execute(t, "--config", cfgFile, "--panels", "1", "--minutes", "1")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestFleetLs(t *testing.T) {
	out, err := execute(t, "fleet", "ls", "--panels", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "PANEL"))
	assert.True(t, strings.HasPrefix(lines[1], "P00001"))
	assert.Contains(t, lines[3], "S01")
	assert.Equal(t, "3 panels in 1 strings", lines[4])

	again, err := execute(t, "fleet", "ls", "--panels", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
