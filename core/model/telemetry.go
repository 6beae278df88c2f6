package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Status is the operating state reported alongside each reading.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusFault
)

// String returns the wire representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusFault:
		return "FAULT"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// FaultKind identifies an injected fault.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultShading
	FaultHotspot
	FaultStringOpen
	FaultInverterTrip
	FaultSoiling
)

// String returns the wire representation of the fault.
func (f FaultKind) String() string {
	switch f {
	case FaultNone:
		return "NONE"
	case FaultShading:
		return "SHADING"
	case FaultHotspot:
		return "HOTSPOT"
	case FaultStringOpen:
		return "STRING_OPEN"
	case FaultInverterTrip:
		return "INVERTER_TRIP"
	case FaultSoiling:
		return "SOILING"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FaultKind) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// TimestampLayout formats whole-second UTC timestamps.
const TimestampLayout = "2006-01-02T15:04:05Z"

const timestampMicroLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders ts in UTC with a Z suffix. Sub-second precision is
// emitted as microseconds only when present.
func FormatTimestamp(ts time.Time) string {
	ts = ts.UTC()
	if ts.Nanosecond()/1000 == 0 {
		return ts.Format(TimestampLayout)
	}
	return ts.Format(timestampMicroLayout)
}

// TelemetryRecord is one reading for one panel at one timestamp.
type TelemetryRecord struct {
	Timestamp      time.Time `json:"-"`
	TimestampUTC   string    `json:"timestamp_utc"`
	PanelID        string    `json:"panel_id"`
	StringID       string    `json:"string_id"`
	Status         Status    `json:"status"`
	Fault          FaultKind `json:"fault"`
	PowerW         float64   `json:"power_w"`
	VoltageV       float64   `json:"voltage_v"`
	CurrentA       float64   `json:"current_a"`
	IrradianceWm2  float64   `json:"irradiance_wm2"`
	AmbientTempC   float64   `json:"ambient_temp_c"`
	CellTempC      float64   `json:"cell_temp_c"`
	OrientationDeg float64   `json:"orientation_deg"`
	TiltDeg        float64   `json:"tilt_deg"`
}

// FieldNames lists the record columns in serialization order.
var FieldNames = []string{
	"timestamp_utc", "panel_id", "string_id", "status", "fault",
	"power_w", "voltage_v", "current_a", "irradiance_wm2",
	"ambient_temp_c", "cell_temp_c", "orientation_deg", "tilt_deg",
}

// Fields returns the record values as strings in FieldNames order.
func (r TelemetryRecord) Fields() []string {
	return []string{
		r.TimestampUTC,
		r.PanelID,
		r.StringID,
		r.Status.String(),
		r.Fault.String(),
		formatFloat(r.PowerW),
		formatFloat(r.VoltageV),
		formatFloat(r.CurrentA),
		formatFloat(r.IrradianceWm2),
		formatFloat(r.AmbientTempC),
		formatFloat(r.CellTempC),
		formatFloat(r.OrientationDeg),
		formatFloat(r.TiltDeg),
	}
}

// formatFloat uses the shortest representation and keeps a decimal point on
// whole numbers, so 22 is written as 22.0.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Decimal is a float that always serializes with a decimal point.
type Decimal float64

// MarshalJSON implements json.Marshaler.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(formatFloat(float64(d))), nil
}

// Wire is the serialized shape of a record, in FieldNames order.
type Wire struct {
	TimestampUTC   string    `json:"timestamp_utc"`
	PanelID        string    `json:"panel_id"`
	StringID       string    `json:"string_id"`
	Status         Status    `json:"status"`
	Fault          FaultKind `json:"fault"`
	PowerW         Decimal   `json:"power_w"`
	VoltageV       Decimal   `json:"voltage_v"`
	CurrentA       Decimal   `json:"current_a"`
	IrradianceWm2  Decimal   `json:"irradiance_wm2"`
	AmbientTempC   Decimal   `json:"ambient_temp_c"`
	CellTempC      Decimal   `json:"cell_temp_c"`
	OrientationDeg Decimal   `json:"orientation_deg"`
	TiltDeg        Decimal   `json:"tilt_deg"`
}

// Wire returns the serialized shape of r.
func (r TelemetryRecord) Wire() Wire {
	return Wire{
		TimestampUTC:   r.TimestampUTC,
		PanelID:        r.PanelID,
		StringID:       r.StringID,
		Status:         r.Status,
		Fault:          r.Fault,
		PowerW:         Decimal(r.PowerW),
		VoltageV:       Decimal(r.VoltageV),
		CurrentA:       Decimal(r.CurrentA),
		IrradianceWm2:  Decimal(r.IrradianceWm2),
		AmbientTempC:   Decimal(r.AmbientTempC),
		CellTempC:      Decimal(r.CellTempC),
		OrientationDeg: Decimal(r.OrientationDeg),
		TiltDeg:        Decimal(r.TiltDeg),
	}
}

// MarshalJSON encodes r through Wire.
func (r TelemetryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}
