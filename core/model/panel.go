package model

// PanelSpec describes a single solar panel of the simulated fleet. Specs are
// generated once per run and never mutated afterwards.
type PanelSpec struct {
	PanelID           string
	PStcW             float64 // rated power at STC in W
	VMppt             float64 // voltage at the maximum power point in V
	IStcA             float64 // short-circuit current scale in A
	TempCoeffP        float64 // fractional power change per °C, negative
	DegradationPerDay float64 // fractional power loss per day
	EfficiencyJitter  float64 // fixed multiplicative jitter
	OrientationDeg    float64 // azimuth, 180 is south
	TiltDeg           float64
	StringID          string
}
