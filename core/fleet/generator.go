package fleet

import (
	"fmt"

	"github.com/kilianp07/solartelemetry/core/model"
	"github.com/kilianp07/solartelemetry/core/random"
)

// PanelsPerString is the number of consecutive panels wired into one string.
const PanelsPerString = 20

var (
	orientations = []float64{150, 165, 180, 195, 210}
	tilts        = []float64{15, 20, 25, 30, 35}
)

// Generate reseeds src with seed and draws count panel specs from it.
// The draw order per panel is fixed so that a seed always yields the same
// fleet: power, voltage, current scale, temperature coefficient, degradation,
// jitter, orientation (choice then jitter) and tilt (choice then jitter).
func Generate(src random.Source, count int, seed int64) []model.PanelSpec {
	src.Seed(seed)
	if count <= 0 {
		return nil
	}
	panels := make([]model.PanelSpec, count)
	for i := 0; i < count; i++ {
		pStc := random.Uniform(src, 370, 430)
		vMppt := random.Uniform(src, 33, 40)
		iStc := pStc / vMppt * random.Uniform(src, 0.95, 1.05)
		coeff := random.Uniform(src, -0.0045, -0.0035)
		degr := random.Uniform(src, 0.00003, 0.00007)
		jitter := random.Uniform(src, 0.98, 1.02)
		orient := random.Choice(src, orientations) + random.Uniform(src, -5, 5)
		tilt := random.Choice(src, tilts) + random.Uniform(src, -2, 2)
		panels[i] = model.PanelSpec{
			PanelID:           fmt.Sprintf("P%05d", i+1),
			PStcW:             pStc,
			VMppt:             vMppt,
			IStcA:             iStc,
			TempCoeffP:        coeff,
			DegradationPerDay: degr,
			EfficiencyJitter:  jitter,
			OrientationDeg:    orient,
			TiltDeg:           tilt,
			StringID:          StringID(i),
		}
	}
	return panels
}

// StringID returns the string a panel belongs to given its generation index.
func StringID(index int) string {
	return fmt.Sprintf("S%02d", 1+index/PanelsPerString)
}

// Strings returns the distinct string ids of panels in first appearance order.
func Strings(panels []model.PanelSpec) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range panels {
		if _, ok := seen[p.StringID]; ok {
			continue
		}
		seen[p.StringID] = struct{}{}
		out = append(out, p.StringID)
	}
	return out
}
