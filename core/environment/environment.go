// Package environment models the site conditions shared by every panel:
// available sunlight over the day, transient cloud attenuation, ambient air
// temperature and the resulting cell temperature.
package environment

import (
	"math"
	"time"

	"github.com/kilianp07/solartelemetry/core/random"
)

// DefaultBaseTempC is the mean daily ambient temperature.
const DefaultBaseTempC = 26.0

const (
	ambientAmplitudeC = 8.0
	secondsPerDay     = 86400.0
)

// SecondsSinceMidnight returns the clock time of ts in seconds, using the
// location ts carries.
func SecondsSinceMidnight(ts time.Time) int {
	return ts.Hour()*3600 + ts.Minute()*60 + ts.Second()
}

// Smoothstep is the quintic ease 6x^5 - 15x^4 + 10x^3.
func Smoothstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

// DiurnalIrradianceFactor returns the fraction of peak irradiance available at
// ts. It is zero at and outside the window and peaks near its midpoint.
func DiurnalIrradianceFactor(ts time.Time, w Window) float64 {
	ssm := SecondsSinceMidnight(ts)
	if ssm <= w.Start || ssm >= w.End {
		return 0
	}
	x := float64(ssm-w.Start) / float64(w.End-w.Start)
	base := math.Sin(math.Pi * x)
	if base < 0 {
		return 0
	}
	shaped := math.Pow(base, 1.5)
	return clamp(shaped*(0.7+0.3*Smoothstep(x)), 0, 1)
}

// CloudCoverFactor draws a site-wide attenuation multiplier in [0.6,1].
// It consumes two draws: a light attenuation and an occasional deeper dip.
func CloudCoverFactor(src random.Source) float64 {
	light := random.Uniform(src, 0.85, 1.0)
	u := src.Float64()
	occasional := 1.0 - math.Pow(u, 6)*0.25
	return clamp(light*0.7+occasional*0.3, 0.6, 1.0)
}

// AmbientTemperatureC follows a daily sine of ±8°C around base, phase
// shifted by π/6.
func AmbientTemperatureC(ts time.Time, base float64) float64 {
	phase := float64(SecondsSinceMidnight(ts)) / secondsPerDay * 2 * math.Pi
	return base + ambientAmplitudeC*math.Sin(phase-math.Pi/6)
}

// PanelCellTempC estimates cell temperature from ambient and irradiance,
// about 20°C above ambient at 800 W/m².
func PanelCellTempC(ambientC, irradianceWm2 float64) float64 {
	return ambientC + irradianceWm2/800.0*20.0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
