package random

import "math/rand"

// Source is the pseudo-random stream consumed by the simulation engine.
// Callers share a single Source across fleet generation, cloud draws and
// telemetry computation; the order of draws determines the output.
type Source interface {
	// Float64 returns a uniform sample in [0,1).
	Float64() float64
	// Intn returns a uniform integer in [0,n).
	Intn(n int) int
	// Seed resets the stream.
	Seed(seed int64)
}

// New returns a Source backed by math/rand seeded with seed.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Uniform draws a sample in [a,b].
func Uniform(src Source, a, b float64) float64 {
	return a + (b-a)*src.Float64()
}

// Choice picks one element of values. values must not be empty.
func Choice[T any](src Source, values []T) T {
	return values[src.Intn(len(values))]
}
