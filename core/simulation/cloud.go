package simulation

import (
	"math"

	"github.com/kilianp07/solartelemetry/core/random"
)

// StringCloudCache holds the cloud attenuation of each string for a single
// timestamp. Panels of one string share a factor derived from the site draw
// plus a small jitter drawn the first time the string is seen.
type StringCloudCache struct {
	src     random.Source
	site    float64
	factors map[string]float64
}

// NewStringCloudCache returns an empty cache around a site-level factor.
func NewStringCloudCache(src random.Source, site float64) *StringCloudCache {
	return &StringCloudCache{src: src, site: site, factors: make(map[string]float64)}
}

// Factor returns the attenuation of stringID, drawing it on first use.
func (c *StringCloudCache) Factor(stringID string) float64 {
	if f, ok := c.factors[stringID]; ok {
		return f
	}
	f := math.Max(0.6, math.Min(1.0, c.site*random.Uniform(c.src, 0.95, 1.05)))
	c.factors[stringID] = f
	return f
}

// Site returns the site-level factor the cache was built from.
func (c *StringCloudCache) Site() float64 { return c.site }
