package topics

import (
	"github.com/pevans/dailyarticle/article"
)

// Rand is the subset of *math/rand/v2.Rand used for drawing. Tests supply a
// seeded source.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Draw samples a topic with probability proportional to its weight.
func (c *Config) Draw(rng Rand) article.Topic {
	r := rng.Float64()

	cumulative := 0.0
	last := c.Topics[0].Key
	for _, t := range c.Topics {
		if t.Probability <= 0 {
			continue
		}
		cumulative += t.Probability
		last = t.Key
		if r < cumulative {
			return t.Key
		}
	}

	// Rounding can leave cumulative a hair under 1.
	return last
}
