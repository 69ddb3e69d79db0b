package building

import "math/rand/v2"

// BuildContext carries per-feature procedural state. Two contexts with the
// same seed produce the same sequence of choices.
type BuildContext struct {
	Seed int64
	rng  *rand.Rand
}

// NewBuildContext seeds a context, normally with the feature FID.
func NewBuildContext(seed int64) *BuildContext {
	return &BuildContext{
		Seed: seed,
		rng:  rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)),
	}
}

// Float64Between returns a value in [lo, hi).
func (c *BuildContext) Float64Between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}

// IntN returns a value in [0, n). n <= 0 yields 0.
func (c *BuildContext) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return c.rng.IntN(n)
}
