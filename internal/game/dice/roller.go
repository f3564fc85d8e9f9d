package dice

import "go.uber.org/zap"

// chanceResolution is the number of buckets a probability is quantised into.
const chanceResolution = 10_000

// Roller wraps a Source and logger so every roll the engine makes is auditable.
// All rolls are logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Pick returns a uniformly chosen index in [0, n).
//
// Precondition: n > 0.
// Postcondition: 0 <= result < n.
func (r *Roller) Pick(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice pick", zap.Int("n", n), zap.Int("result", v))
	return v
}

// Chance reports true with probability p. Values of p <= 0 never succeed and
// values >= 1 always succeed.
func (r *Roller) Chance(p float64) bool {
	threshold := int(p * chanceResolution)
	roll := r.src.Intn(chanceResolution)
	hit := roll < threshold
	r.logger.Debug("dice chance",
		zap.Float64("p", p),
		zap.Int("roll", roll),
		zap.Bool("hit", hit),
	)
	return hit
}
