// Package series approximates convergent infinite sums. The probability
// engine uses it wherever a dice's support is unbounded, which under the
// exploding-die law is always.
package series

// Config holds the convergence controls for a summation.
type Config struct {
	// Threshold is the magnitude below which consecutive terms are
	// considered negligible.
	Threshold float64
	// MinIterations is the number of terms always accumulated before the
	// threshold check applies.
	MinIterations int
	// MaxIterations is a hard ceiling guaranteeing termination.
	MaxIterations int
	// StartIndex is the index of the first term.
	StartIndex int
}

// DefaultConfig returns the convergence controls used by the probability
// engine unless a caller overrides them.
func DefaultConfig() Config {
	return Config{
		Threshold:     0.0001,
		MinIterations: 20,
		MaxIterations: 5000,
		StartIndex:    1,
	}
}

// Sum accumulates term(i) for i from cfg.StartIndex upward until the series
// has converged. Convergence requires both the just-added term and the next
// term to fall at or below the threshold; a single small term is not enough.
// Dice distributions have zero-probability gaps (unreachable multiples of
// the side count), so a one-term check would terminate inside a gap while
// plenty of mass remains above it.
func Sum(term func(i int) float64, cfg Config) float64 {
	sum := 0.0
	i := cfg.StartIndex
	for {
		current := term(i)
		sum += current
		if i >= cfg.MinIterations {
			if i >= cfg.MaxIterations {
				break
			}
			if current <= cfg.Threshold && term(i+1) <= cfg.Threshold {
				break
			}
		}
		i++
	}
	return sum
}
