// Package prob is the probability engine for exploding dice. It computes
// the discrete probability mass function of a dice expression by recursive
// convolution over sub-dice, memoizes every value in a shared cache, and
// derives all summary statistics from the PMF, using convergent-series
// summation wherever the unbounded support requires it.
package prob

import (
	"math"

	"github.com/domino14/dicebag/dice"
	"github.com/domino14/dicebag/series"
)

// Calculator computes probabilities and summary statistics for one dice
// expression, optionally against a set of competing dice. All calculators
// sharing a cache share every memoized PMF/CDF value.
type Calculator struct {
	dice      dice.Dice
	competing []dice.Dice
	cache     *Cache
	seriesCfg series.Config
}

// NewCalculator creates a calculator for d. The competing set is consulted
// by WinProbabilities; it may be nil. A nil cache selects the process-wide
// shared cache.
func NewCalculator(d dice.Dice, competing []dice.Dice, cache *Cache) *Calculator {
	if cache == nil {
		cache = Global()
	}
	return &Calculator{
		dice:      d,
		competing: competing,
		cache:     cache,
		seriesCfg: series.DefaultConfig(),
	}
}

// SetSeriesConfig overrides the convergence controls for the summations
// behind ExpectedValue, Variance and WinProbability.
func (c *Calculator) SetSeriesConfig(cfg series.Config) {
	c.seriesCfg = cfg
}

// Dice returns the dice expression this calculator analyzes.
func (c *Calculator) Dice() dice.Dice {
	return c.dice
}

// sub derives a calculator for another dice expression sharing this
// calculator's cache and series controls.
func (c *Calculator) sub(d dice.Dice) *Calculator {
	return &Calculator{dice: d, cache: c.cache, seriesCfg: c.seriesCfg}
}

// singleDie is the one-die, modifier-zero reduction of this calculator's
// dice, used by the moment shortcuts for count > 1.
func (c *Calculator) singleDie() dice.Dice {
	d, _ := c.dice.WithCount(1)
	d, _ = d.WithModifier(0)
	return d
}

// ProbabilityOfResult returns P(X = k).
//
// For a single die, the adjusted value k-modifier follows the exploding-die
// geometric law: exact multiples of the side count are unreachable, and any
// other value v has probability sides^-(floor(v/sides)+1). For count > 1
// the dice split into one die carrying the modifier and count-1 modifierless
// dice, and the two PMFs are convolved. The modifier applies once, to the
// aggregate, which is why the remainder dice have it zeroed.
func (c *Calculator) ProbabilityOfResult(k int) float64 {
	return c.pmf(c.dice, k)
}

func (c *Calculator) pmf(d dice.Dice, k int) float64 {
	key := cacheKey{dice: d.Key(), k: k}
	if v, ok := c.cache.getPMF(key); ok {
		return v
	}
	v := c.computePMF(d, k)
	c.cache.putPMF(key, v)
	return v
}

func (c *Calculator) computePMF(d dice.Dice, k int) float64 {
	if d.Count() == 1 {
		adjusted := k - d.Modifier()
		if adjusted < 0 || adjusted%d.Sides() == 0 {
			return 0
		}
		explosions := adjusted / d.Sides()
		return math.Pow(float64(d.Sides()), -float64(explosions+1))
	}

	single, _ := d.WithCount(1)
	rest, _ := d.WithCount(d.Count() - 1)
	rest, _ = rest.WithModifier(0)

	// Convolution depth is bounded by the dice count (at most 16): each
	// level strips off one die.
	sum := 0.0
	for i := 1; i < k; i++ {
		ps := c.pmf(single, i)
		if ps == 0 {
			continue
		}
		sum += ps * c.pmf(rest, k-i)
	}
	return sum
}

// ProbabilityLessOrEqual returns P(X <= k). No probability mass exists at
// or below the modifier, so the CDF is zero there; above it the CDF is
// filled iteratively upward, caching every step.
func (c *Calculator) ProbabilityLessOrEqual(k int) float64 {
	return c.cdf(c.dice, k)
}

func (c *Calculator) cdf(d dice.Dice, k int) float64 {
	if k <= d.Modifier() {
		return 0
	}
	key := cacheKey{dice: d.Key(), k: k}
	if v, ok := c.cache.getCDF(key); ok {
		return v
	}
	acc := 0.0
	for i := d.Modifier() + 1; i <= k; i++ {
		ik := cacheKey{dice: d.Key(), k: i}
		if v, ok := c.cache.getCDF(ik); ok {
			acc = v
			continue
		}
		acc += c.pmf(d, i)
		c.cache.putCDF(ik, acc)
	}
	return acc
}

// ProbabilityLessThan returns P(X < k).
func (c *Calculator) ProbabilityLessThan(k int) float64 {
	return c.cdf(c.dice, k-1)
}

// ProbabilityGreaterThan returns P(X > k).
func (c *Calculator) ProbabilityGreaterThan(k int) float64 {
	return 1 - c.cdf(c.dice, k)
}

// ProbabilityAtLeast returns P(X >= k).
func (c *Calculator) ProbabilityAtLeast(k int) float64 {
	return 1 - c.cdf(c.dice, k-1)
}

// ExpectedValue returns E[X]. A single die is summed directly over its
// support; multiple dice use linearity of expectation over the single-die
// reduction, which avoids convolving the full PMF when only the moment is
// wanted.
func (c *Calculator) ExpectedValue() float64 {
	if c.dice.Count() > 1 {
		e1 := c.sub(c.singleDie()).ExpectedValue()
		return float64(c.dice.Count())*e1 + float64(c.dice.Modifier())
	}
	cfg := c.seriesCfg
	cfg.StartIndex = c.dice.Modifier()
	return series.Sum(func(i int) float64 {
		return float64(i) * c.pmf(c.dice, i)
	}, cfg)
}

// Variance returns the variance of X. For count > 1 this is the single-die
// variance, not count times it as the independent-sum rule would give.
// Known discrepancy, kept on purpose.
func (c *Calculator) Variance() float64 {
	if c.dice.Count() > 1 {
		return c.sub(c.singleDie()).Variance()
	}
	e := c.ExpectedValue()
	cfg := c.seriesCfg
	cfg.StartIndex = c.dice.Modifier()
	return series.Sum(func(i int) float64 {
		diff := e - float64(i)
		return diff * diff * c.pmf(c.dice, i)
	}, cfg)
}

// StandardDeviation returns the square root of Variance.
func (c *Calculator) StandardDeviation() float64 {
	return math.Sqrt(c.Variance())
}

// Median returns the median of X: an integer i when the mass balances at i
// exactly, or i - 0.5 when the median falls between two integers. The scan
// terminates because the CDF is monotone and converges to 1.
func (c *Calculator) Median() float64 {
	for i := 1 + c.dice.Modifier(); ; i++ {
		le := c.cdf(c.dice, i)
		if le >= 0.5 && 1-c.cdf(c.dice, i-1) >= 0.5 {
			return float64(i)
		}
		if le > 0.5 {
			return float64(i) - 0.5
		}
	}
}

// FailProbability returns the probability of the worst possible roll, every
// die showing 1: P(X = count + modifier).
func (c *Calculator) FailProbability() float64 {
	return c.pmf(c.dice, c.dice.Count()+c.dice.Modifier())
}

// WinProbability returns the probability that this dice's roll strictly
// exceeds other's. Ties count as neither side winning. The summation floor
// is raised to sides*count so that enough terms are sampled before the
// convergence threshold applies; on large dice the early terms stay small
// for a long stretch.
func (c *Calculator) WinProbability(other dice.Dice) float64 {
	oc := c.sub(other)
	cfg := c.seriesCfg
	cfg.StartIndex = min(c.dice.Modifier(), other.Modifier())
	cfg.MinIterations = c.dice.Sides() * c.dice.Count()
	return series.Sum(func(i int) float64 {
		return c.pmf(c.dice, i) * oc.ProbabilityLessThan(i)
	}, cfg)
}

// WinProbabilities returns the win probability against each competing dice,
// in the competing set's order.
func (c *Calculator) WinProbabilities() []float64 {
	probs := make([]float64, len(c.competing))
	for i, other := range c.competing {
		probs[i] = c.WinProbability(other)
	}
	return probs
}

// ThresholdTable returns P(X >= k) for k from 0 through max.
func (c *Calculator) ThresholdTable(max int) map[int]float64 {
	table := make(map[int]float64, max+1)
	for k := 0; k <= max; k++ {
		table[k] = c.ProbabilityAtLeast(k)
	}
	return table
}
