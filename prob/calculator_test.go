package prob_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domino14/dicebag/dice"
	"github.com/domino14/dicebag/prob"
	"github.com/domino14/dicebag/series"
)

func mustParse(t *testing.T, descriptor string) dice.Dice {
	t.Helper()
	d, err := dice.Parse(descriptor)
	if err != nil {
		t.Fatalf("parse %q: %v", descriptor, err)
	}
	return d
}

func calc(t *testing.T, descriptor string) *prob.Calculator {
	t.Helper()
	return prob.NewCalculator(mustParse(t, descriptor), nil, prob.NewCache())
}

func TestSingleDiePMF(t *testing.T) {
	c := calc(t, "1d6")
	// one explosion chance per multiple of six
	assert.InDelta(t, 1.0/6, c.ProbabilityOfResult(1), 1e-12)
	assert.InDelta(t, 1.0/6, c.ProbabilityOfResult(5), 1e-12)
	assert.InDelta(t, 1.0/36, c.ProbabilityOfResult(7), 1e-12)
	assert.InDelta(t, 1.0/216, c.ProbabilityOfResult(13), 1e-12)
	// exact multiples of the side count are unreachable
	assert.Zero(t, c.ProbabilityOfResult(6))
	assert.Zero(t, c.ProbabilityOfResult(12))
	// nothing below the support
	assert.Zero(t, c.ProbabilityOfResult(0))
	assert.Zero(t, c.ProbabilityOfResult(-3))
}

func TestSingleDiePMFWithModifier(t *testing.T) {
	c := calc(t, "1d6+2")
	assert.InDelta(t, 1.0/6, c.ProbabilityOfResult(3), 1e-12)
	assert.Zero(t, c.ProbabilityOfResult(8)) // adjusted value 6 explodes
	assert.Zero(t, c.ProbabilityOfResult(2)) // adjusted value 0
	assert.Zero(t, c.ProbabilityOfResult(1))

	neg := calc(t, "1d4-1")
	assert.InDelta(t, 1.0/4, neg.ProbabilityOfResult(0), 1e-12)
	assert.Zero(t, neg.ProbabilityOfResult(3)) // adjusted value 4 explodes
}

func TestConvolvedPMF(t *testing.T) {
	c := calc(t, "2d6")
	assert.InDelta(t, 1.0/36, c.ProbabilityOfResult(2), 1e-12)
	assert.InDelta(t, 2.0/36, c.ProbabilityOfResult(3), 1e-12)
	// 7 = i + (7-i) for i in 2..5; the pairs containing a 6 are unreachable
	assert.InDelta(t, 4.0/36, c.ProbabilityOfResult(7), 1e-12)
	assert.Zero(t, c.ProbabilityOfResult(1))
}

func TestPMFSumsToOne(t *testing.T) {
	cfg := series.Config{Threshold: 1e-9, MinIterations: 60, MaxIterations: 2000, StartIndex: 0}
	for _, descriptor := range []string{"1d6", "1d4", "1d20", "2d6", "3d4+2", "1d6-2"} {
		c := calc(t, descriptor)
		cfg.StartIndex = c.Dice().Modifier()
		total := series.Sum(func(i int) float64 {
			return c.ProbabilityOfResult(i)
		}, cfg)
		assert.InDelta(t, 1.0, total, 1e-3, descriptor)
	}
}

func TestCDF(t *testing.T) {
	c := calc(t, "1d6")
	assert.Zero(t, c.ProbabilityLessOrEqual(0))
	assert.InDelta(t, 1.0/6, c.ProbabilityLessOrEqual(1), 1e-12)
	assert.InDelta(t, 0.5, c.ProbabilityLessOrEqual(3), 1e-12)
	assert.InDelta(t, 5.0/6, c.ProbabilityLessOrEqual(6), 1e-12)
	assert.InDelta(t, 31.0/36, c.ProbabilityLessOrEqual(7), 1e-12)
}

func TestCDFZeroAtOrBelowModifier(t *testing.T) {
	c := calc(t, "1d6+2")
	for k := -5; k <= 2; k++ {
		assert.Zero(t, c.ProbabilityLessOrEqual(k))
	}
}

func TestCDFMonotoneAndComplementary(t *testing.T) {
	c := calc(t, "2d8+1")
	prev := 0.0
	for k := 0; k <= 60; k++ {
		le := c.ProbabilityLessOrEqual(k)
		assert.GreaterOrEqual(t, le, prev)
		assert.InDelta(t, 1.0, le+c.ProbabilityGreaterThan(k), 1e-12)
		assert.InDelta(t, 1.0, c.ProbabilityLessThan(k)+c.ProbabilityAtLeast(k), 1e-12)
		prev = le
	}
}

func TestExpectedValue(t *testing.T) {
	// An exploding d6 averages 4.2: the unreachable 6 pushes mass upward,
	// E = 3.5 * s/(s-1).
	assert.InDelta(t, 4.2, calc(t, "1d6").ExpectedValue(), 1e-3)
	assert.InDelta(t, 8.4, calc(t, "2d6").ExpectedValue(), 2e-3)
	assert.InDelta(t, 10.0/3, calc(t, "1d4").ExpectedValue(), 1e-3)
	assert.InDelta(t, 5.2, calc(t, "1d6+1").ExpectedValue(), 1e-3)
	assert.InDelta(t, 11.4, calc(t, "2d6+3").ExpectedValue(), 2e-3)
	assert.InDelta(t, 3.2, calc(t, "1d6-1").ExpectedValue(), 1e-3)
}

func TestVariance(t *testing.T) {
	// E[X^2] = 28.28 for an exploding d6, so Var = 28.28 - 4.2^2 = 10.64.
	assert.InDelta(t, 10.64, calc(t, "1d6").Variance(), 1e-2)
	assert.InDelta(t, 70.0/9, calc(t, "1d4").Variance(), 1e-2)
	// the modifier shifts the distribution without changing its shape
	assert.InDelta(t, 10.64, calc(t, "1d6+3").Variance(), 1e-2)
}

func TestMultiDiceVarianceIsSingleDieVariance(t *testing.T) {
	single := calc(t, "1d6").Variance()
	assert.InDelta(t, single, calc(t, "2d6").Variance(), 1e-9)
	assert.InDelta(t, single, calc(t, "5d6+2").Variance(), 1e-9)
}

func TestStandardDeviation(t *testing.T) {
	c := calc(t, "1d6")
	assert.InDelta(t, math.Sqrt(c.Variance()), c.StandardDeviation(), 1e-12)
}

func TestMedian(t *testing.T) {
	// F(3) = 1/2 and P(X>=3) = 2/3 for an exploding d6
	assert.InDelta(t, 3.0, calc(t, "1d6").Median(), 1e-12)
	assert.InDelta(t, 4.0, calc(t, "1d6+1").Median(), 1e-12)
	assert.InDelta(t, 2.0, calc(t, "1d4").Median(), 1e-12)
}

func TestFailProbability(t *testing.T) {
	assert.InDelta(t, 1.0/6, calc(t, "1d6").FailProbability(), 1e-12)
	assert.InDelta(t, 1.0/36, calc(t, "2d6").FailProbability(), 1e-12)
	// the modifier shifts the minimum, not its probability
	assert.InDelta(t, 1.0/36, calc(t, "2d6+3").FailProbability(), 1e-12)
}

func TestWinProbability(t *testing.T) {
	// For equal dice, ties are excluded: P(tie) = 1/(s+1) under the
	// exploding law, so P(win) = s / (2(s+1)).
	d4 := mustParse(t, "1d4")
	c := prob.NewCalculator(d4, []dice.Dice{d4}, prob.NewCache())
	assert.InDelta(t, 0.4, c.WinProbability(d4), 1e-3)

	d6 := mustParse(t, "1d6")
	c6 := prob.NewCalculator(d6, nil, prob.NewCache())
	assert.InDelta(t, 3.0/7, c6.WinProbability(d6), 1e-3)

	// a d20 nearly always beats a d4
	c20 := calc(t, "1d20")
	w := c20.WinProbability(d4)
	assert.Greater(t, w, 0.75)
	assert.Less(t, w, 1.0)
}

func TestWinProbabilitiesOrder(t *testing.T) {
	cache := prob.NewCache()
	a := mustParse(t, "1d4")
	b := mustParse(t, "1d6")
	c := prob.NewCalculator(a, []dice.Dice{a, b}, cache)
	probs := c.WinProbabilities()
	assert.Len(t, probs, 2)
	assert.InDelta(t, 0.4, probs[0], 1e-3)
	// the d4 loses to the d6 more often than not
	assert.Less(t, probs[1], 0.5)
}

func TestThresholdTable(t *testing.T) {
	c := calc(t, "1d6")
	table := c.ThresholdTable(24)
	assert.Len(t, table, 25)
	assert.InDelta(t, 1.0, table[0], 1e-12)
	assert.InDelta(t, 1.0, table[1], 1e-12)
	assert.InDelta(t, 1.0/6, table[7], 1e-12)
	prev := 2.0
	for k := 0; k <= 24; k++ {
		assert.LessOrEqual(t, table[k], prev)
		prev = table[k]
	}
}

func TestCacheSharedAcrossCalculators(t *testing.T) {
	cache := prob.NewCache()
	c1 := prob.NewCalculator(mustParse(t, "1d6"), nil, cache)
	v1 := c1.ProbabilityOfResult(3)
	_, missesBefore := cache.Stats()

	// A fresh calculator for an equal-named dice must read the cached
	// value, not recompute it.
	c2 := prob.NewCalculator(mustParse(t, "1d6"), nil, cache)
	v2 := c2.ProbabilityOfResult(3)
	hits, missesAfter := cache.Stats()

	assert.Equal(t, v1, v2)
	assert.Equal(t, missesBefore, missesAfter)
	assert.Greater(t, hits, uint64(0))
}

func TestCacheIsolation(t *testing.T) {
	// Distinct dice expressions never share entries even in one cache.
	cache := prob.NewCache()
	c1 := prob.NewCalculator(mustParse(t, "1d6"), nil, cache)
	c2 := prob.NewCalculator(mustParse(t, "1d6+1"), nil, cache)
	assert.InDelta(t, 1.0/6, c1.ProbabilityOfResult(1), 1e-12)
	assert.Zero(t, c2.ProbabilityOfResult(1))
}
