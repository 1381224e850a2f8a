// Package sim cross-checks the closed-form probability engine by actually
// rolling dice. Each die is rolled with full exploding semantics (a maximum
// roll is rolled again and added on), so the empirical statistics should
// converge on the engine's series-derived ones.
package sim

import (
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/dicebag/config"
	"github.com/domino14/dicebag/dice"
	"github.com/domino14/dicebag/prob"
	"github.com/domino14/dicebag/stats"
)

var ErrNoIterations = errors.New("iteration count must be positive")

// Result summarizes one dice's simulation against the engine's prediction.
type Result struct {
	Name            string  `json:"name" yaml:"name"`
	Iterations      int     `json:"iterations" yaml:"iterations"`
	Mean            float64 `json:"mean" yaml:"mean"`
	Stdev           float64 `json:"stdev" yaml:"stdev"`
	StandardError   float64 `json:"stderr" yaml:"stderr"`
	Min             float64 `json:"min" yaml:"min"`
	Max             float64 `json:"max" yaml:"max"`
	TheoreticalMean float64 `json:"theoreticalMean" yaml:"theoretical_mean"`
	ZScore          float64 `json:"zScore" yaml:"z_score"`
	// WithinCI reports whether the empirical mean falls inside the 99%
	// confidence interval around the theoretical mean.
	WithinCI bool `json:"withinCI" yaml:"within_ci"`
}

// Simmer runs Monte Carlo verification for sets of dice.
type Simmer struct {
	cfg   *config.Config
	cache *prob.Cache
}

func NewSimmer(cfg *config.Config) *Simmer {
	return &Simmer{cfg: cfg, cache: prob.Global()}
}

// rollExploding rolls one die, rerolling and adding while it shows its
// maximum.
func rollExploding(rng *frand.RNG, sides int) int {
	total := 0
	for {
		v := rng.Intn(sides) + 1
		total += v
		if v != sides {
			return total
		}
	}
}

// rollDice rolls the full expression once.
func rollDice(rng *frand.RNG, d dice.Dice) int {
	total := d.Modifier()
	for i := 0; i < d.Count(); i++ {
		total += rollExploding(rng, d.Sides())
	}
	return total
}

// Run simulates every dice for the given number of iterations, one
// goroutine per dice, and compares each empirical mean against the engine.
func (s *Simmer) Run(ds []dice.Dice, iterations int) ([]Result, error) {
	if iterations <= 0 {
		return nil, ErrNoIterations
	}
	results := make([]Result, len(ds))
	g := errgroup.Group{}
	for i, d := range ds {
		i, d := i, d
		g.Go(func() error {
			results[i] = s.simulate(frand.New(), d, iterations)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Simmer) simulate(rng *frand.RNG, d dice.Dice, iterations int) Result {
	st := &stats.Statistic{}
	for it := 0; it < iterations; it++ {
		st.Push(float64(rollDice(rng, d)))
	}

	calc := prob.NewCalculator(d, nil, s.cache)
	theoretical := calc.ExpectedValue()
	z := 0.0
	if se := st.StandardError(); se > 0 {
		z = (st.Mean() - theoretical) / se
	}
	r := Result{
		Name:            d.Name(),
		Iterations:      iterations,
		Mean:            st.Mean(),
		Stdev:           st.Stdev(),
		StandardError:   st.StandardError(),
		Min:             st.Min(),
		Max:             st.Max(),
		TheoreticalMean: theoretical,
		ZScore:          z,
		WithinCI:        z < stats.Z99 && z > -stats.Z99,
	}
	log.Debug().
		Str("dice", r.Name).
		Int("iterations", r.Iterations).
		Float64("mean", r.Mean).
		Float64("theoretical", r.TheoreticalMean).
		Float64("z", r.ZScore).
		Msg("sim done")
	return r
}

// WriteLog appends a YAML document with the run's results, for offline
// inspection of long verification runs.
func WriteLog(w io.Writer, results []Result) error {
	out, err := yaml.Marshal(results)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
