// Package analyzer aggregates probability-engine results for a set of
// competing dice descriptors. It is the boundary consumed by presentation
// code: descriptors in, one immutable result record per descriptor out.
package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/dicebag/config"
	"github.com/domino14/dicebag/dice"
	"github.com/domino14/dicebag/prob"
)

// MaxDice is the largest comparison set a single analysis accepts.
const MaxDice = 10

var ErrTooManyDice = errors.New("too many dice in comparison set")

// WinProbability is the chance of one dice strictly beating a named
// competitor.
type WinProbability struct {
	Name        string  `json:"name" yaml:"name"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// DiceResult is a read-only snapshot of everything the engine derives for
// one dice expression.
type DiceResult struct {
	Name              string           `json:"name" yaml:"name"`
	Count             int              `json:"count" yaml:"count"`
	Sides             int              `json:"sides" yaml:"sides"`
	Modifier          int              `json:"modifier" yaml:"modifier"`
	ExpectedValue     float64          `json:"expectedValue" yaml:"expected_value"`
	Median            float64          `json:"median" yaml:"median"`
	Variance          float64          `json:"variance" yaml:"variance"`
	StandardDeviation float64          `json:"standardDeviation" yaml:"standard_deviation"`
	PFail             float64          `json:"pFail" yaml:"p_fail"`
	PGreaterThan      map[int]float64  `json:"pGreaterThanMap" yaml:"p_greater_than"`
	WinProbabilities  []WinProbability `json:"winProbabilities" yaml:"win_probabilities"`
}

// Analyzer runs the probability engine over comparison sets. All analyses
// through one Analyzer share its PMF/CDF cache.
type Analyzer struct {
	cfg   *config.Config
	cache *prob.Cache
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg, cache: prob.Global()}
}

// NewAnalyzerWithCache is NewAnalyzer with a private cache, for callers
// that must not warm the process-wide one.
func NewAnalyzerWithCache(cfg *config.Config, cache *prob.Cache) *Analyzer {
	return &Analyzer{cfg: cfg, cache: cache}
}

// Analyze parses every descriptor and produces one DiceResult per dice, in
// input order. Each dice competes against the full set. The first parse or
// constraint failure aborts the whole analysis; no partial results are
// returned.
func (a *Analyzer) Analyze(descriptors []string) ([]DiceResult, error) {
	if len(descriptors) > MaxDice {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyDice, len(descriptors), MaxDice)
	}

	parsed := make([]dice.Dice, len(descriptors))
	for i, descriptor := range descriptors {
		d, err := dice.Parse(descriptor)
		if err != nil {
			return nil, err
		}
		parsed[i] = d
	}

	results := make([]DiceResult, len(parsed))
	for i, d := range parsed {
		calc := prob.NewCalculator(d, parsed, a.cache)
		calc.SetSeriesConfig(a.cfg.SeriesConfig())

		wins := lo.FilterMap(parsed, func(other dice.Dice, j int) (WinProbability, bool) {
			if j == i {
				return WinProbability{}, false
			}
			return WinProbability{
				Name:        other.Name(),
				Probability: calc.WinProbability(other),
			}, true
		})

		results[i] = DiceResult{
			Name:              d.Name(),
			Count:             d.Count(),
			Sides:             d.Sides(),
			Modifier:          d.Modifier(),
			ExpectedValue:     calc.ExpectedValue(),
			Median:            calc.Median(),
			Variance:          calc.Variance(),
			StandardDeviation: calc.StandardDeviation(),
			PFail:             calc.FailProbability(),
			PGreaterThan:      calc.ThresholdTable(a.cfg.TableMax),
			WinProbabilities:  wins,
		}
	}

	hits, misses := a.cache.Stats()
	log.Debug().
		Strs("dice", lo.Map(parsed, func(d dice.Dice, _ int) string { return d.Name() })).
		Uint64("cache-hits", hits).
		Uint64("cache-misses", misses).
		Msg("analysis done")

	return results, nil
}

// AnalyzeJSON is the wire-format boundary: a JSON request with a "dice"
// array of descriptors, a JSON array of DiceResults back.
func (a *Analyzer) AnalyzeJSON(req []byte) ([]byte, error) {
	var body struct {
		Dice []string `json:"dice"`
	}
	if err := json.Unmarshal(req, &body); err != nil {
		return nil, err
	}
	results, err := a.Analyze(body.Dice)
	if err != nil {
		return nil, err
	}
	return json.Marshal(results)
}

// ExportYAML renders results for log files and shell dumps.
func ExportYAML(results []DiceResult) ([]byte, error) {
	return yaml.Marshal(results)
}
