package config

import (
	"github.com/namsral/flag"

	"github.com/domino14/dicebag/series"
)

type Config struct {
	SeriesThreshold     float64
	SeriesMinIterations int
	SeriesMaxIterations int
	TableMax            int
	SimIterations       int
	NatsURL             string
	Debug               bool
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("dicebag", flag.ContinueOnError)
	fs.Float64Var(&c.SeriesThreshold, "series-threshold", 0.0001,
		"term magnitude below which a series is considered converged")
	fs.IntVar(&c.SeriesMinIterations, "series-min-iterations", 20,
		"number of series terms always accumulated before the threshold applies")
	fs.IntVar(&c.SeriesMaxIterations, "series-max-iterations", 5000,
		"hard ceiling on series terms")
	fs.IntVar(&c.TableMax, "table-max", 24,
		"highest threshold k shown in the P(X>=k) table")
	fs.IntVar(&c.SimIterations, "sim-iterations", 100000,
		"number of rolls per dice in a Monte Carlo verification run")
	fs.StringVar(&c.NatsURL, "nats-url", "nats://127.0.0.1:4222",
		"NATS server URL for the analysis worker")
	fs.BoolVar(&c.Debug, "debug", false, "log debug messages")
	return fs.Parse(args)
}

func DefaultConfig() Config {
	c := Config{}
	c.Load(nil)
	return c
}

// SeriesConfig translates the flag values into the summation controls used
// by the probability engine.
func (c *Config) SeriesConfig() series.Config {
	return series.Config{
		Threshold:     c.SeriesThreshold,
		MinIterations: c.SeriesMinIterations,
		MaxIterations: c.SeriesMaxIterations,
		StartIndex:    1,
	}
}
