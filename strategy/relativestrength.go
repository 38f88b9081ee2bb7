package strategy

import (
	"errors"
	"fmt"

	"github.com/mlowry/papersig/indicator"
	"github.com/mlowry/papersig/shared"
)

// RelativeStrengthConfig represents the configuration for the relative
// strength rotation strategy.
type RelativeStrengthConfig struct {
	// Target is the defensive ticker forming the ratio numerator.
	Target string `yaml:"target"`
	// Benchmark is the broad market ticker forming the ratio denominator.
	Benchmark string `yaml:"benchmark"`
	// LookbackWeeks is the percent change lookback in weeks.
	LookbackWeeks int `yaml:"lookback_weeks"`
}

// Validate asserts the config has sane inputs.
func (cfg *RelativeStrengthConfig) Validate() error {
	var errs error

	if cfg.Target == "" {
		errs = errors.Join(errs, fmt.Errorf("target ticker cannot be an empty string"))
	}
	if cfg.Benchmark == "" {
		errs = errors.Join(errs, fmt.Errorf("benchmark ticker cannot be an empty string"))
	}
	if cfg.Target == cfg.Benchmark {
		errs = errors.Join(errs, fmt.Errorf("target and benchmark tickers must differ"))
	}
	if cfg.LookbackWeeks <= 0 {
		errs = errors.Join(errs, fmt.Errorf("lookback weeks must be positive"))
	}

	return errs
}

// RelativeStrength rotates into the benchmark while the target-to-benchmark
// strength ratio is falling. Weekly closes form the ratio, its percent change
// over the lookback drives the signal, and weekly signals forward-fill onto
// the daily axis.
type RelativeStrength struct {
	cfg *RelativeStrengthConfig
}

// Ensure the relative strength strategy implements the Strategy interface.
var _ Strategy = (*RelativeStrength)(nil)

// NewRelativeStrength initializes a new relative strength rotation strategy.
func NewRelativeStrength(cfg *RelativeStrengthConfig) (*RelativeStrength, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &RelativeStrength{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (s *RelativeStrength) Name() string {
	return fmt.Sprintf("relative-strength-%s-%s", s.cfg.Target, s.cfg.Benchmark)
}

// Tickers returns the tickers the strategy requires history for.
func (s *RelativeStrength) Tickers() []string {
	return []string{s.cfg.Target, s.cfg.Benchmark}
}

// Derive derives the strategy's signal map from the provided price series.
func (s *RelativeStrength) Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error) {
	target, err := fetchSeries(series, s.cfg.Target)
	if err != nil {
		return nil, err
	}
	benchmark, err := fetchSeries(series, s.cfg.Benchmark)
	if err != nil {
		return nil, err
	}

	ratio := indicator.Ratio(indicator.ResampleWeekly(target),
		indicator.ResampleWeekly(benchmark))
	change := indicator.PercentChange(ratio, s.cfg.LookbackWeeks)

	weekly := shared.NewSignalMap()
	for idx := range change {
		signal := shared.Sell
		if change[idx].Value < 0 {
			signal = shared.Buy
		}

		err = weekly.Add(change[idx].Date, signal)
		if err != nil {
			return nil, err
		}
	}

	// Forward-fill the weekly signals onto the trading days shared by both
	// series. Days preceding the first weekly signal carry none.
	targetDays := make(map[string]bool, len(target))
	for idx := range target {
		targetDays[target[idx].Date.Format(shared.DayLayout)] = true
	}

	daily := shared.NewSignalMap()
	for idx := range benchmark {
		if !targetDays[benchmark[idx].Date.Format(shared.DayLayout)] {
			continue
		}

		signal, err := weekly.Lookup(benchmark[idx].Date)
		if err != nil {
			continue
		}

		err = daily.Add(benchmark[idx].Date, signal)
		if err != nil {
			return nil, err
		}
	}

	return daily, nil
}
