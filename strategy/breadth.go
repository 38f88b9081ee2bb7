package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mlowry/papersig/indicator"
	"github.com/mlowry/papersig/shared"
)

// LowsBreadthConfig represents the configuration for the rolling lows breadth
// strategy.
type LowsBreadthConfig struct {
	// Universe is the set of tickers the breadth is computed over.
	Universe []string `yaml:"universe"`
	// LowWindow is the rolling low window in trading days.
	LowWindow int `yaml:"low_window"`
	// ClimaxThreshold is the fraction of the universe at its rolling low
	// marking a selling climax.
	ClimaxThreshold float64 `yaml:"climax_threshold"`
}

// Validate asserts the config has sane inputs.
func (cfg *LowsBreadthConfig) Validate() error {
	var errs error

	if len(cfg.Universe) == 0 {
		errs = errors.Join(errs, fmt.Errorf("universe cannot be empty"))
	}
	if cfg.LowWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("rolling low window must be positive"))
	}
	if cfg.ClimaxThreshold <= 0 || cfg.ClimaxThreshold > 1 {
		errs = errors.Join(errs, fmt.Errorf("climax threshold must be a fraction between 0 and 1"))
	}

	return errs
}

// LowsBreadth tallies, per trading day, the fraction of the universe closing
// at its own rolling low. A fraction at or above the climax threshold marks a
// selling climax and signals Sell, any smaller fraction signals Buy. A ticker
// contributes to a day's tally only once its rolling low is defined for that
// day.
type LowsBreadth struct {
	cfg *LowsBreadthConfig
}

// Ensure the lows breadth strategy implements the Strategy interface.
var _ Strategy = (*LowsBreadth)(nil)

// NewLowsBreadth initializes a new rolling lows breadth strategy.
func NewLowsBreadth(cfg *LowsBreadthConfig) (*LowsBreadth, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &LowsBreadth{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (s *LowsBreadth) Name() string {
	return fmt.Sprintf("lows-breadth-%d", s.cfg.LowWindow)
}

// Tickers returns the tickers the strategy requires history for.
func (s *LowsBreadth) Tickers() []string {
	return s.cfg.Universe
}

// Derive derives the strategy's signal map from the provided price series.
// Tickers with missing or short history simply contribute nothing, days where
// no ticker has a defined rolling low carry no signal.
func (s *LowsBreadth) Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error) {
	type tallyCount struct {
		low   int
		total int
	}
	tallies := make(map[string]*tallyCount)

	counted := 0
	for _, ticker := range s.cfg.Universe {
		prices, err := fetchSeries(series, ticker)
		if err != nil {
			continue
		}

		lows := indicator.RollingMin(prices, s.cfg.LowWindow)
		if len(lows) == 0 {
			continue
		}
		counted++

		for idx := range lows {
			day := lows[idx].Date.Format(shared.DayLayout)
			count, ok := tallies[day]
			if !ok {
				count = &tallyCount{}
				tallies[day] = count
			}

			count.total++
			if prices[idx+s.cfg.LowWindow-1].Close == lows[idx].Value {
				count.low++
			}
		}
	}

	if counted == 0 {
		return nil, shared.ErrNoData
	}

	days := make([]string, 0, len(tallies))
	for day := range tallies {
		days = append(days, day)
	}
	sort.Strings(days)

	signals := shared.NewSignalMap()
	for _, day := range days {
		count := tallies[day]
		fraction := float64(count.low) / float64(count.total)

		signal := shared.Buy
		if fraction >= s.cfg.ClimaxThreshold {
			signal = shared.Sell
		}

		date, err := shared.ParseDay(day)
		if err != nil {
			return nil, err
		}

		err = signals.Add(date, signal)
		if err != nil {
			return nil, err
		}
	}

	return signals, nil
}
