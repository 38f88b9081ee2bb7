package strategy

import (
	"errors"
	"fmt"

	"github.com/mlowry/papersig/indicator"
	"github.com/mlowry/papersig/shared"
)

// TrendFollowConfig represents the configuration for the trend following
// strategy.
type TrendFollowConfig struct {
	// Ticker is the tracked ticker.
	Ticker string `yaml:"ticker"`
	// Window is the moving average window in trading days.
	Window int `yaml:"window"`
}

// Validate asserts the config has sane inputs.
func (cfg *TrendFollowConfig) Validate() error {
	var errs error

	if cfg.Ticker == "" {
		errs = errors.Join(errs, fmt.Errorf("ticker cannot be an empty string"))
	}
	if cfg.Window <= 0 {
		errs = errors.Join(errs, fmt.Errorf("moving average window must be positive"))
	}

	return errs
}

// TrendFollow signals Buy while the close holds above its long simple moving
// average and Sell otherwise.
type TrendFollow struct {
	cfg *TrendFollowConfig
}

// Ensure the trend following strategy implements the Strategy interface.
var _ Strategy = (*TrendFollow)(nil)

// NewTrendFollow initializes a new trend following strategy.
func NewTrendFollow(cfg *TrendFollowConfig) (*TrendFollow, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &TrendFollow{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (s *TrendFollow) Name() string {
	return fmt.Sprintf("trend-follow-%s-%d", s.cfg.Ticker, s.cfg.Window)
}

// Tickers returns the tickers the strategy requires history for.
func (s *TrendFollow) Tickers() []string {
	return []string{s.cfg.Ticker}
}

// Derive derives the strategy's signal map from the provided price series.
func (s *TrendFollow) Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error) {
	prices, err := fetchSeries(series, s.cfg.Ticker)
	if err != nil {
		return nil, err
	}

	sma := indicator.SMA(prices, s.cfg.Window)
	signals := shared.NewSignalMap()

	// The moving average is undefined before a full window of history, no
	// signals are emitted for those dates.
	for idx := range sma {
		signal := shared.Sell
		if prices[idx+s.cfg.Window-1].Close > sma[idx].Value {
			signal = shared.Buy
		}

		err = signals.Add(sma[idx].Date, signal)
		if err != nil {
			return nil, err
		}
	}

	return signals, nil
}
