package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/mlowry/papersig/indicator"
	"github.com/mlowry/papersig/shared"
)

// CanaryPullbackConfig represents the configuration for the fast pullback
// canary strategy.
type CanaryPullbackConfig struct {
	// Ticker is the tracked ticker.
	Ticker string `yaml:"ticker"`
	// Window is the trailing high window in trading days.
	Window int `yaml:"window"`
	// DeclinePercent is the fractional decline below the trailing high
	// flagging a pullback.
	DeclinePercent float64 `yaml:"decline_percent"`
	// CooldownDays is the calendar day cooldown after a confirmed pullback,
	// and the span the Sell state is held for.
	CooldownDays int `yaml:"cooldown_days"`
}

// Validate asserts the config has sane inputs.
func (cfg *CanaryPullbackConfig) Validate() error {
	var errs error

	if cfg.Ticker == "" {
		errs = errors.Join(errs, fmt.Errorf("ticker cannot be an empty string"))
	}
	if cfg.Window <= 0 {
		errs = errors.Join(errs, fmt.Errorf("trailing high window must be positive"))
	}
	if cfg.DeclinePercent <= 0 || cfg.DeclinePercent >= 1 {
		errs = errors.Join(errs, fmt.Errorf("decline percent must be a fraction between 0 and 1"))
	}
	if cfg.CooldownDays <= 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown must be positive"))
	}

	return errs
}

// CanaryPullback flags a Sell when the close falls below the highest close of
// the trailing window by the decline percent, holding the Sell state for the
// cooldown span before reverting to Buy. It is the faster, unconfirmed
// sibling of the confirmed decline canary.
type CanaryPullback struct {
	cfg *CanaryPullbackConfig
}

// Ensure the pullback canary strategy implements the Strategy interface.
var _ Strategy = (*CanaryPullback)(nil)

// NewCanaryPullback initializes a new fast pullback canary strategy.
func NewCanaryPullback(cfg *CanaryPullbackConfig) (*CanaryPullback, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &CanaryPullback{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (s *CanaryPullback) Name() string {
	return fmt.Sprintf("canary-pullback-%s", s.cfg.Ticker)
}

// Tickers returns the tickers the strategy requires history for.
func (s *CanaryPullback) Tickers() []string {
	return []string{s.cfg.Ticker}
}

// Derive derives the strategy's signal map from the provided price series.
func (s *CanaryPullback) Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error) {
	prices, err := fetchSeries(series, s.cfg.Ticker)
	if err != nil {
		return nil, err
	}

	high := indicator.RollingMax(prices, s.cfg.Window)
	signals := shared.NewSignalMap()

	var lastConfirmed time.Time
	for i := s.cfg.Window; i < len(prices); i++ {
		// The trailing high excludes the current close.
		priorHigh := high[i-s.cfg.Window].Value
		threshold := priorHigh * (1 - s.cfg.DeclinePercent)

		coolingDown := !lastConfirmed.IsZero() &&
			elapsedDays(lastConfirmed, prices[i].Date) < float64(s.cfg.CooldownDays)

		if !coolingDown && prices[i].Close <= threshold {
			lastConfirmed = prices[i].Date
			coolingDown = true
		}

		signal := shared.Buy
		if coolingDown {
			signal = shared.Sell
		}

		err = signals.Add(prices[i].Date, signal)
		if err != nil {
			return nil, err
		}
	}

	return signals, nil
}
