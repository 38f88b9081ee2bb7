package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/mlowry/papersig/indicator"
	"github.com/mlowry/papersig/shared"
)

const (
	// hoursPerDay is the divisor for converting elapsed time to calendar days.
	hoursPerDay = 24
)

// CanaryConfirmedConfig represents the configuration for the confirmed
// decline canary strategy.
type CanaryConfirmedConfig struct {
	// Ticker is the tracked ticker.
	Ticker string `yaml:"ticker"`
	// HighWindow is the rolling high window in trading days.
	HighWindow int `yaml:"high_window"`
	// DeclinePercent is the fractional decline below the rolling high
	// flagging a canary.
	DeclinePercent float64 `yaml:"decline_percent"`
	// DeclineWindow is the trading day lookahead for a fast decline off a
	// fresh high.
	DeclineWindow int `yaml:"decline_window"`
	// FastWindow is the fast moving average window in trading days.
	FastWindow int `yaml:"fast_window"`
	// SlowWindow is the slow moving average window in trading days.
	SlowWindow int `yaml:"slow_window"`
	// CooldownDays is the calendar day cooldown after a confirmed decline.
	CooldownDays int `yaml:"cooldown_days"`
	// DipCooldownDays is the calendar day cooldown after a dip signal.
	DipCooldownDays int `yaml:"dip_cooldown_days"`
}

// Validate asserts the config has sane inputs.
func (cfg *CanaryConfirmedConfig) Validate() error {
	var errs error

	if cfg.Ticker == "" {
		errs = errors.Join(errs, fmt.Errorf("ticker cannot be an empty string"))
	}
	if cfg.HighWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("rolling high window must be positive"))
	}
	if cfg.DeclinePercent <= 0 || cfg.DeclinePercent >= 1 {
		errs = errors.Join(errs, fmt.Errorf("decline percent must be a fraction between 0 and 1"))
	}
	if cfg.DeclineWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("decline window must be positive"))
	}
	if cfg.FastWindow <= 0 || cfg.SlowWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("moving average windows must be positive"))
	}
	if cfg.FastWindow >= cfg.SlowWindow {
		errs = errors.Join(errs, fmt.Errorf("fast moving average window must be shorter than the slow window"))
	}
	if cfg.CooldownDays <= 0 || cfg.DipCooldownDays <= 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldowns must be positive"))
	}

	return errs
}

// CanaryConfirmed tracks fresh rolling highs and flags declines off them. A
// decline reached within the decline window and confirmed by two consecutive
// closes below the slow moving average flips the state to Sell. A slower
// decline reached while the fast moving average holds above the slow one
// flips the state to Buy (buy the dip). Each path keeps its own calendar day
// cooldown, reset only by its own confirmations.
type CanaryConfirmed struct {
	cfg *CanaryConfirmedConfig
}

// Ensure the confirmed canary strategy implements the Strategy interface.
var _ Strategy = (*CanaryConfirmed)(nil)

// NewCanaryConfirmed initializes a new confirmed decline canary strategy.
func NewCanaryConfirmed(cfg *CanaryConfirmedConfig) (*CanaryConfirmed, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &CanaryConfirmed{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (s *CanaryConfirmed) Name() string {
	return fmt.Sprintf("canary-confirmed-%s", s.cfg.Ticker)
}

// Tickers returns the tickers the strategy requires history for.
func (s *CanaryConfirmed) Tickers() []string {
	return []string{s.cfg.Ticker}
}

// elapsedDays returns the calendar days elapsed between the provided dates.
func elapsedDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}

// confirmDecline checks for two consecutive closes below the slow moving
// average within the cooldown window following the provided decline index.
func (s *CanaryConfirmed) confirmDecline(prices []shared.PricePoint, slow []indicator.Point, declineIdx int) bool {
	declineDate := prices[declineIdx].Date
	streak := 0

	for k := declineIdx; k < len(prices); k++ {
		if elapsedDays(declineDate, prices[k].Date) > float64(s.cfg.CooldownDays) {
			break
		}

		slowIdx := k - (s.cfg.SlowWindow - 1)
		if slowIdx < 0 {
			streak = 0
			continue
		}

		if prices[k].Close < slow[slowIdx].Value {
			streak++
			if streak >= 2 {
				return true
			}
			continue
		}
		streak = 0
	}

	return false
}

// confirmedDeclines scans for declines off fresh rolling highs confirmed by
// the slow moving average, honoring the decline path cooldown. Breach days
// failing confirmation do not end the scan for their high.
func (s *CanaryConfirmed) confirmedDeclines(prices []shared.PricePoint, high []indicator.Point, slow []indicator.Point) map[string]bool {
	declines := make(map[string]bool)

	var lastConfirmed time.Time
	for i := s.cfg.HighWindow - 1; i < len(prices); i++ {
		if !lastConfirmed.IsZero() &&
			elapsedDays(lastConfirmed, prices[i].Date) < float64(s.cfg.CooldownDays) {
			continue
		}

		if prices[i].Close != high[i-(s.cfg.HighWindow-1)].Value {
			continue
		}

		// Fresh rolling high, look for the decline within the lookahead.
		threshold := prices[i].Close * (1 - s.cfg.DeclinePercent)
		for j := i + 1; j <= i+s.cfg.DeclineWindow && j < len(prices); j++ {
			if prices[j].Close > threshold {
				continue
			}

			if s.confirmDecline(prices, slow, j) {
				declines[prices[j].Date.Format(shared.DayLayout)] = true
				lastConfirmed = prices[j].Date
				break
			}
		}
	}

	return declines
}

// dipSignals scans for declines reached beyond the decline window while the
// fast moving average holds above the slow one, honoring the dip cooldown.
// Breach days failing the moving average check do not end the scan for their
// high.
func (s *CanaryConfirmed) dipSignals(prices []shared.PricePoint, high []indicator.Point, fast []indicator.Point, slow []indicator.Point) map[string]bool {
	dips := make(map[string]bool)

	var lastDip time.Time
	for i := s.cfg.HighWindow - 1; i < len(prices); i++ {
		if !lastDip.IsZero() &&
			elapsedDays(lastDip, prices[i].Date) < float64(s.cfg.DipCooldownDays) {
			continue
		}

		if prices[i].Close != high[i-(s.cfg.HighWindow-1)].Value {
			continue
		}

		threshold := prices[i].Close * (1 - s.cfg.DeclinePercent)
		for j := i + s.cfg.DeclineWindow + 1; j < len(prices); j++ {
			if prices[j].Close > threshold {
				continue
			}

			fastIdx := j - (s.cfg.FastWindow - 1)
			slowIdx := j - (s.cfg.SlowWindow - 1)
			if fastIdx >= 0 && slowIdx >= 0 && fast[fastIdx].Value > slow[slowIdx].Value {
				dips[prices[j].Date.Format(shared.DayLayout)] = true
				lastDip = prices[j].Date
				break
			}
		}
	}

	return dips
}

// Derive derives the strategy's signal map from the provided price series.
// The state starts in cash (Sell), confirmed declines hold it there and dip
// signals flip it to Buy.
func (s *CanaryConfirmed) Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error) {
	prices, err := fetchSeries(series, s.cfg.Ticker)
	if err != nil {
		return nil, err
	}

	high := indicator.RollingMax(prices, s.cfg.HighWindow)
	fast := indicator.SMA(prices, s.cfg.FastWindow)
	slow := indicator.SMA(prices, s.cfg.SlowWindow)

	declines := s.confirmedDeclines(prices, high, slow)
	dips := s.dipSignals(prices, high, fast, slow)

	signals := shared.NewSignalMap()
	state := shared.Sell
	for i := s.cfg.HighWindow - 1; i < len(prices); i++ {
		day := prices[i].Date.Format(shared.DayLayout)
		switch {
		case declines[day]:
			state = shared.Sell
		case dips[day]:
			state = shared.Buy
		}

		err = signals.Add(prices[i].Date, state)
		if err != nil {
			return nil, err
		}
	}

	return signals, nil
}
