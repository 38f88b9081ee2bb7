package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default strategy parameters, applied when the config omits them.
const (
	DefaultTrendWindow     = 200
	DefaultLookbackWeeks   = 4
	DefaultHighWindow      = 252
	DefaultLowWindow       = 252
	DefaultDeclinePercent  = 0.05
	DefaultDeclineWindow   = 15
	DefaultFastWindow      = 50
	DefaultSlowWindow      = 200
	DefaultCooldownDays    = 42
	DefaultPullbackWindow  = 5
	DefaultClimaxThreshold = 0.5
)

// Config represents the strategy roster configuration.
type Config struct {
	TrendFollow      []*TrendFollowConfig      `yaml:"trend_follow"`
	RelativeStrength []*RelativeStrengthConfig `yaml:"relative_strength"`
	CanaryConfirmed  []*CanaryConfirmedConfig  `yaml:"canary_confirmed"`
	CanaryPullback   []*CanaryPullbackConfig   `yaml:"canary_pullback"`
	LowsBreadth      []*LowsBreadthConfig      `yaml:"lows_breadth"`
}

// LoadConfig reads the strategy roster from the provided yaml file and
// applies parameter defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy config: %w", err)
	}

	cfg := &Config{}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing strategy config: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills omitted strategy parameters with their defaults.
func (cfg *Config) applyDefaults() {
	for _, c := range cfg.TrendFollow {
		if c.Window == 0 {
			c.Window = DefaultTrendWindow
		}
	}
	for _, c := range cfg.RelativeStrength {
		if c.LookbackWeeks == 0 {
			c.LookbackWeeks = DefaultLookbackWeeks
		}
	}
	for _, c := range cfg.CanaryConfirmed {
		if c.HighWindow == 0 {
			c.HighWindow = DefaultHighWindow
		}
		if c.DeclinePercent == 0 {
			c.DeclinePercent = DefaultDeclinePercent
		}
		if c.DeclineWindow == 0 {
			c.DeclineWindow = DefaultDeclineWindow
		}
		if c.FastWindow == 0 {
			c.FastWindow = DefaultFastWindow
		}
		if c.SlowWindow == 0 {
			c.SlowWindow = DefaultSlowWindow
		}
		if c.CooldownDays == 0 {
			c.CooldownDays = DefaultCooldownDays
		}
		if c.DipCooldownDays == 0 {
			c.DipCooldownDays = DefaultCooldownDays
		}
	}
	for _, c := range cfg.CanaryPullback {
		if c.Window == 0 {
			c.Window = DefaultPullbackWindow
		}
		if c.DeclinePercent == 0 {
			c.DeclinePercent = DefaultDeclinePercent
		}
		if c.CooldownDays == 0 {
			c.CooldownDays = DefaultCooldownDays
		}
	}
	for _, c := range cfg.LowsBreadth {
		if c.LowWindow == 0 {
			c.LowWindow = DefaultLowWindow
		}
		if c.ClimaxThreshold == 0 {
			c.ClimaxThreshold = DefaultClimaxThreshold
		}
	}
}

// Build initializes the configured strategy roster.
func (cfg *Config) Build() ([]Strategy, error) {
	var roster []Strategy

	for _, c := range cfg.TrendFollow {
		s, err := NewTrendFollow(c)
		if err != nil {
			return nil, fmt.Errorf("building trend follow strategy: %w", err)
		}
		roster = append(roster, s)
	}
	for _, c := range cfg.RelativeStrength {
		s, err := NewRelativeStrength(c)
		if err != nil {
			return nil, fmt.Errorf("building relative strength strategy: %w", err)
		}
		roster = append(roster, s)
	}
	for _, c := range cfg.CanaryConfirmed {
		s, err := NewCanaryConfirmed(c)
		if err != nil {
			return nil, fmt.Errorf("building confirmed canary strategy: %w", err)
		}
		roster = append(roster, s)
	}
	for _, c := range cfg.CanaryPullback {
		s, err := NewCanaryPullback(c)
		if err != nil {
			return nil, fmt.Errorf("building pullback canary strategy: %w", err)
		}
		roster = append(roster, s)
	}
	for _, c := range cfg.LowsBreadth {
		s, err := NewLowsBreadth(c)
		if err != nil {
			return nil, fmt.Errorf("building lows breadth strategy: %w", err)
		}
		roster = append(roster, s)
	}

	if len(roster) == 0 {
		return nil, fmt.Errorf("strategy config declares no strategies")
	}

	return roster, nil
}
