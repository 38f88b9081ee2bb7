package strategy

import (
	"testing"

	"github.com/mlowry/papersig/shared"
	"github.com/peterldowns/testy/assert"
)

func TestRelativeStrengthConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RelativeStrengthConfig
		wantErr bool
	}{
		{
			"valid config",
			RelativeStrengthConfig{Target: "XLU", Benchmark: "SPY", LookbackWeeks: 4},
			false,
		},
		{
			"missing target",
			RelativeStrengthConfig{Benchmark: "SPY", LookbackWeeks: 4},
			true,
		},
		{
			"missing benchmark",
			RelativeStrengthConfig{Target: "XLU", LookbackWeeks: 4},
			true,
		},
		{
			"identical tickers",
			RelativeStrengthConfig{Target: "SPY", Benchmark: "SPY", LookbackWeeks: 4},
			true,
		},
		{
			"invalid lookback",
			RelativeStrengthConfig{Target: "XLU", Benchmark: "SPY", LookbackWeeks: 0},
			true,
		},
	}

	for _, test := range tests {
		_, err := NewRelativeStrength(&test.cfg)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: expected error %v, got %v", test.name, test.wantErr, err)
		}
	}
}

func TestRelativeStrengthDerive(t *testing.T) {
	// Six ISO weeks of history: the target weakens against the benchmark
	// throughout, so the ratio falls and the rotation signals Buy once the
	// lookback is filled.
	days := 42
	targetCloses := make([]float64, days)
	benchmarkCloses := make([]float64, days)
	for idx := range days {
		targetCloses[idx] = 100
		benchmarkCloses[idx] = 100 + float64(idx)
	}
	target := series(t, "2023-01-02", targetCloses...)
	benchmark := series(t, "2023-01-02", benchmarkCloses...)

	s, err := NewRelativeStrength(&RelativeStrengthConfig{
		Target:        "XLU",
		Benchmark:     "SPY",
		LookbackWeeks: 4,
	})
	assert.NoError(t, err)

	signals, err := s.Derive(map[string][]shared.PricePoint{
		"XLU": target,
		"SPY": benchmark,
	})
	assert.NoError(t, err)
	assert.GreaterThan(t, signals.Size(), 0)

	// Every derived signal is Buy while the ratio keeps falling, and the
	// weekly signal forward-fills onto trading days between weekly closes.
	points := signals.Points()
	for idx := range points {
		assert.Equal(t, points[idx].Signal, shared.Buy)
	}

	// Days preceding the first weekly signal carry none. The first signal
	// needs four completed weeks of ratio history.
	_, ok := signals.At(target[0].Date)
	assert.False(t, ok)
}

func TestRelativeStrengthDeriveRising(t *testing.T) {
	// The target strengthens against the benchmark, so the rotation holds
	// Sell throughout.
	days := 42
	targetCloses := make([]float64, days)
	benchmarkCloses := make([]float64, days)
	for idx := range days {
		targetCloses[idx] = 100 + float64(idx)
		benchmarkCloses[idx] = 100
	}
	target := series(t, "2023-01-02", targetCloses...)
	benchmark := series(t, "2023-01-02", benchmarkCloses...)

	s, err := NewRelativeStrength(&RelativeStrengthConfig{
		Target:        "XLU",
		Benchmark:     "SPY",
		LookbackWeeks: 4,
	})
	assert.NoError(t, err)

	signals, err := s.Derive(map[string][]shared.PricePoint{
		"XLU": target,
		"SPY": benchmark,
	})
	assert.NoError(t, err)
	assert.GreaterThan(t, signals.Size(), 0)

	points := signals.Points()
	for idx := range points {
		assert.Equal(t, points[idx].Signal, shared.Sell)
	}
}

func TestRelativeStrengthDeriveMissingSeries(t *testing.T) {
	s, err := NewRelativeStrength(&RelativeStrengthConfig{
		Target:        "XLU",
		Benchmark:     "SPY",
		LookbackWeeks: 4,
	})
	assert.NoError(t, err)

	_, err = s.Derive(map[string][]shared.PricePoint{
		"XLU": series(t, "2023-01-02", 1, 2, 3),
	})
	assert.Error(t, err)
}
