package strategy

import (
	"fmt"

	"github.com/mlowry/papersig/shared"
)

// Strategy defines the requirements for deriving a signal map from price
// history. Implementations are pure: identical input series always yield
// identical signal maps.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// Tickers returns the tickers the strategy requires history for.
	Tickers() []string
	// Derive derives the strategy's signal map from the provided price
	// series, keyed by ticker.
	Derive(series map[string][]shared.PricePoint) (*shared.SignalMap, error)
}

// fetchSeries returns the ascending price series of the provided ticker.
func fetchSeries(series map[string][]shared.PricePoint, ticker string) ([]shared.PricePoint, error) {
	prices, ok := series[ticker]
	if !ok || len(prices) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, shared.ErrNoData)
	}

	if err := shared.Ascending(prices); err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	return prices, nil
}
