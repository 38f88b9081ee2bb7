package shared

import (
	"context"
	"time"
)

// MarketFetcher defines the requirements for fetching market price history.
type MarketFetcher interface {
	// FetchDailyHistory fetches the daily closing price history of the
	// provided ticker, ascending by date, from the provided start date.
	FetchDailyHistory(ctx context.Context, ticker string, start time.Time) ([]PricePoint, error)
}
