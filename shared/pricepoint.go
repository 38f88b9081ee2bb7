package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData is returned when a ticker has no usable price history.
var ErrNoData = errors.New("no price history")

const (
	// DayLayout is the format layout for parsing trading days.
	DayLayout = "2006-01-02"
	// NewYorkLocation is the timezone market sessions are anchored to.
	NewYorkLocation = "America/New_York"
)

// PricePoint represents a unit closing price for a trading day.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// ParseDay parses a trading day from its string form.
func ParseDay(day string) (time.Time, error) {
	date, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing trading day %q: %w", day, err)
	}

	return date, nil
}

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}

// Closes extracts the closing prices of the provided price series.
func Closes(prices []PricePoint) []float64 {
	closes := make([]float64, len(prices))
	for idx := range prices {
		closes[idx] = prices[idx].Close
	}

	return closes
}

// Ascending asserts the provided price series is strictly ascending by date.
func Ascending(prices []PricePoint) error {
	for idx := 1; idx < len(prices); idx++ {
		if !prices[idx-1].Date.Before(prices[idx].Date) {
			return fmt.Errorf("price series not strictly ascending at %s",
				prices[idx].Date.Format(DayLayout))
		}
	}

	return nil
}
