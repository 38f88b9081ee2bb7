package shared

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestParseDay(t *testing.T) {
	date, err := ParseDay("2023-01-03")
	assert.NoError(t, err)
	assert.Equal(t, date.Year(), 2023)
	assert.Equal(t, int(date.Month()), 1)
	assert.Equal(t, date.Day(), 3)

	_, err = ParseDay("03/01/2023")
	assert.Error(t, err)
}

func TestCloses(t *testing.T) {
	prices := []PricePoint{
		{Date: day(t, "2023-01-03"), Close: 10},
		{Date: day(t, "2023-01-04"), Close: 12},
	}

	if diff := cmp.Diff([]float64{10, 12}, Closes(prices)); diff != "" {
		t.Errorf("unexpected closes (-want +got):\n%s", diff)
	}
}

func TestAscending(t *testing.T) {
	prices := []PricePoint{
		{Date: day(t, "2023-01-03"), Close: 10},
		{Date: day(t, "2023-01-04"), Close: 12},
	}
	assert.NoError(t, Ascending(prices))
	assert.NoError(t, Ascending(nil))

	// Ensure duplicate and descending dates are rejected.
	dup := append(prices, prices[1])
	assert.Error(t, Ascending(dup))

	reversed := []PricePoint{prices[1], prices[0]}
	assert.Error(t, Ascending(reversed))
}
