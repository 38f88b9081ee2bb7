// Package tally aggregates independently computed strategy signal maps into
// a per-date buy consensus.
package tally

import (
	"sort"
	"time"

	"github.com/mlowry/papersig/shared"
)

// DailyTally represents the buy consensus counts for a trading day.
type DailyTally struct {
	Date  time.Time
	Buy   int
	Total int
}

// Fraction returns the fraction of counted strategies signaling Buy.
func (t *DailyTally) Fraction() float64 {
	return float64(t.Buy) / float64(t.Total)
}

// Percent returns the percentage of counted strategies signaling Buy.
func (t *DailyTally) Percent() float64 {
	return t.Fraction() * 100
}

// BuyConsensus tallies, per trading day, how many of the provided signal maps
// carry a signal (total) and how many of those signal Buy. Days carried by no
// map are omitted, dates need no alignment across maps beyond day equality.
// The result is ascending by date.
func BuyConsensus(maps []*shared.SignalMap) []DailyTally {
	counts := make(map[string]*DailyTally)

	for _, m := range maps {
		if m == nil {
			continue
		}

		points := m.Points()
		for idx := range points {
			day := points[idx].Date.Format(shared.DayLayout)
			count, ok := counts[day]
			if !ok {
				count = &DailyTally{Date: points[idx].Date}
				counts[day] = count
			}

			count.Total++
			if points[idx].Signal == shared.Buy {
				count.Buy++
			}
		}
	}

	tallies := make([]DailyTally, 0, len(counts))
	for day := range counts {
		tallies = append(tallies, *counts[day])
	}
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].Date.Before(tallies[j].Date)
	})

	return tallies
}
