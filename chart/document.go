// Package chart builds chart description documents consumed by the browser
// side plotting layer.
package chart

import (
	"time"

	"github.com/mlowry/papersig/shared"
	"github.com/mlowry/papersig/tally"
)

// Marker represents an inflection point annotation on a chart.
type Marker struct {
	Date   string        `json:"date"`
	Signal shared.Signal `json:"signal"`
}

// XAxis represents the date axis range of a chart.
type XAxis struct {
	Range [2]string `json:"range"`
}

// YAxis represents the price axis range of a chart.
type YAxis struct {
	Range [2]float64 `json:"range"`
}

// Layout represents the axis metadata of a chart.
type Layout struct {
	XAxis XAxis `json:"xaxis"`
	YAxis YAxis `json:"yaxis"`
}

// Document represents a chart description: parallel date and close arrays,
// an optional parallel buy percentage array, inflection markers and axis
// range metadata.
type Document struct {
	Date             []string   `json:"date"`
	Close            []float64  `json:"close"`
	BuyPercentage    []*float64 `json:"buy_percentage,omitempty"`
	InflectionPoints []Marker   `json:"inflection_points"`
	Layout           Layout     `json:"layout"`
}

// Build assembles the chart document for the provided price series over the
// provided display window ending at the provided day. Inflection markers are
// clipped to the window, the optional consensus tallies align to the date
// array with nulls for days carrying no tally.
func Build(prices []shared.PricePoint, inflections []shared.InflectionPoint,
	consensus []tally.DailyTally, window Window, today time.Time) (*Document, error) {
	start := today.AddDate(0, 0, -window.Days())

	var percentByDay map[string]float64
	if consensus != nil {
		percentByDay = make(map[string]float64, len(consensus))
		for idx := range consensus {
			percentByDay[consensus[idx].Date.Format(shared.DayLayout)] = consensus[idx].Percent()
		}
	}

	doc := &Document{
		InflectionPoints: make([]Marker, 0),
	}

	minClose, maxClose := 0.0, 0.0
	for idx := range prices {
		if prices[idx].Date.Before(start) || prices[idx].Date.After(today) {
			continue
		}

		day := prices[idx].Date.Format(shared.DayLayout)
		doc.Date = append(doc.Date, day)
		doc.Close = append(doc.Close, prices[idx].Close)

		if len(doc.Close) == 1 || prices[idx].Close < minClose {
			minClose = prices[idx].Close
		}
		if len(doc.Close) == 1 || prices[idx].Close > maxClose {
			maxClose = prices[idx].Close
		}

		if percentByDay != nil {
			if percent, ok := percentByDay[day]; ok {
				doc.BuyPercentage = append(doc.BuyPercentage, &percent)
			} else {
				doc.BuyPercentage = append(doc.BuyPercentage, nil)
			}
		}
	}

	if len(doc.Date) == 0 {
		return nil, shared.ErrNoData
	}

	for idx := range inflections {
		if inflections[idx].Date.Before(start) || inflections[idx].Date.After(today) {
			continue
		}

		doc.InflectionPoints = append(doc.InflectionPoints, Marker{
			Date:   inflections[idx].Date.Format(shared.DayLayout),
			Signal: inflections[idx].Signal,
		})
	}

	doc.Layout = Layout{
		XAxis: XAxis{Range: [2]string{doc.Date[0], doc.Date[len(doc.Date)-1]}},
		YAxis: YAxis{Range: [2]float64{minClose, maxClose}},
	}

	return doc, nil
}
