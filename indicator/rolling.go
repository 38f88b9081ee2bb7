package indicator

import (
	"time"

	"github.com/mlowry/papersig/shared"
)

// Point represents a unit indicator value for a trading day.
type Point struct {
	Date  time.Time
	Value float64
}

// SMA computes the simple moving average of the provided price series over
// the provided window. A value is emitted for a date only once a full window
// of history precedes it, so the result holds len(prices)-window+1 points,
// the first aligned with prices[window-1]. Short input yields no points.
func SMA(prices []shared.PricePoint, window int) []Point {
	if window <= 0 || len(prices) < window {
		return nil
	}

	points := make([]Point, 0, len(prices)-window+1)

	var sum float64
	for idx := range prices {
		sum += prices[idx].Close
		if idx < window-1 {
			continue
		}
		if idx >= window {
			sum -= prices[idx-window].Close
		}

		points = append(points, Point{
			Date:  prices[idx].Date,
			Value: sum / float64(window),
		})
	}

	return points
}

// RollingMax computes the maximum close over a trailing window of the
// provided price series, with the same windowing rule as SMA.
func RollingMax(prices []shared.PricePoint, window int) []Point {
	return rollingExtreme(prices, window, func(a, b float64) bool { return a > b })
}

// RollingMin computes the minimum close over a trailing window of the
// provided price series, with the same windowing rule as SMA.
func RollingMin(prices []shared.PricePoint, window int) []Point {
	return rollingExtreme(prices, window, func(a, b float64) bool { return a < b })
}

// rollingExtreme computes a rolling extreme using a monotonic index deque.
func rollingExtreme(prices []shared.PricePoint, window int, better func(a, b float64) bool) []Point {
	if window <= 0 || len(prices) < window {
		return nil
	}

	points := make([]Point, 0, len(prices)-window+1)
	deque := make([]int, 0, window)

	for idx := range prices {
		// Evict indexes that fell out of the trailing window.
		if len(deque) > 0 && deque[0] <= idx-window {
			deque = deque[1:]
		}

		// Evict values dominated by the incoming close.
		for len(deque) > 0 && !better(prices[deque[len(deque)-1]].Close, prices[idx].Close) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, idx)

		if idx < window-1 {
			continue
		}

		points = append(points, Point{
			Date:  prices[idx].Date,
			Value: prices[deque[0]].Close,
		})
	}

	return points
}

// PercentChange computes the fractional change of each close relative to the
// close lag trading periods earlier. The first lag dates carry no value, so
// the result holds len(prices)-lag points, the first aligned with
// prices[lag].
func PercentChange(prices []shared.PricePoint, lag int) []Point {
	if lag <= 0 || len(prices) <= lag {
		return nil
	}

	points := make([]Point, 0, len(prices)-lag)
	for idx := lag; idx < len(prices); idx++ {
		points = append(points, Point{
			Date:  prices[idx].Date,
			Value: prices[idx].Close/prices[idx-lag].Close - 1,
		})
	}

	return points
}

// Ratio divides the closes of the numerator series by those of the
// denominator series, matched by trading day. Days absent from either series
// carry no value.
func Ratio(numerator []shared.PricePoint, denominator []shared.PricePoint) []shared.PricePoint {
	denomByDay := make(map[string]float64, len(denominator))
	for idx := range denominator {
		denomByDay[denominator[idx].Date.Format(shared.DayLayout)] = denominator[idx].Close
	}

	points := make([]shared.PricePoint, 0, len(numerator))
	for idx := range numerator {
		denom, ok := denomByDay[numerator[idx].Date.Format(shared.DayLayout)]
		if !ok || denom == 0 {
			continue
		}

		points = append(points, shared.PricePoint{
			Date:  numerator[idx].Date,
			Close: numerator[idx].Close / denom,
		})
	}

	return points
}

// ResampleWeekly reduces the provided daily price series to one point per ISO
// week, keeping the last close of each week on its trading day.
func ResampleWeekly(prices []shared.PricePoint) []shared.PricePoint {
	if len(prices) == 0 {
		return nil
	}

	points := make([]shared.PricePoint, 0, len(prices)/5+1)
	for idx := range prices {
		if idx+1 < len(prices) && sameISOWeek(prices[idx].Date, prices[idx+1].Date) {
			continue
		}

		points = append(points, prices[idx])
	}

	return points
}

func sameISOWeek(a, b time.Time) bool {
	aYear, aWeek := a.ISOWeek()
	bYear, bWeek := b.ISOWeek()
	return aYear == bYear && aWeek == bWeek
}
