package shared

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDateNotInDataset is returned by lookups preceding the first dated signal.
var ErrDateNotInDataset = errors.New("date not in dataset")

// SignalMap represents the date-ordered signal history of a strategy.
type SignalMap struct {
	points []SignalPoint
	index  map[string]int
}

// NewSignalMap initializes an empty signal map.
func NewSignalMap() *SignalMap {
	return &SignalMap{
		index: make(map[string]int),
	}
}

// Add appends the provided signal for the provided trading day. Entries must
// be added in strictly ascending date order.
func (m *SignalMap) Add(date time.Time, signal Signal) error {
	if len(m.points) > 0 && !m.points[len(m.points)-1].Date.Before(date) {
		return fmt.Errorf("signal for %s added out of order",
			date.Format(DayLayout))
	}

	m.index[date.Format(DayLayout)] = len(m.points)
	m.points = append(m.points, SignalPoint{Date: date, Signal: signal})

	return nil
}

// Size returns the number of dated signals in the map.
func (m *SignalMap) Size() int {
	return len(m.points)
}

// Points returns the date-ordered signal sequence of the map.
func (m *SignalMap) Points() []SignalPoint {
	return m.points
}

// At returns the signal recorded for the provided trading day.
func (m *SignalMap) At(date time.Time) (Signal, bool) {
	idx, ok := m.index[date.Format(DayLayout)]
	if !ok {
		return 0, false
	}

	return m.points[idx].Signal, true
}

// Lookup returns the signal for the provided date, falling back to the most
// recent prior dated signal when the date itself carries none. Queries
// preceding the first dated signal return ErrDateNotInDataset.
func (m *SignalMap) Lookup(date time.Time) (Signal, error) {
	// Find the first entry dated after the query, the answer precedes it.
	idx := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].Date.After(date)
	})
	if idx == 0 {
		return 0, ErrDateNotInDataset
	}

	return m.points[idx-1].Signal, nil
}

// Inflections returns the inflection points of the map's signal sequence.
func (m *SignalMap) Inflections() []InflectionPoint {
	return FindInflections(m.points)
}

// MarshalJSON encodes the map as a date-keyed object, preserving date order.
func (m *SignalMap) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(m.points)*24))
	buf.WriteByte('{')
	for idx := range m.points {
		if idx > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%q:%q", m.points[idx].Date.Format(DayLayout),
			m.points[idx].Signal.String())
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
