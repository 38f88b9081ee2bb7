package shared

import (
	"fmt"
	"time"
)

// Signal represents a strategy's stance for a trading day.
type Signal int

const (
	Buy Signal = iota
	Sell
)

// String stringifies the provided signal.
func (s Signal) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "unknown"
	}
}

// ParseSignal parses a signal from its string form.
func ParseSignal(str string) (Signal, error) {
	switch str {
	case "Buy":
		return Buy, nil
	case "Sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown signal: %q", str)
	}
}

// MarshalJSON implements json.Marshaler for the signal.
func (s Signal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for the signal.
func (s *Signal) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("malformed signal: %s", string(b))
	}

	sig, err := ParseSignal(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}

	*s = sig
	return nil
}

// SignalPoint represents a signal attached to a trading day.
type SignalPoint struct {
	Date   time.Time
	Signal Signal
}

// InflectionPoint represents a trading day whose signal differs from the
// immediately preceding dated signal.
type InflectionPoint struct {
	Date   time.Time
	Signal Signal
}

// FindInflections scans the provided date-ordered signal sequence and returns
// the subsequence of entries whose signal differs from the prior entry's
// signal. The first entry is never an inflection point.
func FindInflections(points []SignalPoint) []InflectionPoint {
	var inflections []InflectionPoint
	for idx := 1; idx < len(points); idx++ {
		if points[idx].Signal != points[idx-1].Signal {
			inflections = append(inflections, InflectionPoint{
				Date:   points[idx].Date,
				Signal: points[idx].Signal,
			})
		}
	}

	return inflections
}
