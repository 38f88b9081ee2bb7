package chart

import "fmt"

// Window represents a chart display window.
type Window int

const (
	ThreeMonths Window = iota
	OneYear
	FiveYears
)

// String stringifies the provided window.
func (w Window) String() string {
	switch w {
	case ThreeMonths:
		return "3m"
	case OneYear:
		return "1y"
	case FiveYears:
		return "5y"
	default:
		return "unknown"
	}
}

// Days returns the window span in calendar days.
func (w Window) Days() int {
	switch w {
	case ThreeMonths:
		return 90
	case OneYear:
		return 365
	case FiveYears:
		return 1825
	default:
		return 0
	}
}

// ParseWindow parses a window from its string form.
func ParseWindow(str string) (Window, error) {
	switch str {
	case "3m":
		return ThreeMonths, nil
	case "1y":
		return OneYear, nil
	case "5y":
		return FiveYears, nil
	default:
		return 0, fmt.Errorf("unknown chart window: %q", str)
	}
}

// Windows returns all chart display windows.
func Windows() []Window {
	return []Window{ThreeMonths, OneYear, FiveYears}
}
