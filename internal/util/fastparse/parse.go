// Package fastparse provides strconv-based parsing and formatting helpers,
// avoiding fmt's extra overhead. Its float helpers return float64, so the
// venue parsers do not use it for prices or quantities: those go straight
// through decimal.NewFromString.
package fastparse

import (
	"strconv"
)

// ParseFloat parses a float64, e.g. for fields that never feed a decision
// (RTT, QPS) and so don't need decimal exactness.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseInt parses a signed 64-bit integer.
func ParseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ParseUint parses an unsigned 64-bit integer, e.g. sequence numbers.
func ParseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// MustParseFloat parses a float64, returning 0 on failure. For callers
// that have already validated the format.
func MustParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MustParseInt parses an int64, returning 0 on failure.
func MustParseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatFloat formats a float64 without fmt.Sprintf's overhead.
func FormatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}

// FormatInt formats an int64 without fmt.Sprintf's overhead.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
