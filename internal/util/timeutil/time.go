// Package timeutil provides a monotonic nanosecond clock used for latency
// measurement and event timestamping.
package timeutil

import (
	"time"
)

var (
	baseTime   = time.Now()
	baseUnixNs = baseTime.UnixNano()
)

// NowNano returns the current time as a Unix nanosecond timestamp, computed
// as baseUnixNs + time.Since(baseTime).Nanoseconds(). Anchoring to a
// monotonic reading keeps elapsed-time math correct across NTP/manual clock
// jumps, so latency and staleness checks never see a negative or inflated
// delta.
func NowNano() int64 {
	return baseUnixNs + time.Since(baseTime).Nanoseconds()
}

// NowMs returns the current time as a Unix millisecond timestamp, matching
// the precision exchanges typically use in their own timestamps.
func NowMs() int64 {
	return NowNano() / 1_000_000
}

// NowMicro returns the current time as a Unix microsecond timestamp.
func NowMicro() int64 {
	return NowNano() / 1_000
}

// NanoToMs converts a nanosecond timestamp to milliseconds.
func NanoToMs(ns int64) int64 {
	return ns / 1_000_000
}

// MsToNano converts a millisecond timestamp to nanoseconds.
func MsToNano(ms int64) int64 {
	return ms * 1_000_000
}

// NanoToTime converts a nanosecond timestamp to a time.Time.
func NanoToTime(ns int64) time.Time {
	return time.Unix(0, ns)
}

// MsToTime converts a millisecond timestamp to a time.Time.
func MsToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// DurationMs returns the millisecond gap between two nanosecond timestamps,
// as a float to preserve sub-millisecond precision.
func DurationMs(startNs, endNs int64) float64 {
	return float64(endNs-startNs) / 1_000_000.0
}

// SinceNano returns the elapsed time since startNs (a nanosecond timestamp).
func SinceNano(startNs int64) time.Duration {
	return time.Duration(NowNano() - startNs)
}

// SinceMs returns the elapsed milliseconds since startMs.
func SinceMs(startMs int64) int64 {
	return NowMs() - startMs
}
