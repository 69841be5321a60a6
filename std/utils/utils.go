package utils

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Version from source control, set by the linker.
var Version string = "unknown"

// If is the ternary operator (eager evaluation)
func If[T any](cond bool, t, f T) T {
	if cond {
		return t
	}
	return f
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MakeTimestamp converts a time to Unix milliseconds.
func MakeTimestamp(t time.Time) uint64 {
	return uint64(t.UnixNano() / int64(time.Millisecond))
}
