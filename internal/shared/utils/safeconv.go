package utils

import "math"

// SafeUint64ToInt64 safely converts uint64 to int64.
// If the value exceeds math.MaxInt64, it returns math.MaxInt64.
func SafeUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// SafeInt64ToUint64 safely converts int64 to uint64.
// If the value is negative, it returns 0.
func SafeInt64ToUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// SaturatingAdd adds two byte counters, clamping at math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// ScaleBytes multiplies a byte count by a rate multiplier, truncating toward
// zero. Negative or NaN rates yield zero.
func ScaleBytes(v uint64, rate float64) uint64 {
	if !(rate > 0) {
		return 0
	}
	scaled := float64(v) * rate
	if scaled >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(scaled)
}
