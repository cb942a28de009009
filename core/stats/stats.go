// Package stats has rolling baseline statistics for anomaly detection.
package stats

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStddev returns the sample standard deviation (n-1 denominator) of
// values. Fewer than two values have no spread and return 0.
func SampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// ZScore returns how many standard deviations observed sits from mean.
// A zero stddev makes the z-score undefined; callers must handle the
// flat-history case before dividing, so this returns +/-Inf as a guard.
func ZScore(observed, mean, stddev float64) float64 {
	if stddev == 0 {
		if observed == mean {
			return 0
		}
		return math.Inf(sign(observed - mean))
	}
	return (observed - mean) / stddev
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
