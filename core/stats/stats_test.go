package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMean tests the arithmetic mean calculation.
func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "empty slice", values: []float64{}, expected: 0},
		{name: "single value", values: []float64{5}, expected: 5},
		{name: "uniform values", values: []float64{2, 2, 2}, expected: 2},
		{name: "baseline window", values: []float64{100, 110, 95, 105}, expected: 102.5},
		{name: "negative values", values: []float64{-2, 2}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Mean(tt.values), 0.001)
		})
	}
}

// TestSampleStddev tests the sample standard deviation calculation.
func TestSampleStddev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
		delta    float64
	}{
		{name: "empty slice", values: []float64{}, expected: 0, delta: 0.001},
		{name: "single value", values: []float64{10}, expected: 0, delta: 0.001},
		{name: "flat history", values: []float64{7, 7, 7, 7}, expected: 0, delta: 0.001},
		{name: "baseline window", values: []float64{100, 110, 95, 105}, expected: 6.455, delta: 0.001},
		{name: "two points", values: []float64{0, 10}, expected: 7.071, delta: 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SampleStddev(tt.values), tt.delta)
		})
	}
}

// TestZScore tests z-score computation including the flat-history guard.
func TestZScore(t *testing.T) {
	// Baseline mean 102.5, stddev ~6.455, observed 200.
	z := ZScore(200, 102.5, 6.455)
	assert.InDelta(t, 15.1, z, 0.1)

	// Observed near the mean barely moves.
	z = ZScore(105, 102.5, 6.455)
	assert.InDelta(t, 0.387, z, 0.01)

	// Flat history: equal means no signal, any deviation is infinite.
	assert.Equal(t, 0.0, ZScore(50, 50, 0))
	assert.True(t, math.IsInf(ZScore(51, 50, 0), 1))
	assert.True(t, math.IsInf(ZScore(49, 50, 0), -1))
}
