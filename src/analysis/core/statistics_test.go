package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = CalculateMeanStd([]float64{7})
	assert.Equal(t, 7.0, mean)
	assert.Zero(t, std)

	mean, std = CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.0, std, 1e-9)
}

func TestLatencyStatsMs(t *testing.T) {
	mean, std := LatencyStatsMs([]time.Duration{10 * time.Millisecond, 30 * time.Millisecond})
	assert.InDelta(t, 20.0, mean, 1e-9)
	assert.InDelta(t, 10.0, std, 1e-9)
}
