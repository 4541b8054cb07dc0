package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitLinear_PerfectLine(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	ys := []float64{2, 4, 6, 8}

	fit, ok := FitLinear(xs, ys)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 0.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 10.0, fit.Predict(5), 1e-9)
}

func TestFitLinear_TooFewPoints(t *testing.T) {
	t.Parallel()

	_, ok := FitLinear([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestFitLinear_ZeroVariance(t *testing.T) {
	t.Parallel()

	_, ok := FitLinear([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestFitLinear_MismatchedLengths(t *testing.T) {
	t.Parallel()

	_, ok := FitLinear([]float64{1, 2, 3}, []float64{1, 2})
	assert.False(t, ok)
}
