package stats

// LinearFit holds the slope and intercept of a simple ordinary-least-squares
// fit of y on x.
type LinearFit struct {
	Slope     float64
	Intercept float64
}

// FitLinear computes the ordinary-least-squares line y = slope*x + intercept
// through the given points. Returns the zero LinearFit and false when fewer
// than two points are given or all x values are identical (zero variance).
func FitLinear(xs, ys []float64) (LinearFit, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return LinearFit{}, false
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	var covXY, varX float64

	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		covXY += dx * (ys[i] - meanY)
		varX += dx * dx
	}

	if varX == 0 {
		return LinearFit{}, false
	}

	slope := covXY / varX
	intercept := meanY - slope*meanX

	return LinearFit{Slope: slope, Intercept: intercept}, true
}

// Predict evaluates the fitted line at x.
func (f LinearFit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}
