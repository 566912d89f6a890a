// Package forecast implements the demand models behind the inventory and
// seasonal stages: an ARIMA(1,1,1) short-horizon velocity forecaster, a
// seasonal ARMA one-step forecaster, a multiplicative seasonal
// decomposition, and the weighted-moving-average fallback.
//
// Model fitting returns an explicit error instead of panicking or raising;
// callers select the fallback based on that result. A failed fit is an
// expected, recoverable condition, not a pipeline error.
package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientHistory means the series is too short for the model.
	ErrInsufficientHistory = errors.New("forecast: insufficient history")
	// ErrFitDiverged means the optimizer failed or produced a non-finite fit.
	ErrFitDiverged = errors.New("forecast: model fit diverged")
	// ErrDegenerateSeries means the series has no usable variation.
	ErrDegenerateSeries = errors.New("forecast: degenerate series")
)

// maxFitIterations caps a single model fit so one pathological series cannot
// stall a whole batch; exceeding the cap is handled like any other fit
// failure.
const maxFitIterations = 500

// WeightedMovingAverage computes the linearly weighted average of the last
// window values, most recent weighted highest (weights 1..w). An empty
// series yields 0.
func WeightedMovingAverage(series []float64, window int) float64 {
	if len(series) == 0 || window <= 0 {
		return 0
	}
	w := window
	if len(series) < w {
		w = len(series)
	}
	tail := series[len(series)-w:]

	var sum, weightSum float64
	for i, v := range tail {
		weight := float64(i + 1)
		sum += v * weight
		weightSum += weight
	}
	return sum / weightSum
}

// VelocityARIMA fits an ARIMA(1,1,1) on a daily units series and returns the
// mean forecast over horizon days, floored at 0.
func VelocityARIMA(series []float64, horizon int) (float64, error) {
	if horizon <= 0 {
		horizon = 1
	}
	if len(series) < 4 {
		return 0, ErrInsufficientHistory
	}

	// First difference.
	diff := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	c, phi, theta, resid, err := fitARMA11(diff)
	if err != nil {
		return 0, err
	}

	// Forecast the differenced series and re-integrate. Future shocks are
	// zero, so only the first step carries the last residual.
	level := series[len(series)-1]
	yPrev := diff[len(diff)-1]
	ePrev := resid[len(resid)-1]

	var sum float64
	for h := 0; h < horizon; h++ {
		yHat := c + phi*yPrev
		if h == 0 {
			yHat += theta * ePrev
		}
		level += yHat
		sum += level
		yPrev = yHat
	}

	velocity := sum / float64(horizon)
	if math.IsNaN(velocity) || math.IsInf(velocity, 0) {
		return 0, ErrFitDiverged
	}
	return math.Max(velocity, 0), nil
}

// fitARMA11 fits y_t = c + phi*y_{t-1} + theta*e_{t-1} + e_t by conditional
// sum of squares. phi and theta are kept inside the unit interval through a
// tanh reparameterization.
func fitARMA11(y []float64) (c, phi, theta float64, resid []float64, err error) {
	if len(y) < 3 {
		return 0, 0, 0, nil, ErrInsufficientHistory
	}
	if popVariance(y) == 0 {
		return 0, 0, 0, nil, ErrDegenerateSeries
	}

	sse := func(x []float64) float64 {
		s, _ := arma11Residuals(y, x[0], math.Tanh(x[1]), math.Tanh(x[2]))
		return s
	}

	problem := optimize.Problem{Func: sse}
	x0 := []float64{stat.Mean(y, nil), 0.1, 0.1}
	settings := &optimize.Settings{MajorIterations: maxFitIterations}

	result, optErr := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if optErr != nil || result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return 0, 0, 0, nil, ErrFitDiverged
	}

	c = result.X[0]
	phi = math.Tanh(result.X[1])
	theta = math.Tanh(result.X[2])
	_, resid = arma11Residuals(y, c, phi, theta)
	return c, phi, theta, resid, nil
}

func arma11Residuals(y []float64, c, phi, theta float64) (sse float64, resid []float64) {
	resid = make([]float64, len(y))
	for t := 1; t < len(y); t++ {
		pred := c + phi*y[t-1] + theta*resid[t-1]
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return math.MaxFloat64, resid
	}
	return sse, resid
}

func popVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	var sum float64
	for _, v := range xs {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
