package forecast

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Decomposition is the multiplicative split of a monthly series.
type Decomposition struct {
	Seasonal []float64 // repeating seasonal factors, aligned to the input
	Residual []float64 // x / (trend * seasonal) where the trend is defined
	Strength float64   // seasonal variance share, clamped to [0,1]
}

// DecomposeMultiplicative splits a monthly series into trend, seasonal and
// residual components (x = trend * seasonal * residual) using a centered
// moving-average trend, and reports seasonality strength as
// var(seasonal) / (var(seasonal) + var(residual)).
func DecomposeMultiplicative(series []float64, period int) (Decomposition, error) {
	n := len(series)
	if period < 2 || n < 2*period {
		return Decomposition{}, ErrInsufficientHistory
	}

	trend := centeredMovingAverage(series, period)

	// Seasonal factor per cycle position: mean of detrended observations,
	// normalized so factors average to 1.
	sums := make([]float64, period)
	counts := make([]int, period)
	for i := range series {
		if math.IsNaN(trend[i]) || trend[i] == 0 {
			continue
		}
		pos := i % period
		sums[pos] += series[i] / trend[i]
		counts[pos]++
	}

	factors := make([]float64, period)
	var factorSum float64
	observed := 0
	for pos := range factors {
		if counts[pos] == 0 {
			factors[pos] = 1
		} else {
			factors[pos] = sums[pos] / float64(counts[pos])
			observed++
		}
		factorSum += factors[pos]
	}
	if observed == 0 || factorSum == 0 {
		return Decomposition{}, ErrDegenerateSeries
	}
	norm := float64(period) / factorSum
	for pos := range factors {
		factors[pos] *= norm
	}

	seasonal := make([]float64, n)
	var residual []float64
	for i := range series {
		seasonal[i] = factors[i%period]
		if !math.IsNaN(trend[i]) && trend[i] != 0 && seasonal[i] != 0 {
			residual = append(residual, series[i]/(trend[i]*seasonal[i]))
		}
	}
	if len(residual) == 0 {
		return Decomposition{}, ErrDegenerateSeries
	}

	seasonalVar := popVariance(seasonal)
	residualVar := popVariance(residual)
	strength := 0.0
	if seasonalVar+residualVar > 0 {
		strength = seasonalVar / (seasonalVar + residualVar)
	}
	strength = math.Min(1, math.Max(0, strength))

	return Decomposition{Seasonal: seasonal, Residual: residual, Strength: strength}, nil
}

// centeredMovingAverage returns the classical decomposition trend: a 2xp MA
// for even periods, a plain centered p MA for odd ones. Positions without a
// full window are NaN.
func centeredMovingAverage(series []float64, period int) []float64 {
	n := len(series)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	if period%2 == 0 {
		for i := half; i < n-half; i++ {
			var sum float64
			// End points of the window carry half weight.
			sum += series[i-half] / 2
			sum += series[i+half] / 2
			for j := i - half + 1; j <= i+half-1; j++ {
				sum += series[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := half; i < n-half; i++ {
			var sum float64
			for j := i - half; j <= i+half; j++ {
				sum += series[j]
			}
			trend[i] = sum / float64(period)
		}
	}
	return trend
}

// SeasonalForecast fits a seasonal ARMA (1,0,1)(1,0,1,period) by conditional
// sum of squares and returns the one-step-ahead forecast.
func SeasonalForecast(series []float64, period int) (float64, error) {
	n := len(series)
	if period < 2 || n < period+2 {
		return 0, ErrInsufficientHistory
	}
	if popVariance(series) == 0 {
		return 0, ErrDegenerateSeries
	}

	type params struct{ c, phi, theta, sphi, stheta float64 }
	unpack := func(x []float64) params {
		return params{
			c:      x[0],
			phi:    math.Tanh(x[1]),
			theta:  math.Tanh(x[2]),
			sphi:   math.Tanh(x[3]),
			stheta: math.Tanh(x[4]),
		}
	}

	residuals := func(p params) (float64, []float64) {
		resid := make([]float64, n)
		var sse float64
		for t := period + 1; t < n; t++ {
			pred := p.c +
				p.phi*series[t-1] +
				p.sphi*series[t-period] -
				p.phi*p.sphi*series[t-period-1] +
				p.theta*resid[t-1] +
				p.stheta*resid[t-period] +
				p.theta*p.stheta*resid[t-period-1]
			resid[t] = series[t] - pred
			sse += resid[t] * resid[t]
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.MaxFloat64, resid
		}
		return sse, resid
	}

	problem := optimize.Problem{Func: func(x []float64) float64 {
		sse, _ := residuals(unpack(x))
		return sse
	}}
	x0 := []float64{stat.Mean(series, nil) * 0.1, 0.1, 0.1, 0.1, 0.1}
	settings := &optimize.Settings{MajorIterations: maxFitIterations}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return 0, ErrFitDiverged
	}

	p := unpack(result.X)
	_, resid := residuals(p)

	t := n
	forecast := p.c +
		p.phi*series[t-1] +
		p.sphi*series[t-period] -
		p.phi*p.sphi*series[t-period-1] +
		p.theta*resid[t-1] +
		p.stheta*resid[t-period] +
		p.theta*p.stheta*resid[t-period-1]

	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return 0, ErrFitDiverged
	}
	return forecast, nil
}
