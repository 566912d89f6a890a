package inventory

import (
	"github.com/merchsignal/backend/internal/forecast"
)

// VelocityForecaster estimates average daily demand over a short horizon
// from an ordered daily units series. A nil-safe error return signals the
// caller to fall back; it is never propagated as a pipeline failure.
type VelocityForecaster interface {
	ForecastVelocity(series []float64) (float64, error)
}

// ModelForecaster is the primary, ARIMA(1,1,1)-backed strategy.
type ModelForecaster struct {
	HorizonDays int
}

func (f ModelForecaster) ForecastVelocity(series []float64) (float64, error) {
	return forecast.VelocityARIMA(series, f.HorizonDays)
}

// AverageForecaster is the weighted-moving-average fallback strategy.
type AverageForecaster struct {
	WindowDays int
}

func (f AverageForecaster) ForecastVelocity(series []float64) (float64, error) {
	return forecast.WeightedMovingAverage(series, f.WindowDays), nil
}
