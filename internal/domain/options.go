package domain

// PipelineOptions carries every tunable threshold the four stages consume.
// Values come from config; the zero value is not usable, call
// DefaultPipelineOptions and override from there.
type PipelineOptions struct {
	// Profitability.
	FeeGSTRate float64 // GST applied on top of payment gateway fees

	// Velocity forecasting.
	MinARIMAHistoryDays int // minimum daily observations before the model path is tried
	ForecastHorizonDays int // horizon whose mean forecast becomes the velocity
	WMAWindowDays       int // fallback weighted-moving-average window
	MinVelocity         float64

	// Risk classification and purchasing.
	LeadTimeBufferDays      int
	DemandUncertaintyFactor float64

	// Seasonality.
	SeasonalPeriodMonths int     // months per seasonal cycle
	MinSeasonalMonths    int     // monthly buckets required for indices/trend
	MinSARIMAMonths      int     // monthly buckets required for strength+forecast
	TrendDelta           float64 // index delta separating RISING/FALLING from STABLE
	StrengthThreshold    float64 // minimum strength treated as "strongly seasonal"
	HighStockDays        float64 // runway above which seasonal risk can trigger
	LowSeasonIndex       float64 // next-month index below which season counts as low

	// Ranking.
	LossPerDayThreshold float64
	MinDaysForUrgency   float64
}

// DefaultPipelineOptions returns the stock thresholds the system ships with.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		FeeGSTRate:              0.18,
		MinARIMAHistoryDays:     30,
		ForecastHorizonDays:     7,
		WMAWindowDays:           7,
		MinVelocity:             0.1,
		LeadTimeBufferDays:      5,
		DemandUncertaintyFactor: 1.3,
		SeasonalPeriodMonths:    12,
		MinSeasonalMonths:       3,
		MinSARIMAMonths:         12,
		TrendDelta:              0.1,
		StrengthThreshold:       0.3,
		HighStockDays:           45,
		LowSeasonIndex:          0.8,
		LossPerDayThreshold:     200.0,
		MinDaysForUrgency:       1.0,
	}
}
