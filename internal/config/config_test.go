package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/domain"
)

func TestPipelineOptionsCopiesEveryKnob(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{
		FeeGSTRate:              0.12,
		MinARIMAHistoryDays:     45,
		ForecastHorizonDays:     14,
		WMAWindowDays:           10,
		MinVelocity:             0.5,
		LeadTimeBufferDays:      3,
		DemandUncertaintyFactor: 1.5,
		SeasonalPeriodMonths:    6,
		MinSeasonalMonths:       2,
		MinSARIMAMonths:         18,
		TrendDelta:              0.2,
		StrengthThreshold:       0.4,
		HighStockDays:           60,
		LowSeasonIndex:          0.7,
		LossPerDayThreshold:     150,
		MinDaysForUrgency:       2,
	}}

	opts := cfg.PipelineOptions()

	assert.Equal(t, domain.PipelineOptions{
		FeeGSTRate:              0.12,
		MinARIMAHistoryDays:     45,
		ForecastHorizonDays:     14,
		WMAWindowDays:           10,
		MinVelocity:             0.5,
		LeadTimeBufferDays:      3,
		DemandUncertaintyFactor: 1.5,
		SeasonalPeriodMonths:    6,
		MinSeasonalMonths:       2,
		MinSARIMAMonths:         18,
		TrendDelta:              0.2,
		StrengthThreshold:       0.4,
		HighStockDays:           60,
		LowSeasonIndex:          0.7,
		LossPerDayThreshold:     150,
		MinDaysForUrgency:       2,
	}, opts)
}

func TestLoadReadsSeasonalKnobsFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MS_APP_DATA_DIR", dir)
	t.Setenv("MS_APP_OUTPUT_DIR", dir)
	t.Setenv("MS_SEASONAL_PERIOD", "4")
	t.Setenv("MS_MIN_SEASONAL_MONTHS", "5")
	t.Setenv("MS_MIN_SARIMA_MONTHS", "16")
	t.Setenv("MS_TREND_DELTA", "0.25")
	t.Setenv("MS_STRENGTH_THRESHOLD", "0.45")
	t.Setenv("MS_HIGH_STOCK_DAYS", "90")
	t.Setenv("MS_LOW_SEASON_INDEX", "0.6")

	cfg := Load()
	require.NotNil(t, cfg)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 4, opts.SeasonalPeriodMonths)
	assert.Equal(t, 5, opts.MinSeasonalMonths)
	assert.Equal(t, 16, opts.MinSARIMAMonths)
	assert.InDelta(t, 0.25, opts.TrendDelta, 1e-9)
	assert.InDelta(t, 0.45, opts.StrengthThreshold, 1e-9)
	assert.InDelta(t, 90, opts.HighStockDays, 1e-9)
	assert.InDelta(t, 0.6, opts.LowSeasonIndex, 1e-9)

	// Unset knobs keep the stock defaults.
	defaults := domain.DefaultPipelineOptions()
	assert.InDelta(t, defaults.FeeGSTRate, opts.FeeGSTRate, 1e-9)
	assert.Equal(t, defaults.MinARIMAHistoryDays, opts.MinARIMAHistoryDays)
}
