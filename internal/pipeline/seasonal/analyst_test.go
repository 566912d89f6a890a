package seasonal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/domain"
)

func monthlySale(sku string, year int, month time.Month, units int) domain.SalesRecord {
	return domain.SalesRecord{
		SKUID:     sku,
		Date:      time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		UnitsSold: units,
	}
}

func TestAggregateMonthly(t *testing.T) {
	sales := []domain.SalesRecord{
		monthlySale("A", 2025, time.March, 5),
		{SKUID: "A", Date: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC), UnitsSold: 7},
		monthlySale("A", 2025, time.January, 3),
		monthlySale("A", 2024, time.December, 9),
	}

	buckets := AggregateMonthly(sales)

	require.Len(t, buckets, 3)
	assert.Equal(t, MonthBucket{Year: 2024, Month: 12, Units: 9}, buckets[0])
	assert.Equal(t, MonthBucket{Year: 2025, Month: 1, Units: 3}, buckets[1])
	assert.Equal(t, MonthBucket{Year: 2025, Month: 3, Units: 12}, buckets[2])
}

func TestApplySparseHistoryKeepsNeutralDefaults(t *testing.T) {
	opts := domain.DefaultPipelineOptions()
	a := NewAnalyst(opts)

	rec := &domain.Recommendation{SKUID: "A"}
	sales := map[string][]domain.SalesRecord{"A": {
		monthlySale("A", 2025, time.June, 10),
		monthlySale("A", 2025, time.July, 12),
	}}

	require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, sales, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)))

	assert.InDelta(t, 1.0, rec.SeasonalIndexCurrent, 1e-9)
	assert.InDelta(t, 1.0, rec.SeasonalIndexNext, 1e-9)
	assert.Equal(t, domain.TrendStable, rec.SeasonalTrend)
	assert.Zero(t, rec.SeasonalityStrength)
	assert.False(t, rec.SeasonalRiskFlag)
}

func TestApplyRisingPeakMonth(t *testing.T) {
	opts := domain.DefaultPipelineOptions()
	a := NewAnalyst(opts)

	rec := &domain.Recommendation{SKUID: "A"}
	sales := map[string][]domain.SalesRecord{"A": {
		monthlySale("A", 2024, time.October, 10),
		monthlySale("A", 2024, time.November, 40),
		monthlySale("A", 2024, time.December, 10),
	}}
	asOf := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, sales, asOf))

	// Overall monthly mean is 20, so November indexes at exactly 2.0.
	assert.InDelta(t, 0.5, rec.SeasonalIndexCurrent, 1e-9)
	assert.InDelta(t, 2.0, rec.SeasonalIndexNext, 1e-9)
	assert.Equal(t, domain.TrendRising, rec.SeasonalTrend)
	assert.Equal(t, "November", rec.PeakMonth)
	assert.Equal(t, "October", rec.TroughMonth)
}

func TestApplySeasonalRiskFlag(t *testing.T) {
	opts := domain.DefaultPipelineOptions()
	a := NewAnalyst(opts)

	history := []domain.SalesRecord{
		monthlySale("A", 2025, time.January, 30),
		monthlySale("A", 2025, time.February, 30),
		monthlySale("A", 2025, time.March, 6),
	}
	asOf := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	t.Run("flagged when overstocked into a trough", func(t *testing.T) {
		rec := &domain.Recommendation{SKUID: "A", DaysOfStockLeft: 60, ProfitPerUnit: 5}
		require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, map[string][]domain.SalesRecord{"A": history}, asOf))
		assert.Less(t, rec.SeasonalIndexNext, opts.LowSeasonIndex)
		assert.True(t, rec.SeasonalRiskFlag)
		assert.Equal(t, domain.TrendFalling, rec.SeasonalTrend)
	})

	t.Run("not flagged on a loss maker", func(t *testing.T) {
		rec := &domain.Recommendation{SKUID: "A", DaysOfStockLeft: 60, ProfitPerUnit: -2}
		require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, map[string][]domain.SalesRecord{"A": history}, asOf))
		assert.False(t, rec.SeasonalRiskFlag)
	})

	t.Run("not flagged with lean stock", func(t *testing.T) {
		rec := &domain.Recommendation{SKUID: "A", DaysOfStockLeft: 20, ProfitPerUnit: 5}
		require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, map[string][]domain.SalesRecord{"A": history}, asOf))
		assert.False(t, rec.SeasonalRiskFlag)
	})
}

func TestApplyLongHistoryFitsSeasonalModel(t *testing.T) {
	opts := domain.DefaultPipelineOptions()
	a := NewAnalyst(opts)

	// Two years of a strongly repeating annual cycle.
	pattern := []int{20, 20, 25, 30, 40, 60, 80, 80, 60, 40, 30, 25}
	var history []domain.SalesRecord
	for year := 2024; year <= 2025; year++ {
		for m := 0; m < 12; m++ {
			history = append(history, monthlySale("A", year, time.Month(m+1), pattern[m]))
		}
	}

	rec := &domain.Recommendation{SKUID: "A"}
	asOf := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.Apply(context.Background(), []*domain.Recommendation{rec}, map[string][]domain.SalesRecord{"A": history}, asOf))

	assert.GreaterOrEqual(t, rec.SeasonalityStrength, 0.0)
	assert.LessOrEqual(t, rec.SeasonalityStrength, 1.0)
	// A clean repeating cycle is dominated by its seasonal component.
	assert.Greater(t, rec.SeasonalityStrength, 0.5)
	assert.Equal(t, "July", rec.PeakMonth)
}
