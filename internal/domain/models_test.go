package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysOfStockLeftSerialized(t *testing.T) {
	finite := Recommendation{DaysOfStockLeft: 12.5}
	assert.False(t, finite.HasUnlimitedRunway())
	assert.InDelta(t, 12.5, finite.DaysOfStockLeftSerialized(), 1e-9)

	unlimited := Recommendation{DaysOfStockLeft: math.Inf(1)}
	assert.True(t, unlimited.HasUnlimitedRunway())
	assert.InDelta(t, UnlimitedRunwayWireValue, unlimited.DaysOfStockLeftSerialized(), 1e-9)
}

func TestRecommendationMarshalJSON(t *testing.T) {
	rec := Recommendation{
		SKUID:           "SKU-1",
		DaysOfStockLeft: math.Inf(1),
		RiskLevel:       RiskNoHistory,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(UnlimitedRunwayWireValue), decoded["days_of_stock_left"])
	assert.Equal(t, "NO_HISTORY", decoded["risk_level"])

	// Annotation fields are omitted when empty.
	assert.NotContains(t, decoded, "llm_seasonal_insight")
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Empty(t, MonthName(0))
	assert.Empty(t, MonthName(13))
}

func TestRiskLevelSeverity(t *testing.T) {
	assert.Greater(t, RiskCritical.Severity(), RiskWarning.Severity())
	assert.Greater(t, RiskWarning.Severity(), RiskSafe.Severity())
	assert.Greater(t, RiskSafe.Severity(), RiskNoHistory.Severity())
}
