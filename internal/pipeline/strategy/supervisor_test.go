package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/merchsignal/backend/internal/domain"
)

func TestRecommendActionOrder(t *testing.T) {
	opts := domain.DefaultPipelineOptions() // loss threshold 200
	s := NewSupervisor(opts)

	tests := []struct {
		name string
		rec  domain.Recommendation
		want domain.Action
	}{
		{
			name: "heavy bleed outranks critical stock",
			rec:  domain.Recommendation{LossPerDay: 250, RiskLevel: domain.RiskCritical, ProfitPerUnit: 10},
			want: domain.ActionPauseAdsOrIncreasePrice,
		},
		{
			name: "loss exactly at threshold does not pause",
			rec:  domain.Recommendation{LossPerDay: 200, RiskLevel: domain.RiskSafe, ProfitPerUnit: -3},
			want: domain.ActionMonitor,
		},
		{
			name: "critical and profitable reorders now",
			rec:  domain.Recommendation{RiskLevel: domain.RiskCritical, ProfitPerUnit: 10},
			want: domain.ActionReorderImmediately,
		},
		{
			name: "warning and profitable plans a reorder",
			rec:  domain.Recommendation{RiskLevel: domain.RiskWarning, ProfitPerUnit: 10},
			want: domain.ActionPlanReorder,
		},
		{
			name: "critical loss maker only monitors",
			rec:  domain.Recommendation{RiskLevel: domain.RiskCritical, ProfitPerUnit: -2},
			want: domain.ActionMonitor,
		},
		{
			name: "slow mover with deep stock discounts",
			rec:  domain.Recommendation{RiskLevel: domain.RiskSafe, ProfitPerUnit: 5, SalesVelocityPerDay: 0.4, CurrentStock: 150},
			want: domain.ActionDiscountToMoveStock,
		},
		{
			name: "slow mover at stock boundary monitors",
			rec:  domain.Recommendation{RiskLevel: domain.RiskSafe, ProfitPerUnit: 5, SalesVelocityPerDay: 0.4, CurrentStock: 100},
			want: domain.ActionMonitor,
		},
		{
			name: "no history monitors",
			rec:  domain.Recommendation{RiskLevel: domain.RiskNoHistory, ProfitPerUnit: 5},
			want: domain.ActionMonitor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.recommend(&tt.rec))
		})
	}
}

func TestImpactScore(t *testing.T) {
	opts := domain.DefaultPipelineOptions() // urgency floor 1 day
	s := NewSupervisor(opts)

	tests := []struct {
		name string
		rec  domain.Recommendation
		want float64
	}{
		{
			name: "normalized by runway",
			rec:  domain.Recommendation{ProfitAtRisk: 500, LossPerDay: 100, DaysOfStockLeft: 5},
			want: 120,
		},
		{
			name: "zero runway uses urgency floor",
			rec:  domain.Recommendation{ProfitAtRisk: 500, LossPerDay: 100, DaysOfStockLeft: 0},
			want: 600,
		},
		{
			name: "infinite runway uses urgency floor",
			rec:  domain.Recommendation{ProfitAtRisk: 0, LossPerDay: 100, DaysOfStockLeft: math.Inf(1)},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.impactScore(&tt.rec), 1e-9)
		})
	}
}

func TestApplySortsDescendingAndStable(t *testing.T) {
	opts := domain.DefaultPipelineOptions()
	s := NewSupervisor(opts)

	recs := []*domain.Recommendation{
		{SKUID: "low", ProfitAtRisk: 10, DaysOfStockLeft: 10},
		{SKUID: "tie-first", ProfitAtRisk: 100, DaysOfStockLeft: 2},
		{SKUID: "high", ProfitAtRisk: 900, DaysOfStockLeft: 3},
		{SKUID: "tie-second", ProfitAtRisk: 50, DaysOfStockLeft: 1},
	}

	s.Apply(recs)

	var order []string
	for _, r := range recs {
		order = append(order, r.SKUID)
	}
	// Equal 50.0 scores keep their input order.
	assert.Equal(t, []string{"high", "tie-first", "tie-second", "low"}, order)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].ImpactScore, recs[i].ImpactScore)
	}
}
