// Package strategy implements the final pipeline stage: one scalar impact
// score and one recommended action per SKU, then a total order over the
// whole table.
package strategy

import (
	"math"
	"sort"

	"github.com/merchsignal/backend/internal/domain"
)

// Supervisor computes the stage-4 column group and sorts the table.
type Supervisor struct {
	opts domain.PipelineOptions
}

func NewSupervisor(opts domain.PipelineOptions) *Supervisor {
	return &Supervisor{opts: opts}
}

// Apply scores every row and stable-sorts by descending impact score, so
// rows with equal scores keep their original input order.
func (s *Supervisor) Apply(recs []*domain.Recommendation) {
	for _, rec := range recs {
		rec.ImpactScore = s.impactScore(rec)
		rec.RecommendedAction = s.recommend(rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ImpactScore > recs[j].ImpactScore
	})
}

// impactScore blends at-risk profit and daily loss, normalized by remaining
// runway. Zero or infinite runway substitutes the configured urgency floor
// so the score neither blows up nor collapses.
func (s *Supervisor) impactScore(rec *domain.Recommendation) float64 {
	effectiveDays := rec.DaysOfStockLeft
	if effectiveDays == 0 || math.IsInf(effectiveDays, 1) {
		effectiveDays = s.opts.MinDaysForUrgency
	}
	return (rec.ProfitAtRisk + rec.LossPerDay) / effectiveDays
}

// recommend evaluates the action rules top to bottom and stops at the first
// match. The daily-loss bleed check outranks everything, including critical
// stock risk; the threshold comparison is strictly greater-than.
func (s *Supervisor) recommend(rec *domain.Recommendation) domain.Action {
	profitable := rec.ProfitPerUnit > 0
	switch {
	case rec.LossPerDay > s.opts.LossPerDayThreshold:
		return domain.ActionPauseAdsOrIncreasePrice
	case rec.RiskLevel == domain.RiskCritical && profitable:
		return domain.ActionReorderImmediately
	case rec.RiskLevel == domain.RiskWarning && profitable:
		return domain.ActionPlanReorder
	case rec.RiskLevel == domain.RiskSafe && profitable &&
		rec.SalesVelocityPerDay < 1.0 && rec.CurrentStock > 100:
		return domain.ActionDiscountToMoveStock
	default:
		return domain.ActionMonitor
	}
}
