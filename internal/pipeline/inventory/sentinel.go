// Package inventory implements the second pipeline stage: demand velocity
// forecasting, stock-out risk classification, reorder sizing and
// profit-at-risk.
package inventory

import (
	"context"
	"math"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/merchsignal/backend/internal/domain"
)

// Sentinel computes the stage-2 column group. Per-SKU model fits are
// independent and run on a bounded worker pool; results do not depend on
// execution order.
type Sentinel struct {
	opts     domain.PipelineOptions
	primary  VelocityForecaster // nil when the model path is unavailable
	fallback VelocityForecaster
}

// NewSentinel creates the stage with the default two-tier forecaster:
// ARIMA primary, weighted moving average fallback.
func NewSentinel(opts domain.PipelineOptions) *Sentinel {
	return &Sentinel{
		opts:     opts,
		primary:  ModelForecaster{HorizonDays: opts.ForecastHorizonDays},
		fallback: AverageForecaster{WindowDays: opts.WMAWindowDays},
	}
}

// NewSentinelWithForecasters wires explicit strategies; primary may be nil
// to force the fallback path (model library unavailable in the runtime).
func NewSentinelWithForecasters(opts domain.PipelineOptions, primary, fallback VelocityForecaster) *Sentinel {
	return &Sentinel{opts: opts, primary: primary, fallback: fallback}
}

// Apply fills stage-2 columns on every row. salesBySKU maps sku_id to its
// ordered daily units series (one entry per observed day).
func (s *Sentinel) Apply(ctx context.Context, recs []*domain.Recommendation, salesBySKU map[string][]float64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.applyOne(rec, salesBySKU[rec.SKUID])
			return nil
		})
	}
	return g.Wait()
}

func (s *Sentinel) applyOne(rec *domain.Recommendation, series []float64) {
	raw := s.forecastVelocity(rec.SKUID, series)

	// Floor the velocity to keep downstream divisions bounded. A raw
	// forecast at or below the floor marks the SKU as having no usable
	// history signal.
	noHistory := raw <= s.opts.MinVelocity
	velocity := math.Max(raw, s.opts.MinVelocity)
	rec.SalesVelocityPerDay = velocity

	if noHistory {
		rec.DaysOfStockLeft = math.Inf(1)
	} else {
		rec.DaysOfStockLeft = float64(rec.CurrentStock) / velocity
	}

	rec.RiskLevel = s.classify(rec.DaysOfStockLeft, float64(rec.LeadTimeDays), noHistory)

	// Reorder only profitable SKUs that are actually at risk.
	atRisk := rec.RiskLevel == domain.RiskCritical || rec.RiskLevel == domain.RiskWarning
	if atRisk && rec.ProfitPerUnit > 0 {
		rec.ReorderQtySuggested = velocity * float64(rec.LeadTimeDays) * s.opts.DemandUncertaintyFactor
	} else {
		rec.ReorderQtySuggested = 0
	}

	// An infinite runway carries zero urgency, not infinite exposure.
	if math.IsInf(rec.DaysOfStockLeft, 1) {
		rec.ProfitAtRisk = 0
	} else {
		rec.ProfitAtRisk = math.Max(rec.ProfitPerUnit, 0) * velocity * rec.DaysOfStockLeft
	}
}

// forecastVelocity runs the two-tier strategy: the model when history is
// long enough, the weighted average whenever the model is unavailable,
// fails, or yields a non-positive velocity.
func (s *Sentinel) forecastVelocity(skuID string, series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	if s.primary != nil && len(series) >= s.opts.MinARIMAHistoryDays {
		v, err := s.primary.ForecastVelocity(series)
		if err == nil && v > 0 {
			return v
		}
		if err != nil {
			log.Debug().Err(err).Str("sku_id", skuID).Msg("velocity model fit failed, using weighted average")
		}
	}

	v, _ := s.fallback.ForecastVelocity(series)
	return v
}

// classify runs the ordered boundary checks; NO_HISTORY overrides the
// numeric tiers.
func (s *Sentinel) classify(daysLeft, leadTime float64, noHistory bool) domain.RiskLevel {
	if noHistory {
		return domain.RiskNoHistory
	}
	switch {
	case daysLeft <= leadTime:
		return domain.RiskCritical
	case daysLeft <= leadTime+float64(s.opts.LeadTimeBufferDays):
		return domain.RiskWarning
	default:
		return domain.RiskSafe
	}
}
