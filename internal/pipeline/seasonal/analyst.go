// Package seasonal implements the third pipeline stage: calendar-month
// demand cyclicality per SKU and the seasonal timing risk flag.
package seasonal

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/merchsignal/backend/internal/domain"
	"github.com/merchsignal/backend/internal/forecast"
)

// MonthBucket is one calendar month of aggregated sales.
type MonthBucket struct {
	Year  int
	Month int // 1-12
	Units float64
}

// AggregateMonthly sums a SKU's daily sales into ordered year-month buckets.
func AggregateMonthly(sales []domain.SalesRecord) []MonthBucket {
	type key struct{ year, month int }
	sums := make(map[key]float64)
	for _, s := range sales {
		k := key{s.Date.Year(), int(s.Date.Month())}
		sums[k] += float64(s.UnitsSold)
	}

	buckets := make([]MonthBucket, 0, len(sums))
	for k, units := range sums {
		buckets = append(buckets, MonthBucket{Year: k.year, Month: k.month, Units: units})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Month < buckets[j].Month
	})
	return buckets
}

// Analyst computes the stage-3 column group.
type Analyst struct {
	opts domain.PipelineOptions
}

func NewAnalyst(opts domain.PipelineOptions) *Analyst {
	return &Analyst{opts: opts}
}

// Apply fills stage-3 columns on every row. asOf fixes the "current month"
// so runs are reproducible. SKUs with fewer than the configured minimum of
// monthly buckets keep neutral defaults; that is sparsity, not an error.
func (a *Analyst) Apply(ctx context.Context, recs []*domain.Recommendation, salesBySKU map[string][]domain.SalesRecord, asOf time.Time) error {
	currentMonth := int(asOf.Month())
	nextMonth := currentMonth%12 + 1

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
			a.applyOne(rec, salesBySKU[rec.SKUID], currentMonth, nextMonth)
			return nil
		})
	}
	return g.Wait()
}

func (a *Analyst) applyOne(rec *domain.Recommendation, sales []domain.SalesRecord, currentMonth, nextMonth int) {
	// Neutral defaults stand until enough signal exists.
	rec.SeasonalIndexCurrent = 1.0
	rec.SeasonalIndexNext = 1.0
	rec.SeasonalTrend = domain.TrendStable
	rec.SeasonalityStrength = 0
	rec.SeasonalForecast = 0
	rec.SeasonalRiskFlag = false

	buckets := AggregateMonthly(sales)
	if len(buckets) < a.opts.MinSeasonalMonths {
		return
	}

	indices := seasonalIndices(buckets)
	rec.SeasonalIndexCurrent = indices[currentMonth]
	rec.SeasonalIndexNext = indices[nextMonth]

	peak, trough := peakAndTrough(indices)
	rec.PeakMonth = domain.MonthName(peak)
	rec.TroughMonth = domain.MonthName(trough)
	rec.SeasonalTrend = a.trend(indices, currentMonth)

	if len(buckets) >= a.opts.MinSARIMAMonths {
		a.fitSeasonalModel(rec, buckets)
	}

	// High stock entering a low-demand month on a profitable SKU.
	if rec.DaysOfStockLeft > a.opts.HighStockDays &&
		rec.SeasonalIndexNext < a.opts.LowSeasonIndex &&
		rec.ProfitPerUnit > 0 {
		rec.SeasonalRiskFlag = true
	}
}

// seasonalIndices computes the ratio of each calendar month's average
// demand to the overall monthly average. Months without observations stay
// at the neutral 1.0.
func seasonalIndices(buckets []MonthBucket) map[int]float64 {
	indices := make(map[int]float64, 12)
	for m := 1; m <= 12; m++ {
		indices[m] = 1.0
	}

	var total float64
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, b := range buckets {
		total += b.Units
		sums[b.Month] += b.Units
		counts[b.Month]++
	}

	overallMean := total / float64(len(buckets))
	if overallMean == 0 {
		return indices
	}

	for m := 1; m <= 12; m++ {
		if counts[m] > 0 {
			indices[m] = (sums[m] / float64(counts[m])) / overallMean
		}
	}
	return indices
}

// peakAndTrough picks the highest- and lowest-index months; ties resolve to
// the earliest calendar month.
func peakAndTrough(indices map[int]float64) (peak, trough int) {
	peak, trough = 1, 1
	for m := 2; m <= 12; m++ {
		if indices[m] > indices[peak] {
			peak = m
		}
		if indices[m] < indices[trough] {
			trough = m
		}
	}
	return peak, trough
}

func (a *Analyst) trend(indices map[int]float64, currentMonth int) domain.SeasonalTrend {
	nextMonth := currentMonth%12 + 1
	diff := indices[nextMonth] - indices[currentMonth]
	switch {
	case diff > a.opts.TrendDelta:
		return domain.TrendRising
	case diff < -a.opts.TrendDelta:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

// fitSeasonalModel computes seasonality strength from the multiplicative
// decomposition and a one-step unit forecast from the seasonal ARMA. Fit
// failures leave the neutral values in place.
func (a *Analyst) fitSeasonalModel(rec *domain.Recommendation, buckets []MonthBucket) {
	series := make([]float64, len(buckets))
	for i, b := range buckets {
		series[i] = b.Units
	}

	period := a.opts.SeasonalPeriodMonths
	if half := len(series) / 2; period > half {
		period = half
	}
	if period < 2 {
		return
	}

	if decomp, err := forecast.DecomposeMultiplicative(series, period); err == nil {
		rec.SeasonalityStrength = decomp.Strength
	} else {
		log.Debug().Err(err).Str("sku_id", rec.SKUID).Msg("seasonal decomposition failed")
	}

	if next, err := forecast.SeasonalForecast(series, period); err == nil {
		rec.SeasonalForecast = next
	} else {
		log.Debug().Err(err).Str("sku_id", rec.SKUID).Msg("seasonal model fit failed")
	}
}
