// Package pipeline orchestrates the four analytical stages over the two
// input tables and returns the ranked recommendation table.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/domain"
	"github.com/merchsignal/backend/internal/pipeline/inventory"
	"github.com/merchsignal/backend/internal/pipeline/profit"
	"github.com/merchsignal/backend/internal/pipeline/seasonal"
	"github.com/merchsignal/backend/internal/pipeline/strategy"
)

// Annotator decorates rows with text insights after the numeric stages have
// finished. Implementations must only write annotation fields.
type Annotator interface {
	Annotate(ctx context.Context, recs []*domain.Recommendation) error
}

// Pipeline wires the four stages. One Run processes the whole SKU set to
// completion; re-running on identical inputs yields identical output.
type Pipeline struct {
	opts      domain.PipelineOptions
	profit    *profit.Calculator
	inventory *inventory.Sentinel
	seasonal  *seasonal.Analyst
	strategy  *strategy.Supervisor
	annotator Annotator // optional
}

func New(opts domain.PipelineOptions) *Pipeline {
	return &Pipeline{
		opts:      opts,
		profit:    profit.NewCalculator(opts.FeeGSTRate),
		inventory: inventory.NewSentinel(opts),
		seasonal:  seasonal.NewAnalyst(opts),
		strategy:  strategy.NewSupervisor(opts),
	}
}

// WithAnnotator attaches an optional insight annotator.
func (p *Pipeline) WithAnnotator(a Annotator) *Pipeline {
	p.annotator = a
	return p
}

// WithInventorySentinel swaps the stage-2 forecaster wiring (used when the
// model path must be disabled explicitly).
func (p *Pipeline) WithInventorySentinel(s *inventory.Sentinel) *Pipeline {
	p.inventory = s
	return p
}

// Run validates the inputs, executes the stages in order and returns one
// row per master SKU, ranked by impact score. asOf fixes the calendar month
// used by the seasonal stage.
func (p *Pipeline) Run(ctx context.Context, master []domain.MasterRecord, sales []domain.SalesRecord, asOf time.Time) ([]*domain.Recommendation, error) {
	start := time.Now()

	if err := ValidateMaster(master); err != nil {
		return nil, err
	}

	salesBySKU := groupSales(sales)
	seriesBySKU := make(map[string][]float64, len(salesBySKU))
	for sku, records := range salesBySKU {
		series := make([]float64, len(records))
		for i, r := range records {
			series[i] = float64(r.UnitsSold)
		}
		seriesBySKU[sku] = series
	}

	recs := make([]*domain.Recommendation, len(master))
	for i := range master {
		m := &master[i]
		recs[i] = &domain.Recommendation{
			SKUID:        m.SKUID,
			Category:     m.Category,
			ProductName:  m.ProductName,
			SellingPrice: m.SellingPrice,
			COGS:         m.COGS,
			CurrentStock: m.CurrentStock,
			LeadTimeDays: m.LeadTimeDays,
		}
	}

	stageStart := time.Now()
	for i := range master {
		p.profit.Apply(&master[i], recs[i])
	}
	log.Info().Dur("elapsed", time.Since(stageStart)).Int("skus", len(recs)).Msg("profitability stage complete")

	stageStart = time.Now()
	if err := p.inventory.Apply(ctx, recs, seriesBySKU); err != nil {
		return nil, fmt.Errorf("inventory stage: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(stageStart)).Msg("inventory risk stage complete")

	stageStart = time.Now()
	if err := p.seasonal.Apply(ctx, recs, salesBySKU, asOf); err != nil {
		return nil, fmt.Errorf("seasonal stage: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(stageStart)).Msg("seasonal stage complete")

	stageStart = time.Now()
	p.strategy.Apply(recs)
	log.Info().Dur("elapsed", time.Since(stageStart)).Msg("ranking stage complete")

	if p.annotator != nil {
		if err := p.annotator.Annotate(ctx, recs); err != nil {
			// Annotation is decoration; the numeric table stands either way.
			log.Warn().Err(err).Msg("insight annotation failed")
		}
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("skus", len(recs)).
		Msg("pipeline run complete")
	return recs, nil
}

// ValidateMaster enforces the fatal input class: required fields present
// and sku_id unique. Violations abort the run before any stage executes.
func ValidateMaster(master []domain.MasterRecord) error {
	seen := make(map[string]struct{}, len(master))
	for i := range master {
		m := &master[i]
		if m.SKUID == "" {
			return fmt.Errorf("master row %d: missing sku_id", i)
		}
		if _, dup := seen[m.SKUID]; dup {
			return fmt.Errorf("master table: duplicate sku_id %q", m.SKUID)
		}
		seen[m.SKUID] = struct{}{}

		if m.SellingPrice <= 0 {
			return fmt.Errorf("master sku %s: missing or non-positive selling_price", m.SKUID)
		}
		if m.COGS < 0 {
			return fmt.Errorf("master sku %s: negative cogs", m.SKUID)
		}
		if m.CurrentStock < 0 {
			return fmt.Errorf("master sku %s: negative current_stock", m.SKUID)
		}
		if m.LeadTimeDays < 0 {
			return fmt.Errorf("master sku %s: negative lead_time_days", m.SKUID)
		}
	}
	return nil
}

// groupSales buckets sales rows per SKU, sums duplicate (sku_id, date)
// observations (upstream sources may emit one row per order line) and
// orders each series by date.
func groupSales(sales []domain.SalesRecord) map[string][]domain.SalesRecord {
	type key struct {
		sku  string
		date time.Time
	}
	sums := make(map[key]int)
	for _, s := range sales {
		day := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
		sums[key{s.SKUID, day}] += s.UnitsSold
	}

	grouped := make(map[string][]domain.SalesRecord)
	for k, units := range sums {
		grouped[k.sku] = append(grouped[k.sku], domain.SalesRecord{
			SKUID:     k.sku,
			Date:      k.date,
			UnitsSold: units,
		})
	}
	for sku := range grouped {
		records := grouped[sku]
		sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
		grouped[sku] = records
	}
	return grouped
}
