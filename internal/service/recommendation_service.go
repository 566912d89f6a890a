package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/cache"
	"github.com/merchsignal/backend/internal/domain"
	"github.com/merchsignal/backend/internal/ingest"
	"github.com/merchsignal/backend/internal/pipeline"
	"github.com/merchsignal/backend/internal/repository/postgres"
	"github.com/merchsignal/backend/internal/state"
	"github.com/merchsignal/backend/internal/storefront"
)

// RecommendationService runs the analysis pipeline and serves its results.
// The in-memory state is the source of truth for reads; the repository is
// an optional audit trail and the cache an optional read accelerator.
type RecommendationService struct {
	pipeline   *pipeline.Pipeline
	appState   *state.AppState
	repo       *postgres.RecommendationRepository // nil when DB persistence is off
	cache      cache.RecommendationCache
	storefront *storefront.Client // nil when no shop is configured

	defaultMasterPath string
	defaultSalesPath  string
}

func NewRecommendationService(p *pipeline.Pipeline, appState *state.AppState, repo *postgres.RecommendationRepository, c cache.RecommendationCache, sf *storefront.Client) *RecommendationService {
	if c == nil {
		c = cache.NewNoopRecommendationCache()
	}
	return &RecommendationService{
		pipeline:   p,
		appState:   appState,
		repo:       repo,
		cache:      c,
		storefront: sf,
	}
}

// WithDefaultInputs sets the CSV paths used when a run request names none.
func (s *RecommendationService) WithDefaultInputs(masterPath, salesPath string) *RecommendationService {
	s.defaultMasterPath = masterPath
	s.defaultSalesPath = salesPath
	return s
}

// RunFromFiles loads both CSV inputs and executes the pipeline. Empty paths
// fall back to the configured defaults.
func (s *RecommendationService) RunFromFiles(ctx context.Context, masterPath, salesPath string) error {
	if masterPath == "" {
		masterPath = s.defaultMasterPath
	}
	if salesPath == "" {
		salesPath = s.defaultSalesPath
	}
	master, err := ingest.LoadMasterCSV(masterPath)
	if err != nil {
		return err
	}
	sales, err := ingest.LoadSalesCSV(salesPath)
	if err != nil {
		return err
	}
	return s.run(ctx, master, sales, "csv")
}

// RunFromStorefront pulls live shop data and executes the pipeline.
func (s *RecommendationService) RunFromStorefront(ctx context.Context) error {
	if s.storefront == nil {
		return fmt.Errorf("no storefront configured")
	}
	master, sales, err := s.storefront.FetchTables(ctx, time.Now())
	if err != nil {
		return err
	}
	return s.run(ctx, master, sales, "shopify")
}

func (s *RecommendationService) run(ctx context.Context, master []domain.MasterRecord, sales []domain.SalesRecord, source string) error {
	if !s.appState.BeginRun() {
		return fmt.Errorf("a pipeline run is already in progress")
	}

	asOf := time.Now()
	recs, err := s.pipeline.Run(ctx, master, sales, asOf)
	if err != nil {
		s.appState.FailRun(err)
		return err
	}

	s.appState.CompleteRun(recs, source)
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}

	if s.repo != nil {
		runID, err := s.repo.SaveRun(ctx, source, asOf, recs)
		if err != nil {
			// Persistence is an audit trail; the run itself succeeded.
			log.Error().Err(err).Msg("failed to persist pipeline run")
		} else {
			log.Info().Int64("run_id", runID).Msg("pipeline run persisted")
		}
	}
	return nil
}

// Query filters the current table. Results keep the ranked order.
func (s *RecommendationService) Query(ctx context.Context, filter cache.RecommendationFilter) ([]*domain.Recommendation, error) {
	if recs, hit, err := s.cache.Get(ctx, filter); err == nil && hit {
		return recs, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("recommendation cache read failed")
	}

	all := s.appState.Recommendations()
	if all == nil {
		return nil, fmt.Errorf("no analysis available yet, trigger a run first")
	}

	var out []*domain.Recommendation
	for _, rec := range all {
		if filter.RiskLevel != "" && !strings.EqualFold(string(rec.RiskLevel), filter.RiskLevel) {
			continue
		}
		if filter.Action != "" && !strings.EqualFold(string(rec.RecommendedAction), filter.Action) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(rec.Category, filter.Category) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}

	if err := s.cache.Set(ctx, filter, out); err != nil {
		log.Warn().Err(err).Msg("recommendation cache write failed")
	}
	return out, nil
}

// BySKU returns one row.
func (s *RecommendationService) BySKU(skuID string) (*domain.Recommendation, bool) {
	return s.appState.BySKU(skuID)
}

// MetricsSummary is the portfolio-level rollup for dashboards.
type MetricsSummary struct {
	TotalSKUs         int     `json:"total_skus"`
	LossMakers        int     `json:"loss_makers"`
	CriticalRisk      int     `json:"critical_risk"`
	WarningRisk       int     `json:"warning_risk"`
	NoHistory         int     `json:"no_history"`
	SeasonalRisks     int     `json:"seasonal_risks"`
	TotalProfitAtRisk float64 `json:"total_profit_at_risk"`
	TotalLossPerDay   float64 `json:"total_loss_per_day"`
	TotalReorderUnits float64 `json:"total_reorder_units"`
	DataSource        string  `json:"data_source"`
	LastRunAt         string  `json:"last_run_at,omitempty"`
}

// Summary computes the rollup over the current table.
func (s *RecommendationService) Summary() (MetricsSummary, error) {
	recs, _, source, lastRun := s.appState.Snapshot()
	if recs == nil {
		return MetricsSummary{}, fmt.Errorf("no analysis available yet, trigger a run first")
	}

	sum := MetricsSummary{TotalSKUs: len(recs), DataSource: source}
	if !lastRun.IsZero() {
		sum.LastRunAt = lastRun.Format(time.RFC3339)
	}
	for _, rec := range recs {
		if rec.IsLossMaker {
			sum.LossMakers++
		}
		switch rec.RiskLevel {
		case domain.RiskCritical:
			sum.CriticalRisk++
		case domain.RiskWarning:
			sum.WarningRisk++
		case domain.RiskNoHistory:
			sum.NoHistory++
		}
		if rec.SeasonalRiskFlag {
			sum.SeasonalRisks++
		}
		sum.TotalProfitAtRisk += rec.ProfitAtRisk
		sum.TotalLossPerDay += rec.LossPerDay
		sum.TotalReorderUnits += rec.ReorderQtySuggested
	}
	return sum, nil
}

// SeasonalRisks returns rows with the seasonal timing flag set.
func (s *RecommendationService) SeasonalRisks() ([]*domain.Recommendation, error) {
	all := s.appState.Recommendations()
	if all == nil {
		return nil, fmt.Errorf("no analysis available yet, trigger a run first")
	}
	var out []*domain.Recommendation
	for _, rec := range all {
		if rec.SeasonalRiskFlag {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Status exposes the run lifecycle for polling clients.
func (s *RecommendationService) Status() (state.RunStatus, string) {
	return s.appState.Status()
}
