package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/ads"
	"github.com/merchsignal/backend/internal/repository/postgres"
)

// AdsService wraps the campaign gateway and analyzer, with optional DB
// persistence for the campaign table.
type AdsService struct {
	gateway  *ads.Gateway
	analyzer *ads.Analyzer
	repo     *postgres.CampaignRepository // nil when DB persistence is off
}

func NewAdsService(gateway *ads.Gateway, analyzer *ads.Analyzer, repo *postgres.CampaignRepository) *AdsService {
	return &AdsService{gateway: gateway, analyzer: analyzer, repo: repo}
}

// Campaigns lists campaigns matching the optional filters.
func (s *AdsService) Campaigns(skuID, platform, status string) []ads.Campaign {
	return s.gateway.Campaigns(skuID, platform, status)
}

// Summary rolls the campaign table up.
func (s *AdsService) Summary() ads.Summary {
	return s.gateway.Summarize()
}

// AnalysisReport bundles the optimization views served by the API.
type AnalysisReport struct {
	Summary         ads.Summary                   `json:"summary"`
	Underperformers []ads.UnderperformingCampaign `json:"underperformers"`
	Analyses        []ads.CampaignAnalysis        `json:"analyses"`
}

// Analyze grades every campaign and flags underperformers.
func (s *AdsService) Analyze() AnalysisReport {
	campaigns := s.gateway.Campaigns("", "", "")
	report := AnalysisReport{
		Summary:         s.gateway.Summarize(),
		Underperformers: s.analyzer.IdentifyUnderperformers(campaigns),
	}
	for _, c := range campaigns {
		report.Analyses = append(report.Analyses, s.analyzer.AnalyzeCampaign(c))
	}
	return report
}

// CreateCampaign registers a new campaign and, when persistence is on,
// writes the updated table through.
func (s *AdsService) CreateCampaign(ctx context.Context, skuID, platform, name string, dailyBudget float64) (ads.Campaign, error) {
	c, err := s.gateway.Create(skuID, platform, name, dailyBudget)
	if err != nil {
		return ads.Campaign{}, err
	}
	if err := s.Persist(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to persist campaigns after create")
	}
	return c, nil
}

// BudgetSuggestions proposes budget reallocations across active campaigns.
func (s *AdsService) BudgetSuggestions() []ads.BudgetSuggestion {
	return s.analyzer.SuggestBudgetReallocation(s.gateway.Campaigns("", "", ""))
}

// SpendBySKU feeds the profitability stage's ad cost input.
func (s *AdsService) SpendBySKU() map[string]float64 {
	return s.gateway.SpendBySKU()
}

// Persist writes the current campaign table to the database.
func (s *AdsService) Persist(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	campaigns := s.gateway.Campaigns("", "", "")
	if err := s.repo.ReplaceAll(ctx, campaigns); err != nil {
		return err
	}
	log.Info().Int("campaigns", len(campaigns)).Msg("ad campaigns persisted")
	return nil
}

// Restore loads the campaign table from the database.
func (s *AdsService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	campaigns, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	s.gateway.Replace(campaigns)
	log.Info().Int("campaigns", len(campaigns)).Msg("ad campaigns restored")
	return nil
}
