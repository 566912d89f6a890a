package ads

import (
	"math"
	"sort"
)

// Analyzer thresholds; returns here mean revenue per unit of ad spend.
const (
	DefaultTargetROAS       = 3.0
	DefaultMinROASThreshold = 1.5
	// A single suggestion never moves a budget by more than half.
	DefaultBudgetChangeLimit = 0.5
)

// CampaignAnalysis grades one campaign.
type CampaignAnalysis struct {
	CampaignID        string   `json:"campaign_id"`
	CampaignName      string   `json:"campaign_name"`
	PerformanceLevel  string   `json:"performance_level"`
	RecommendedAction string   `json:"recommended_action"`
	ROAS              float64  `json:"roas"`
	ROASGap           float64  `json:"roas_gap"`
	Issues            []string `json:"issues"`
}

// UnderperformingCampaign flags an active campaign below the minimum ROAS.
type UnderperformingCampaign struct {
	CampaignID      string  `json:"campaign_id"`
	CampaignName    string  `json:"campaign_name"`
	SKUID           string  `json:"sku_id"`
	Platform        string  `json:"platform"`
	ROAS            float64 `json:"roas"`
	TargetROAS      float64 `json:"target_roas"`
	Issue           string  `json:"issue"`
	SuggestedAction string  `json:"suggested_action"`
}

// BudgetSuggestion proposes a daily budget change.
type BudgetSuggestion struct {
	CampaignID      string  `json:"campaign_id"`
	CampaignName    string  `json:"campaign_name"`
	CurrentBudget   float64 `json:"current_budget"`
	SuggestedBudget float64 `json:"suggested_budget"`
	ChangePercent   float64 `json:"change_percent"`
	Reason          string  `json:"reason"`
}

// Analyzer applies the ROAS grading rules.
type Analyzer struct {
	TargetROAS        float64
	MinROASThreshold  float64
	BudgetChangeLimit float64
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		TargetROAS:        DefaultTargetROAS,
		MinROASThreshold:  DefaultMinROASThreshold,
		BudgetChangeLimit: DefaultBudgetChangeLimit,
	}
}

// AnalyzeCampaign grades one campaign and lists its concrete issues.
func (a *Analyzer) AnalyzeCampaign(c Campaign) CampaignAnalysis {
	var performance, action string
	switch {
	case c.ROAS >= a.TargetROAS:
		performance, action = "EXCELLENT", "SCALE_UP"
	case c.ROAS >= a.MinROASThreshold:
		performance, action = "GOOD", "MAINTAIN"
	case c.ROAS > 0:
		performance, action = "UNDERPERFORMING", "OPTIMIZE"
	default:
		performance, action = "CRITICAL", "PAUSE_OR_REVAMP"
	}

	var issues []string
	if c.CTR < 1.0 {
		issues = append(issues, "Low CTR - ad creative may need refresh")
	}
	if c.ConversionRate < 2.0 {
		issues = append(issues, "Low conversion rate - landing page or targeting issue")
	}
	if c.TotalSpend30d > 0 && c.ROAS < 1 {
		issues = append(issues, "Negative ROI - losing money on ads")
	}

	return CampaignAnalysis{
		CampaignID:        c.CampaignID,
		CampaignName:      c.CampaignName,
		PerformanceLevel:  performance,
		RecommendedAction: action,
		ROAS:              c.ROAS,
		ROASGap:           round2(a.TargetROAS - c.ROAS),
		Issues:            issues,
	}
}

// IdentifyUnderperformers scans active campaigns and returns those below
// the minimum ROAS, worst first.
func (a *Analyzer) IdentifyUnderperformers(campaigns []Campaign) []UnderperformingCampaign {
	var out []UnderperformingCampaign
	for _, c := range campaigns {
		if c.Status != StatusActive || c.ROAS >= a.MinROASThreshold {
			continue
		}

		var issue, action string
		switch {
		case c.ROAS < 1:
			issue = "Negative ROI - spending more than earning"
			action = "Pause campaign or reduce budget by 50%"
		case c.CTR < 1:
			issue = "Very low CTR - ads not engaging"
			action = "Refresh ad creative and copy"
		case c.ConversionRate < 1:
			issue = "Low conversion rate - clicks not converting"
			action = "Review landing page and product page"
		default:
			issue = "Below target ROAS"
			action = "Optimize targeting and reduce wasted spend"
		}

		out = append(out, UnderperformingCampaign{
			CampaignID:      c.CampaignID,
			CampaignName:    c.CampaignName,
			SKUID:           c.SKUID,
			Platform:        c.Platform,
			ROAS:            c.ROAS,
			TargetROAS:      a.TargetROAS,
			Issue:           issue,
			SuggestedAction: action,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ROAS < out[j].ROAS })
	return out
}

// SuggestBudgetReallocation moves budget toward high performers and away
// from underperformers, relative to the fleet average ROAS. Changes smaller
// than 10% are dropped as noise.
func (a *Analyzer) SuggestBudgetReallocation(campaigns []Campaign) []BudgetSuggestion {
	var active []Campaign
	var roasSum float64
	for _, c := range campaigns {
		if c.Status == StatusActive {
			active = append(active, c)
			roasSum += c.ROAS
		}
	}
	if len(active) == 0 {
		return nil
	}
	avgROAS := roasSum / float64(len(active))

	var out []BudgetSuggestion
	for _, c := range active {
		if c.DailyBudget == 0 {
			continue
		}

		var changePercent float64
		var reason string
		switch {
		case c.ROAS > avgROAS*1.5 && c.ROAS >= a.TargetROAS:
			changePercent = math.Min(0.3, a.BudgetChangeLimit)
			reason = "High performer - scale up"
		case c.ROAS < a.MinROASThreshold:
			changePercent = -math.Min(0.4, a.BudgetChangeLimit)
			reason = "Underperforming - reduce spend"
		default:
			continue
		}

		if math.Abs(changePercent) < 0.1 {
			continue
		}
		out = append(out, BudgetSuggestion{
			CampaignID:      c.CampaignID,
			CampaignName:    c.CampaignName,
			CurrentBudget:   round2(c.DailyBudget),
			SuggestedBudget: round2(c.DailyBudget * (1 + changePercent)),
			ChangePercent:   round2(changePercent * 100),
			Reason:          reason,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ChangePercent) > math.Abs(out[j].ChangePercent)
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
