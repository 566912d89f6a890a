// Package ads tracks ad campaigns per SKU and derives spend, performance
// metrics and optimization advice from them.
package ads

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Campaign statuses.
const (
	StatusActive = "ACTIVE"
	StatusPaused = "PAUSED"
)

var validPlatforms = map[string]struct{}{
	"GOOGLE_ADS": {},
	"META_ADS":   {},
	"AMAZON_ADS": {},
}

// Campaign is one ad campaign tied to a SKU.
type Campaign struct {
	CampaignID     string  `json:"campaign_id" db:"campaign_id"`
	SKUID          string  `json:"sku_id" db:"sku_id"`
	Platform       string  `json:"platform" db:"platform"`
	CampaignName   string  `json:"campaign_name" db:"campaign_name"`
	Status         string  `json:"status" db:"status"`
	DailyBudget    float64 `json:"daily_budget" db:"daily_budget"`
	TotalSpend30d  float64 `json:"total_spend_30d" db:"total_spend_30d"`
	Impressions30d int     `json:"impressions_30d" db:"impressions_30d"`
	Clicks30d      int     `json:"clicks_30d" db:"clicks_30d"`
	Conversions30d int     `json:"conversions_30d" db:"conversions_30d"`
	CPC            float64 `json:"cpc" db:"cpc"`
	CTR            float64 `json:"ctr" db:"ctr"`
	ConversionRate float64 `json:"conversion_rate" db:"conversion_rate"`
	ROAS           float64 `json:"roas" db:"roas"`
	Revenue30d     float64 `json:"revenue_30d" db:"revenue_30d"`
	StartDate      string  `json:"start_date" db:"start_date"`
	EndDate        string  `json:"end_date" db:"end_date"`
}

// Summary is the fleet-level rollup.
type Summary struct {
	TotalCampaigns   int            `json:"total_campaigns"`
	ActiveCampaigns  int            `json:"active_campaigns"`
	PausedCampaigns  int            `json:"paused_campaigns"`
	TotalSpend30d    float64        `json:"total_spend_30d"`
	TotalRevenue30d  float64        `json:"total_revenue_30d"`
	AvgROAS          float64        `json:"avg_roas"`
	TotalConversions int            `json:"total_conversions"`
	Platforms        map[string]int `json:"platforms"`
}

// Gateway holds the campaign table in memory. It is safe for concurrent
// reads and writes.
type Gateway struct {
	mu        sync.RWMutex
	campaigns []Campaign
}

func NewGateway() *Gateway {
	return &Gateway{}
}

// LoadCSV replaces the campaign table from a CSV export.
func (g *Gateway) LoadCSV(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open campaigns file: %w", err)
	}
	defer file.Close()

	campaigns, err := readCampaigns(file)
	if err != nil {
		return fmt.Errorf("campaigns file %s: %w", path, err)
	}

	g.mu.Lock()
	g.campaigns = campaigns
	g.mu.Unlock()
	log.Info().Int("campaigns", len(campaigns)).Str("path", path).Msg("ad campaigns loaded")
	return nil
}

func readCampaigns(r io.Reader) ([]Campaign, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}

	get := func(record []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	getF := func(record []string, col string) float64 {
		f, _ := strconv.ParseFloat(get(record, col), 64)
		return f
	}
	getI := func(record []string, col string) int {
		n, _ := strconv.Atoi(get(record, col))
		return n
	}

	var campaigns []Campaign
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, Campaign{
			CampaignID:     get(record, "campaign_id"),
			SKUID:          get(record, "sku_id"),
			Platform:       get(record, "platform"),
			CampaignName:   get(record, "campaign_name"),
			Status:         get(record, "status"),
			DailyBudget:    getF(record, "daily_budget"),
			TotalSpend30d:  getF(record, "total_spend_30d"),
			Impressions30d: getI(record, "impressions_30d"),
			Clicks30d:      getI(record, "clicks_30d"),
			Conversions30d: getI(record, "conversions_30d"),
			CPC:            getF(record, "cpc"),
			CTR:            getF(record, "ctr"),
			ConversionRate: getF(record, "conversion_rate"),
			ROAS:           getF(record, "roas"),
			Revenue30d:     getF(record, "revenue_30d"),
			StartDate:      get(record, "start_date"),
			EndDate:        get(record, "end_date"),
		})
	}
	return campaigns, nil
}

// Replace swaps in a campaign table built elsewhere (tests, DB load).
func (g *Gateway) Replace(campaigns []Campaign) {
	g.mu.Lock()
	g.campaigns = campaigns
	g.mu.Unlock()
}

// Campaigns returns campaigns matching the optional filters; empty filter
// values match everything.
func (g *Gateway) Campaigns(skuID, platform, status string) []Campaign {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Campaign
	for _, c := range g.campaigns {
		if skuID != "" && c.SKUID != skuID {
			continue
		}
		if platform != "" && !strings.EqualFold(c.Platform, platform) {
			continue
		}
		if status != "" && !strings.EqualFold(c.Status, status) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Campaign looks up one campaign by ID.
func (g *Gateway) Campaign(campaignID string) (Campaign, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.campaigns {
		if c.CampaignID == campaignID {
			return c, true
		}
	}
	return Campaign{}, false
}

// Create registers a new campaign with zeroed metrics.
func (g *Gateway) Create(skuID, platform, name string, dailyBudget float64) (Campaign, error) {
	platform = strings.ToUpper(platform)
	if _, ok := validPlatforms[platform]; !ok {
		return Campaign{}, fmt.Errorf("invalid platform %q", platform)
	}

	c := Campaign{
		CampaignID:   fmt.Sprintf("CAM_%05d", rand.Intn(90000)+10000),
		SKUID:        skuID,
		Platform:     platform,
		CampaignName: name,
		Status:       StatusActive,
		DailyBudget:  dailyBudget,
		StartDate:    time.Now().Format("2006-01-02"),
	}

	g.mu.Lock()
	g.campaigns = append(g.campaigns, c)
	g.mu.Unlock()
	return c, nil
}

// SetStatus pauses or resumes a campaign.
func (g *Gateway) SetStatus(campaignID, status string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.campaigns {
		if g.campaigns[i].CampaignID == campaignID {
			g.campaigns[i].Status = strings.ToUpper(status)
			return true
		}
	}
	return false
}

// SpendBySKU sums 30-day spend per SKU across all campaigns. Feeds the
// profitability stage's ad cost input.
func (g *Gateway) SpendBySKU() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]float64)
	for _, c := range g.campaigns {
		out[c.SKUID] += c.TotalSpend30d
	}
	return out
}

// ROASBySKU computes revenue over spend per SKU, with spend floored at 1 to
// keep the ratio finite.
func (g *Gateway) ROASBySKU() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	spend := make(map[string]float64)
	revenue := make(map[string]float64)
	for _, c := range g.campaigns {
		spend[c.SKUID] += c.TotalSpend30d
		revenue[c.SKUID] += c.Revenue30d
	}

	out := make(map[string]float64, len(spend))
	for sku := range spend {
		out[sku] = revenue[sku] / maxFloat(1, spend[sku])
	}
	return out
}

// Summarize rolls the whole table up.
func (g *Gateway) Summarize() Summary {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Summary{Platforms: make(map[string]int)}
	var roasSum float64
	for _, c := range g.campaigns {
		s.TotalCampaigns++
		switch c.Status {
		case StatusActive:
			s.ActiveCampaigns++
		case StatusPaused:
			s.PausedCampaigns++
		}
		s.TotalSpend30d += c.TotalSpend30d
		s.TotalRevenue30d += c.Revenue30d
		s.TotalConversions += c.Conversions30d
		s.Platforms[c.Platform]++
		roasSum += c.ROAS
	}
	if s.TotalCampaigns > 0 {
		s.AvgROAS = roasSum / float64(s.TotalCampaigns)
	}
	return s
}

// SortedByROAS returns active campaigns ordered worst first.
func (g *Gateway) SortedByROAS() []Campaign {
	active := g.Campaigns("", "", StatusActive)
	sort.SliceStable(active, func(i, j int) bool { return active[i].ROAS < active[j].ROAS })
	return active
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
