package ads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCampaigns() []Campaign {
	return []Campaign{
		{CampaignID: "CAM_1", SKUID: "SKU-1", Platform: "GOOGLE_ADS", Status: StatusActive, TotalSpend30d: 1000, Revenue30d: 4000, ROAS: 4, Conversions30d: 40},
		{CampaignID: "CAM_2", SKUID: "SKU-1", Platform: "META_ADS", Status: StatusPaused, TotalSpend30d: 500, Revenue30d: 250, ROAS: 0.5, Conversions30d: 5},
		{CampaignID: "CAM_3", SKUID: "SKU-2", Platform: "GOOGLE_ADS", Status: StatusActive, TotalSpend30d: 200, Revenue30d: 400, ROAS: 2, Conversions30d: 8},
	}
}

func TestReadCampaigns(t *testing.T) {
	csvData := "campaign_id,sku_id,platform,campaign_name,status,daily_budget,total_spend_30d,roas,revenue_30d\n" +
		"CAM_1,SKU-1,GOOGLE_ADS,Search - Widgets,ACTIVE,50,1500,3.2,4800\n"

	campaigns, err := readCampaigns(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	c := campaigns[0]
	assert.Equal(t, "CAM_1", c.CampaignID)
	assert.Equal(t, "Search - Widgets", c.CampaignName)
	assert.InDelta(t, 50, c.DailyBudget, 1e-9)
	assert.InDelta(t, 3.2, c.ROAS, 1e-9)
	// Columns absent from the file stay zeroed.
	assert.Zero(t, c.Clicks30d)
}

func TestGatewayFilters(t *testing.T) {
	g := NewGateway()
	g.Replace(testCampaigns())

	assert.Len(t, g.Campaigns("", "", ""), 3)
	assert.Len(t, g.Campaigns("SKU-1", "", ""), 2)
	assert.Len(t, g.Campaigns("", "google_ads", ""), 2)
	assert.Len(t, g.Campaigns("SKU-1", "", "active"), 1)

	c, ok := g.Campaign("CAM_3")
	require.True(t, ok)
	assert.Equal(t, "SKU-2", c.SKUID)

	_, ok = g.Campaign("CAM_404")
	assert.False(t, ok)
}

func TestGatewayCreate(t *testing.T) {
	g := NewGateway()

	c, err := g.Create("SKU-9", "meta_ads", "Retargeting", 75)
	require.NoError(t, err)
	assert.Equal(t, "META_ADS", c.Platform)
	assert.Equal(t, StatusActive, c.Status)
	assert.True(t, strings.HasPrefix(c.CampaignID, "CAM_"))

	_, err = g.Create("SKU-9", "TIKTOK_ADS", "Nope", 75)
	assert.ErrorContains(t, err, "invalid platform")
}

func TestGatewaySetStatus(t *testing.T) {
	g := NewGateway()
	g.Replace(testCampaigns())

	require.True(t, g.SetStatus("CAM_1", "paused"))
	c, _ := g.Campaign("CAM_1")
	assert.Equal(t, StatusPaused, c.Status)

	assert.False(t, g.SetStatus("CAM_404", "paused"))
}

func TestGatewayAggregations(t *testing.T) {
	g := NewGateway()
	g.Replace(testCampaigns())

	spend := g.SpendBySKU()
	assert.InDelta(t, 1500, spend["SKU-1"], 1e-9)
	assert.InDelta(t, 200, spend["SKU-2"], 1e-9)

	roas := g.ROASBySKU()
	assert.InDelta(t, 4250.0/1500, roas["SKU-1"], 1e-9)
	assert.InDelta(t, 2, roas["SKU-2"], 1e-9)

	s := g.Summarize()
	assert.Equal(t, 3, s.TotalCampaigns)
	assert.Equal(t, 2, s.ActiveCampaigns)
	assert.Equal(t, 1, s.PausedCampaigns)
	assert.InDelta(t, 1700, s.TotalSpend30d, 1e-9)
	assert.InDelta(t, (4+0.5+2)/3, s.AvgROAS, 1e-9)
	assert.Equal(t, 2, s.Platforms["GOOGLE_ADS"])

	worstFirst := g.SortedByROAS()
	require.Len(t, worstFirst, 2)
	assert.Equal(t, "CAM_3", worstFirst[0].CampaignID)
}
