package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/ads"
	"github.com/merchsignal/backend/internal/cache"
	"github.com/merchsignal/backend/internal/domain"
	"github.com/merchsignal/backend/internal/pipeline"
	"github.com/merchsignal/backend/internal/service"
	"github.com/merchsignal/backend/internal/state"
)

func newTestRouter(t *testing.T, withResults bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := pipeline.New(domain.DefaultPipelineOptions())
	recService := service.NewRecommendationService(p, state.New(), nil, cache.NewNoopRecommendationCache(), nil)

	if withResults {
		dir := t.TempDir()
		masterPath := filepath.Join(dir, "sku_master.csv")
		masterCSV := "sku_id,category,product_name,selling_price,mrp,cogs,shipping_cost_per_unit,platform_fee_percent,platform_fixed_fee,ad_spend_last_30_days,units_sold_last_30_days,current_stock,lead_time_days\n" +
			"SKU-1,apparel,T-Shirt,499,,200,40,2,30,1500,60,120,7\n"
		require.NoError(t, os.WriteFile(masterPath, []byte(masterCSV), 0644))

		salesPath := filepath.Join(dir, "sales_history.csv")
		require.NoError(t, os.WriteFile(salesPath, []byte("sku_id,date,units_sold\nSKU-1,2025-06-01,2\n"), 0644))

		require.NoError(t, recService.RunFromFiles(context.Background(), masterPath, salesPath))
	}

	gateway := ads.NewGateway()
	gateway.Replace([]ads.Campaign{
		{CampaignID: "CAM_1", SKUID: "SKU-1", Platform: "GOOGLE_ADS", Status: ads.StatusActive, ROAS: 4, DailyBudget: 100, TotalSpend30d: 900, Revenue30d: 3600},
		{CampaignID: "CAM_2", SKUID: "SKU-1", Platform: "META_ADS", Status: ads.StatusActive, ROAS: 0.5, DailyBudget: 50, TotalSpend30d: 600, Revenue30d: 300},
	})
	adsService := service.NewAdsService(gateway, ads.NewAnalyzer(), nil)

	return NewRouter(&Services{Recommendations: recService, Ads: adsService}, nil)
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	w := doRequest(router, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "idle", body["run_status"])
}

func TestGetRecommendations(t *testing.T) {
	router := newTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/recommendations")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count           int                     `json:"count"`
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, "SKU-1", body.Recommendations[0].SKUID)
}

func TestGetRecommendationsBadLimit(t *testing.T) {
	router := newTestRouter(t, true)
	w := doRequest(router, http.MethodGet, "/api/recommendations?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecommendationsBeforeFirstRun(t *testing.T) {
	router := newTestRouter(t, false)
	w := doRequest(router, http.MethodGet, "/api/recommendations")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSKUDetails(t *testing.T) {
	router := newTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/sku/SKU-1")
	require.Equal(t, http.StatusOK, w.Code)

	var rec domain.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "T-Shirt", rec.ProductName)

	w = doRequest(router, http.MethodGet, "/api/sku/SKU-404")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRecommendations(t *testing.T) {
	router := newTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/recommendations/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "sku_id")
	assert.Contains(t, w.Body.String(), "SKU-1")
}

func TestRunAgentsConflictWhileRunning(t *testing.T) {
	router := newTestRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/agents/run")
	// Accepted or conflict depending on how fast the background run finishes;
	// either way the endpoint never blocks.
	assert.Contains(t, []int{http.StatusAccepted, http.StatusConflict}, w.Code)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := doRequest(router, http.MethodGet, "/api/agents/status")
		var body map[string]any
		require.NoError(t, json.Unmarshal(s.Body.Bytes(), &body))
		if body["status"] != "running" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("background run never finished")
}

func TestSeasonalEndpoints(t *testing.T) {
	router := newTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/seasonal/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	var analysis struct {
		Count    int              `json:"count"`
		Analysis []map[string]any `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, 1, analysis.Count)
	assert.Equal(t, "SKU-1", analysis.Analysis[0]["sku_id"])

	w = doRequest(router, http.MethodGet, "/api/seasonal/risks")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/seasonal/sku/SKU-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCampaign(t *testing.T) {
	router := newTestRouter(t, false)

	body := strings.NewReader(`{"sku_id":"SKU-1","platform":"google_ads","campaign_name":"Search - Widgets","daily_budget":80}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ads/campaigns", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var campaign ads.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaign))
	assert.Equal(t, "GOOGLE_ADS", campaign.Platform)
	assert.Equal(t, ads.StatusActive, campaign.Status)
	assert.NotEmpty(t, campaign.CampaignID)

	// Missing required fields rejected before reaching the gateway.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/ads/campaigns", strings.NewReader(`{"sku_id":"SKU-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdsEndpoints(t *testing.T) {
	router := newTestRouter(t, false)

	w := doRequest(router, http.MethodGet, "/api/ads/campaigns?platform=google_ads")
	require.Equal(t, http.StatusOK, w.Code)
	var campaigns struct {
		Count     int            `json:"count"`
		Campaigns []ads.Campaign `json:"campaigns"`
		Summary   ads.Summary    `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaigns))
	assert.Equal(t, 1, campaigns.Count)
	assert.Equal(t, 2, campaigns.Summary.TotalCampaigns)

	w = doRequest(router, http.MethodGet, "/api/ads/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	var report service.AnalysisReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Len(t, report.Analyses, 2)
	require.Len(t, report.Underperformers, 1)
	assert.Equal(t, "CAM_2", report.Underperformers[0].CampaignID)

	w = doRequest(router, http.MethodGet, "/api/ads/budget")
	require.Equal(t, http.StatusOK, w.Code)
	var budget struct {
		Count       int                    `json:"count"`
		Suggestions []ads.BudgetSuggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &budget))
	assert.Equal(t, budget.Count, len(budget.Suggestions))
}
