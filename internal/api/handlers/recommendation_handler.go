package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/cache"
	"github.com/merchsignal/backend/internal/domain"
	"github.com/merchsignal/backend/internal/export"
	"github.com/merchsignal/backend/internal/service"
	"github.com/merchsignal/backend/internal/state"
)

type RecommendationHandler struct {
	service *service.RecommendationService
}

func NewRecommendationHandler(s *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: s}
}

// Health reports liveness and whether a result table is available.
func (h *RecommendationHandler) Health(c *gin.Context) {
	status, _ := h.service.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"run_status": status,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// RunAgents triggers a pipeline run in the background. The request returns
// immediately; clients poll /api/agents/status.
func (h *RecommendationHandler) RunAgents(c *gin.Context) {
	var req struct {
		Source     string `json:"source"`
		MasterPath string `json:"master_path"`
		SalesPath  string `json:"sales_path"`
	}
	// Body is optional; defaults run from configured CSV inputs.
	_ = c.ShouldBindJSON(&req)

	status, _ := h.service.Status()
	if status == state.StatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "a pipeline run is already in progress"})
		return
	}

	go func() {
		// Detached from the request context: the run outlives the HTTP call.
		ctx := context.Background()

		var err error
		if req.Source == "shopify" {
			err = h.service.RunFromStorefront(ctx)
		} else {
			err = h.service.RunFromFiles(ctx, req.MasterPath, req.SalesPath)
		}
		if err != nil {
			log.Error().Err(err).Msg("background pipeline run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// AgentStatus reports the run lifecycle for polling clients.
func (h *RecommendationHandler) AgentStatus(c *gin.Context) {
	status, lastErr := h.service.Status()
	resp := gin.H{"status": status}
	if lastErr != "" {
		resp["last_error"] = lastErr
	}
	c.JSON(http.StatusOK, resp)
}

// MetricsSummary serves the portfolio rollup.
func (h *RecommendationHandler) MetricsSummary(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRecommendations serves the ranked table with optional filters.
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	filter := cache.RecommendationFilter{
		RiskLevel: c.Query("risk_level"),
		Action:    c.Query("action"),
		Category:  c.Query("category"),
		Limit:     limit,
	}

	recs, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "recommendations": recs})
}

// ExportRecommendations streams the current table as CSV.
func (h *RecommendationHandler) ExportRecommendations(c *gin.Context) {
	recs, err := h.service.Query(c.Request.Context(), cache.RecommendationFilter{})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=recommendations.csv")
	if err := export.WriteCSV(c.Writer, recs); err != nil {
		log.Error().Err(err).Msg("csv export failed")
	}
}

// GetSKUDetails serves one full row.
func (h *RecommendationHandler) GetSKUDetails(c *gin.Context) {
	skuID := c.Param("sku_id")
	rec, ok := h.service.BySKU(skuID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sku not found: " + skuID})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SeasonalAnalysis serves the seasonal column group for every SKU.
func (h *RecommendationHandler) SeasonalAnalysis(c *gin.Context) {
	recs, err := h.service.Query(c.Request.Context(), cache.RecommendationFilter{})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Strongest seasonal signal first.
	sorted := make([]*domain.Recommendation, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeasonalityStrength > sorted[j].SeasonalityStrength
	})

	out := make([]gin.H, 0, len(sorted))
	for _, rec := range sorted {
		out = append(out, gin.H{
			"sku_id":                 rec.SKUID,
			"product_name":           rec.ProductName,
			"seasonal_index_current": rec.SeasonalIndexCurrent,
			"seasonal_index_next":    rec.SeasonalIndexNext,
			"peak_month":             rec.PeakMonth,
			"trough_month":           rec.TroughMonth,
			"seasonal_trend":         rec.SeasonalTrend,
			"seasonality_strength":   rec.SeasonalityStrength,
			"seasonal_forecast":      rec.SeasonalForecast,
			"seasonal_risk_flag":     rec.SeasonalRiskFlag,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "analysis": out})
}

// SeasonalRisks serves rows with the timing risk flag set.
func (h *RecommendationHandler) SeasonalRisks(c *gin.Context) {
	recs, err := h.service.SeasonalRisks()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "risks": recs})
}

// SeasonalSKUDetails serves one SKU's seasonal columns plus its insight.
func (h *RecommendationHandler) SeasonalSKUDetails(c *gin.Context) {
	skuID := c.Param("sku_id")
	rec, ok := h.service.BySKU(skuID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sku not found: " + skuID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku_id":                 rec.SKUID,
		"product_name":           rec.ProductName,
		"seasonal_index_current": rec.SeasonalIndexCurrent,
		"seasonal_index_next":    rec.SeasonalIndexNext,
		"peak_month":             rec.PeakMonth,
		"trough_month":           rec.TroughMonth,
		"seasonal_trend":         rec.SeasonalTrend,
		"seasonality_strength":   rec.SeasonalityStrength,
		"seasonal_forecast":      rec.SeasonalForecast,
		"seasonal_risk_flag":     rec.SeasonalRiskFlag,
		"insight":                rec.SeasonalInsight,
		"insight_confidence":     rec.SeasonalConfidence,
	})
}
