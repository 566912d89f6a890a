package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchsignal/backend/internal/service"
)

type AdsHandler struct {
	service *service.AdsService
}

func NewAdsHandler(s *service.AdsService) *AdsHandler {
	return &AdsHandler{service: s}
}

// GetCampaigns lists campaigns with optional sku_id, platform and status
// filters.
func (h *AdsHandler) GetCampaigns(c *gin.Context) {
	campaigns := h.service.Campaigns(
		c.Query("sku_id"),
		c.Query("platform"),
		c.Query("status"),
	)
	c.JSON(http.StatusOK, gin.H{
		"count":     len(campaigns),
		"campaigns": campaigns,
		"summary":   h.service.Summary(),
	})
}

// CreateCampaign registers a new campaign.
func (h *AdsHandler) CreateCampaign(c *gin.Context) {
	var req struct {
		SKUID       string  `json:"sku_id" binding:"required"`
		Platform    string  `json:"platform" binding:"required"`
		Name        string  `json:"campaign_name" binding:"required"`
		DailyBudget float64 `json:"daily_budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.service.CreateCampaign(c.Request.Context(), req.SKUID, req.Platform, req.Name, req.DailyBudget)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// GetAnalysis grades the whole campaign fleet.
func (h *AdsHandler) GetAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Analyze())
}

// GetBudgetSuggestions proposes budget reallocations.
func (h *AdsHandler) GetBudgetSuggestions(c *gin.Context) {
	suggestions := h.service.BudgetSuggestions()
	c.JSON(http.StatusOK, gin.H{"count": len(suggestions), "suggestions": suggestions})
}
