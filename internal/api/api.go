// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/api/handlers"
	"github.com/merchsignal/backend/internal/api/middleware"
	"github.com/merchsignal/backend/internal/service"
)

type Services struct {
	Recommendations *service.RecommendationService
	Ads             *service.AdsService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api")

	if services != nil && services.Recommendations != nil {
		recHandler := handlers.NewRecommendationHandler(services.Recommendations)
		apiGroup.GET("/health", recHandler.Health)
		apiGroup.POST("/agents/run", recHandler.RunAgents)
		apiGroup.GET("/agents/status", recHandler.AgentStatus)
		apiGroup.GET("/metrics/summary", recHandler.MetricsSummary)
		apiGroup.GET("/recommendations", recHandler.GetRecommendations)
		apiGroup.GET("/recommendations/export", recHandler.ExportRecommendations)
		apiGroup.GET("/sku/:sku_id", recHandler.GetSKUDetails)

		seasonalGroup := apiGroup.Group("/seasonal")
		{
			seasonalGroup.GET("/analysis", recHandler.SeasonalAnalysis)
			seasonalGroup.GET("/risks", recHandler.SeasonalRisks)
			seasonalGroup.GET("/sku/:sku_id", recHandler.SeasonalSKUDetails)
		}
	}

	if services != nil && services.Ads != nil {
		adsHandler := handlers.NewAdsHandler(services.Ads)
		adsGroup := apiGroup.Group("/ads")
		{
			adsGroup.GET("/campaigns", adsHandler.GetCampaigns)
			adsGroup.POST("/campaigns", adsHandler.CreateCampaign)
			adsGroup.GET("/analysis", adsHandler.GetAnalysis)
			adsGroup.GET("/budget", adsHandler.GetBudgetSuggestions)
		}
	}

	return router
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
