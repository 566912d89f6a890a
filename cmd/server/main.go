// backend/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchsignal/backend/internal/ads"
	"github.com/merchsignal/backend/internal/api"
	"github.com/merchsignal/backend/internal/cache"
	"github.com/merchsignal/backend/internal/config"
	"github.com/merchsignal/backend/internal/insights"
	"github.com/merchsignal/backend/internal/pipeline"
	"github.com/merchsignal/backend/internal/repository/postgres"
	"github.com/merchsignal/backend/internal/service"
	"github.com/merchsignal/backend/internal/state"
	"github.com/merchsignal/backend/internal/storefront"
	"github.com/merchsignal/backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := cfg.PipelineOptions()
	p := pipeline.New(opts)
	if cfg.Insights.Enabled && cfg.Insights.BaseURL != "" {
		p.WithAnnotator(insights.NewChatAnnotator(
			cfg.Insights.BaseURL, cfg.Insights.APIKey, cfg.Insights.Model,
			opts.StrengthThreshold,
		))
	}

	var recRepo *postgres.RecommendationRepository
	var campaignRepo *postgres.CampaignRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		recRepo = postgres.NewRecommendationRepository(db)
		campaignRepo = postgres.NewCampaignRepository(db)
	}

	recCache, err := cache.NewRecommendationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		recCache = cache.NewNoopRecommendationCache()
	}

	var sf *storefront.Client
	if cfg.Storefront.ShopDomain != "" && cfg.Storefront.AccessToken != "" {
		sf = storefront.NewClient(cfg.Storefront.ShopDomain, cfg.Storefront.AccessToken, cfg.Storefront.APIVersion)
	}

	appState := state.New()
	recService := service.NewRecommendationService(p, appState, recRepo, recCache, sf).
		WithDefaultInputs(
			filepath.Join(cfg.App.DataDir, "sku_master.csv"),
			filepath.Join(cfg.App.DataDir, "sales_history.csv"),
		)

	gateway := ads.NewGateway()
	campaignsPath := filepath.Join(cfg.App.DataDir, "ad_campaigns.csv")
	if _, err := os.Stat(campaignsPath); err == nil {
		if err := gateway.LoadCSV(campaignsPath); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to load ad campaigns")
		}
	}
	adsService := service.NewAdsService(gateway, ads.NewAnalyzer(), campaignRepo)

	router := api.NewRouter(&api.Services{
		Recommendations: recService,
		Ads:             adsService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
