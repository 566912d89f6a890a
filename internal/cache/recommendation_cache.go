package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merchsignal/backend/internal/config"
	"github.com/merchsignal/backend/internal/domain"
)

const (
	recommendationKeyPrefix = "recommendations:query"
	recommendationScanBatch = 100
)

// RecommendationFilter narrows a cached recommendation query.
type RecommendationFilter struct {
	RiskLevel string
	Action    string
	Category  string
	Limit     int
}

type RecommendationCache interface {
	Get(ctx context.Context, filter RecommendationFilter) ([]*domain.Recommendation, bool, error)
	Set(ctx context.Context, filter RecommendationFilter, recs []*domain.Recommendation) error
	InvalidateAll(ctx context.Context) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationCache struct{}

func NewRecommendationCache(cfg config.CacheConfig) (RecommendationCache, error) {
	if !cfg.Enabled {
		return &noopRecommendationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecommendationCache{client: client, ttl: ttl}, nil
}

func NewNoopRecommendationCache() RecommendationCache {
	return &noopRecommendationCache{}
}

func (c *redisRecommendationCache) Get(ctx context.Context, filter RecommendationFilter) ([]*domain.Recommendation, bool, error) {
	payload, err := c.client.Get(ctx, buildRecommendationKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var recs []*domain.Recommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, false, fmt.Errorf("decode recommendation cache: %w", err)
	}
	return recs, true, nil
}

func (c *redisRecommendationCache) Set(ctx context.Context, filter RecommendationFilter, recs []*domain.Recommendation) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendation cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRecommendationKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, recommendationKeyPrefix, recommendationScanBatch)
}

func (n *noopRecommendationCache) Get(ctx context.Context, filter RecommendationFilter) ([]*domain.Recommendation, bool, error) {
	return nil, false, nil
}

func (n *noopRecommendationCache) Set(ctx context.Context, filter RecommendationFilter, recs []*domain.Recommendation) error {
	return nil
}

func (n *noopRecommendationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRecommendationKey(filter RecommendationFilter) string {
	return fmt.Sprintf("%s:%s", recommendationKeyPrefix, recommendationFilterHash(filter))
}

func recommendationFilterHash(filter RecommendationFilter) string {
	parts := []string{}
	if filter.RiskLevel != "" {
		parts = append(parts, "risk_level="+strings.ToUpper(strings.TrimSpace(filter.RiskLevel)))
	}
	if filter.Action != "" {
		parts = append(parts, "action="+strings.ToUpper(strings.TrimSpace(filter.Action)))
	}
	if filter.Category != "" {
		parts = append(parts, "category="+strings.ToLower(strings.TrimSpace(filter.Category)))
	}
	if filter.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", filter.Limit))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
