package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/config"
)

func TestRecommendationFilterHash(t *testing.T) {
	empty := recommendationFilterHash(RecommendationFilter{})
	assert.Equal(t, "default", empty)

	a := recommendationFilterHash(RecommendationFilter{RiskLevel: "critical", Category: "Apparel", Limit: 10})
	b := recommendationFilterHash(RecommendationFilter{RiskLevel: "CRITICAL", Category: "apparel", Limit: 10})
	// Hashing normalizes case and whitespace.
	assert.Equal(t, a, b)

	c := recommendationFilterHash(RecommendationFilter{RiskLevel: "warning", Category: "apparel", Limit: 10})
	assert.NotEqual(t, a, c)
}

func TestBuildRecommendationKeyPrefix(t *testing.T) {
	key := buildRecommendationKey(RecommendationFilter{RiskLevel: "critical"})
	assert.Contains(t, key, recommendationKeyPrefix+":")
}

func TestNewRecommendationCacheDisabled(t *testing.T) {
	c, err := NewRecommendationCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	// The noop cache never hits and never fails.
	recs, hit, err := c.Get(context.Background(), RecommendationFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, recs)
	assert.NoError(t, c.Set(context.Background(), RecommendationFilter{}, nil))
	assert.NoError(t, c.InvalidateAll(context.Background()))
}
