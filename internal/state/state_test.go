package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/domain"
)

func TestBeginRunExcludesConcurrentRuns(t *testing.T) {
	s := New()

	assert.True(t, s.BeginRun())
	assert.False(t, s.BeginRun())

	s.CompleteRun(nil, "csv")
	assert.True(t, s.BeginRun())
}

func TestCompleteRun(t *testing.T) {
	s := New()
	recs := []*domain.Recommendation{{SKUID: "A"}, {SKUID: "B"}}

	require.True(t, s.BeginRun())
	s.CompleteRun(recs, "shopify")

	got, status, source, lastRun := s.Snapshot()
	assert.Equal(t, StatusReady, status)
	assert.Equal(t, "shopify", source)
	assert.Len(t, got, 2)
	assert.False(t, lastRun.IsZero())

	rec, ok := s.BySKU("B")
	require.True(t, ok)
	assert.Equal(t, "B", rec.SKUID)

	_, ok = s.BySKU("Z")
	assert.False(t, ok)
}

func TestFailRun(t *testing.T) {
	t.Run("first run failure leaves nothing readable", func(t *testing.T) {
		s := New()
		require.True(t, s.BeginRun())
		s.FailRun(errors.New("bad input"))

		status, lastErr := s.Status()
		assert.Equal(t, StatusFailed, status)
		assert.Equal(t, "bad input", lastErr)
		assert.Nil(t, s.Recommendations())
	})

	t.Run("failure keeps the previous table serving", func(t *testing.T) {
		s := New()
		require.True(t, s.BeginRun())
		s.CompleteRun([]*domain.Recommendation{{SKUID: "A"}}, "csv")

		require.True(t, s.BeginRun())
		s.FailRun(errors.New("bad input"))

		status, lastErr := s.Status()
		assert.Equal(t, StatusReady, status)
		assert.Equal(t, "bad input", lastErr)
		assert.Len(t, s.Recommendations(), 1)
	})
}
