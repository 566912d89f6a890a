// Package state holds the latest pipeline result in memory so API reads
// never block behind a running analysis.
package state

import (
	"sync"
	"time"

	"github.com/merchsignal/backend/internal/domain"
)

// RunStatus describes the lifecycle of the most recent pipeline run.
type RunStatus string

const (
	StatusIdle    RunStatus = "idle"
	StatusRunning RunStatus = "running"
	StatusReady   RunStatus = "ready"
	StatusFailed  RunStatus = "failed"
)

// AppState is a concurrency-safe holder for the current recommendation
// table plus run metadata. Writers replace the table wholesale; readers get
// the slice header under the lock and must not mutate rows.
type AppState struct {
	mu sync.RWMutex

	status          RunStatus
	recommendations []*domain.Recommendation
	dataSource      string
	lastRunAt       time.Time
	lastError       string
}

func New() *AppState {
	return &AppState{status: StatusIdle}
}

// BeginRun marks a run in flight. Returns false if one is already running.
func (s *AppState) BeginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		return false
	}
	s.status = StatusRunning
	s.lastError = ""
	return true
}

// CompleteRun stores a finished result table and its source tag.
func (s *AppState) CompleteRun(recs []*domain.Recommendation, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusReady
	s.recommendations = recs
	s.dataSource = source
	s.lastRunAt = time.Now()
}

// FailRun records a run failure; any previous result table stays readable.
func (s *AppState) FailRun(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	if err != nil {
		s.lastError = err.Error()
	}
	if s.recommendations != nil {
		s.status = StatusReady
	}
}

// Snapshot returns the current table and metadata.
func (s *AppState) Snapshot() ([]*domain.Recommendation, RunStatus, string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recommendations, s.status, s.dataSource, s.lastRunAt
}

// Recommendations returns the current table, or nil before the first run.
func (s *AppState) Recommendations() []*domain.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recommendations
}

// Status returns the current run status and last error message.
func (s *AppState) Status() (RunStatus, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.lastError
}

// BySKU finds one row by sku_id.
func (s *AppState) BySKU(skuID string) (*domain.Recommendation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.recommendations {
		if rec.SKUID == skuID {
			return rec, true
		}
	}
	return nil, false
}
