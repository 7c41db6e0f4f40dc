package mocks

import (
	"sort"
	"sync"

	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// MockAnalytics keeps word claim aggregates in memory for local development,
// standing in for the ClickHouse client
type MockAnalytics struct {
	mu    sync.Mutex
	stats map[string]*models.WordStat
}

// NewMockAnalytics creates an empty in-memory analytics store
func NewMockAnalytics() *MockAnalytics {
	logger.Info("Using MOCK ClickHouse analytics for local development")
	return &MockAnalytics{stats: make(map[string]*models.WordStat)}
}

// RecordRound folds a finished round into the aggregates
func (m *MockAnalytics) RecordRound(result *models.RoundResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range result.Leaderboard {
		for _, w := range entry.Words {
			s, ok := m.stats[w.Word]
			if !ok {
				s = &models.WordStat{Word: w.Word}
				m.stats[w.Word] = s
			}
			s.Claims++
			s.Points += w.Final
		}
	}
	return nil
}

// TopWords returns the most claimed words, ties broken by points then word
func (m *MockAnalytics) TopWords(limit int) ([]models.WordStat, error) {
	if limit <= 0 {
		limit = 10
	}

	m.mu.Lock()
	out := make([]models.WordStat, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Claims != out[j].Claims {
			return out[i].Claims > out[j].Claims
		}
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the mock
func (m *MockAnalytics) Close() error {
	return nil
}
