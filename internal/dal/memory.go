package dal

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// MemoryDAL implements ResultsDAL using in-memory storage
type MemoryDAL struct {
	mu      sync.RWMutex
	results []models.RoundResult
}

// NewMemoryDAL creates a new in-memory data access layer
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{results: []models.RoundResult{}}
}

func (m *MemoryDAL) SaveRoundResult(result *models.RoundResult) error {
	if result == nil || result.RoomID == "" {
		return fmt.Errorf("round result needs a room id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// copy the leaderboard so callers can't mutate what we stored
	stored := *result
	stored.Leaderboard = cloneLeaderboard(result.Leaderboard)

	for i, r := range m.results {
		if r.RoomID == stored.RoomID && r.Round == stored.Round && r.StartedAt.Equal(stored.StartedAt) {
			m.results[i] = stored
			return nil
		}
	}
	m.results = append(m.results, stored)
	return nil
}

func (m *MemoryDAL) ListRoundResults(roomID string, limit int) ([]models.RoundResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RoundResult, 0)
	for _, r := range m.results {
		if roomID == "" || r.RoomID == roomID {
			r.Leaderboard = cloneLeaderboard(r.Leaderboard)
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })

	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDAL) Close() error {
	return nil
}

func cloneLeaderboard(in []models.LeaderboardEntry) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Words = append([]models.WordBreakdown(nil), e.Words...)
	}
	return out
}
