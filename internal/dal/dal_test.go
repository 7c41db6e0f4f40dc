package dal

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(room string, round int, ended time.Time) *models.RoundResult {
	return &models.RoundResult{
		RoomID:    room,
		Round:     round,
		StartedAt: ended.Add(-3 * time.Minute),
		EndedAt:   ended,
		Policy:    models.PolicyAllowWithDecay,
		Decay:     models.DecaySoft,
		Revealed:  100,
		Leaderboard: []models.LeaderboardEntry{
			{PlayerID: "s1", Name: "ann", Score: 11, Words: []models.WordBreakdown{
				{Word: "TEAM", Base: 7, Usage: 2, Final: 4},
				{Word: "MATE", Base: 7, Usage: 1, Final: 7},
			}},
			{PlayerID: "s2", Name: "bob", Score: 4, Words: []models.WordBreakdown{
				{Word: "TEAM", Base: 7, Usage: 2, Final: 4},
			}},
		},
	}
}

func stores(t *testing.T) map[string]ResultsDAL {
	t.Helper()
	sqlite, err := NewSQLiteDAL(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]ResultsDAL{
		"memory": NewMemoryDAL(),
		"sqlite": sqlite,
	}
}

func TestSaveAndListRoundResults(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveRoundResult(sampleResult("lobby", 1, base)))
			require.NoError(t, store.SaveRoundResult(sampleResult("lobby", 2, base.Add(5*time.Minute))))
			require.NoError(t, store.SaveRoundResult(sampleResult("other", 1, base.Add(time.Minute))))

			lobby, err := store.ListRoundResults("lobby", 10)
			require.NoError(t, err)
			require.Len(t, lobby, 2)
			assert.Equal(t, 2, lobby[0].Round, "newest first")
			assert.Equal(t, 1, lobby[1].Round)
			assert.True(t, base.Equal(lobby[1].EndedAt))
			assert.Equal(t, models.DecaySoft, lobby[0].Decay)
			assert.Equal(t, sampleResult("lobby", 2, base.Add(5*time.Minute)).Leaderboard, lobby[0].Leaderboard)

			all, err := store.ListRoundResults("", 2)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "lobby", all[0].RoomID)
			assert.Equal(t, "other", all[1].RoomID)

			none, err := store.ListRoundResults("missing", 10)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSaveRoundResultIsIdempotent(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			r := sampleResult("lobby", 1, ended)
			require.NoError(t, store.SaveRoundResult(r))
			r.Revealed = 80
			require.NoError(t, store.SaveRoundResult(r))

			got, err := store.ListRoundResults("lobby", 0)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, 80, got[0].Revealed)
		})
	}
}

func TestSaveRoundResultRejectsMissingRoom(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.SaveRoundResult(nil))
			assert.Error(t, store.SaveRoundResult(&models.RoundResult{Round: 1}))
		})
	}
}

func TestMemoryDALReturnsCopies(t *testing.T) {
	store := NewMemoryDAL()
	r := sampleResult("lobby", 1, time.Now())
	require.NoError(t, store.SaveRoundResult(r))

	r.Leaderboard[0].Words[0].Final = 999
	got, _ := store.ListRoundResults("lobby", 1)
	assert.Equal(t, 4, got[0].Leaderboard[0].Words[0].Final)

	got[0].Leaderboard[0].Name = "mallory"
	again, _ := store.ListRoundResults("lobby", 1)
	assert.Equal(t, "ann", again[0].Leaderboard[0].Name)
}

func TestListLimitDefaults(t *testing.T) {
	store := NewMemoryDAL()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < defaultListLimit+5; i++ {
		require.NoError(t, store.SaveRoundResult(sampleResult(fmt.Sprintf("r%d", i), 1, start.Add(time.Duration(i)*time.Minute))))
	}

	got, err := store.ListRoundResults("", 0)
	require.NoError(t, err)
	assert.Len(t, got, defaultListLimit)
	assert.Equal(t, fmt.Sprintf("r%d", defaultListLimit+4), got[0].RoomID)
}
