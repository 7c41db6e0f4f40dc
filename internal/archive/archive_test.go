package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/dal"
	"github.com/Billy-Davies-2/wordrush/internal/mocks"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) RecordRound(result *models.RoundResult) error {
	args := m.Called(result)
	return args.Error(0)
}

func result(room string) models.RoundResult {
	ended := time.Date(2026, 5, 1, 10, 3, 0, 0, time.UTC)
	return models.RoundResult{
		RoomID:    room,
		Round:     3,
		StartedAt: ended.Add(-3 * time.Minute),
		EndedAt:   ended,
		Policy:    models.PolicyAllowWithDecay,
		Decay:     models.DecaySoft,
		Revealed:  100,
		Leaderboard: []models.LeaderboardEntry{
			{PlayerID: "s1", Name: "ann", Score: 7, Words: []models.WordBreakdown{{Word: "TEAM", Base: 7, Usage: 1, Final: 7}}},
		},
	}
}

func ended(r models.RoundResult) pubsub.Event {
	return pubsub.Event{
		Type:    pubsub.EventRoundEnded,
		Room:    r.RoomID,
		Payload: map[string]interface{}{"leaderboard": r.Leaderboard, "result": r},
	}
}

// overTheWire mimics an event that went through NATS
func overTheWire(t *testing.T, ev pubsub.Event) pubsub.Event {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	var out pubsub.Event
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDecodeResultLocalAndRemote(t *testing.T) {
	want := result("lobby")
	for name, ev := range map[string]pubsub.Event{
		"local":  ended(want),
		"remote": overTheWire(t, ended(want)),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeResult(ev.Payload)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		})
	}
}

func TestDecodeResultErrors(t *testing.T) {
	_, err := DecodeResult(map[string]interface{}{})
	assert.Error(t, err)

	_, err = DecodeResult(map[string]interface{}{"result": "nope"})
	assert.Error(t, err)

	_, err = DecodeResult(map[string]interface{}{"result": map[string]interface{}{"round": 1}})
	assert.Error(t, err)
}

func TestHandleStoresAndRecords(t *testing.T) {
	store := dal.NewMemoryDAL()
	analytics := &mockAnalytics{}
	analytics.On("RecordRound", mock.AnythingOfType("*models.RoundResult")).Return(nil).Once()

	a := New(store, analytics, nil)
	require.NoError(t, a.Handle(pubsub.Event{Type: pubsub.EventRoomState, Room: "lobby"}))
	require.NoError(t, a.Handle(ended(result("lobby"))))

	got, err := store.ListRoundResults("lobby", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Round)
	analytics.AssertExpectations(t)
}

func TestHandleSkipsRemoteRooms(t *testing.T) {
	store := dal.NewMemoryDAL()
	a := New(store, nil, func(room string) bool { return room == "mine" })

	require.NoError(t, a.Handle(ended(result("theirs"))))
	require.NoError(t, a.Handle(ended(result("mine"))))

	got, _ := store.ListRoundResults("", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].RoomID)
}

func TestHandleReportsAnalyticsFailure(t *testing.T) {
	analytics := &mockAnalytics{}
	analytics.On("RecordRound", mock.Anything).Return(errors.New("clickhouse down"))

	err := New(dal.NewMemoryDAL(), analytics, nil).Handle(ended(result("lobby")))
	assert.ErrorContains(t, err, "clickhouse down")
}

func TestRunArchivesFromBus(t *testing.T) {
	bus := pubsub.New()
	store := dal.NewMemoryDAL()
	analytics := mocks.NewMockAnalytics()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(store, analytics, nil).Run(ctx, bus)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.Publish(ended(result("lobby")))

	assert.Eventually(t, func() bool {
		got, _ := store.ListRoundResults("lobby", 1)
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		top, _ := analytics.TopWords(1)
		return len(top) == 1 && top[0].Word == "TEAM"
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, bus.SubscriberCount())
}
