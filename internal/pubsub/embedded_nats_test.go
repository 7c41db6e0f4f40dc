package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbedded(t *testing.T, opts EmbeddedNATSOptions) *EmbeddedNATSPubSub {
	t.Helper()
	ps, err := NewEmbeddedNATSPubSub(opts)
	require.NoError(t, err)
	return ps
}

func TestDefaultEmbeddedNATSOptions(t *testing.T) {
	opts := DefaultEmbeddedNATSOptions()
	assert.Equal(t, -1, opts.Port)
	assert.Equal(t, "wordrush.events", opts.Subject)
	assert.Equal(t, "WORDRUSH_EVENTS", opts.StreamName)
	assert.Empty(t, opts.StoreDir)
}

func TestEmbeddedNATSStartup(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	assert.NotNil(t, ps.server)
	assert.NotNil(t, ps.nc)
	assert.NotNil(t, ps.js)
	assert.NotEmpty(t, ps.GetServerURL())
}

func TestEmbeddedNATSCustomSubject(t *testing.T) {
	ps := newEmbedded(t, EmbeddedNATSOptions{Port: 0, Subject: "custom.events", StreamName: "CUSTOM"})
	defer ps.Close()

	assert.Equal(t, "custom.events", ps.subject)
}

func TestEmbeddedNATSRoundTrip(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	require.Equal(t, 2, ps.GetSubscriberCount())

	ps.Publish(Event{
		Type:    EventClaimAccepted,
		Room:    "r1",
		Payload: map[string]interface{}{"name": "ada", "points": 7},
	})

	for _, ch := range []chan Event{ch1, ch2} {
		ev := receive(t, ch, 2*time.Second)
		assert.Equal(t, EventClaimAccepted, ev.Type)
		assert.Equal(t, "r1", ev.Room)
		assert.Equal(t, "ada", ev.Payload["name"])
		// numbers come back as float64 after the JSON hop
		assert.Equal(t, 7.0, ev.Payload["points"])
	}
}

func TestEmbeddedNATSConcurrentPublish(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	ch := ps.Subscribe()

	const publishers, perPublisher = 5, 10
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				ps.Publish(Event{Type: EventRoomState, Payload: map[string]interface{}{"publisher": id, "seq": j}})
			}
		}(i)
	}
	wg.Wait()

	received := 0
	timeout := time.After(5 * time.Second)
	for received < publishers*perPublisher {
		select {
		case <-ch:
			received++
		case <-timeout:
			t.Fatalf("received %d/%d events before timeout", received, publishers*perPublisher)
		}
	}
}

func TestEmbeddedNATSUnsubscribeAndClose(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())

	gone := ps.Subscribe()
	kept := ps.Subscribe()
	ps.Unsubscribe(gone)
	assert.Equal(t, 1, ps.GetSubscriberCount())
	_, ok := <-gone
	assert.False(t, ok)

	ps.Close()
	_, ok = <-kept
	assert.False(t, ok, "Close should close remaining subscriber channels")
}

func TestEmbeddedNATSAsUpstream(t *testing.T) {
	nats := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer nats.Close()

	ps := NewWithUpstream(nats)
	ch := ps.Subscribe()

	ps.Publish(Event{Type: EventRoundEnded, Room: "r9"})

	ev := receive(t, ch, 2*time.Second)
	assert.Equal(t, EventRoundEnded, ev.Type)
	assert.Equal(t, "r9", ev.Room)
}

func TestEventStreamOptionsBoundRetention(t *testing.T) {
	cfg := eventStreamOptions("WORDRUSH_EVENTS", nats.FileStorage).config("wordrush.events")
	assert.Equal(t, nats.FileStorage, cfg.Storage)
	assert.Equal(t, eventRetention, cfg.MaxAge)
	assert.Equal(t, int64(maxStreamMsgs), cfg.MaxMsgs)
	assert.Equal(t, nats.DiscardOld, cfg.Discard)
	assert.Equal(t, []string{"wordrush.events"}, cfg.Subjects)
}

func TestEmbeddedNATSStreamHasRetention(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	info, err := ps.js.StreamInfo("WORDRUSH_EVENTS")
	require.NoError(t, err)
	assert.Equal(t, eventRetention, info.Config.MaxAge)
	assert.Equal(t, int64(maxStreamMsgs), info.Config.MaxMsgs)
	assert.Equal(t, nats.DiscardOld, info.Config.Discard)
}

func TestExistingStreamGetsRetention(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	// a stream left behind without limits
	_, err := ps.js.AddStream(&nats.StreamConfig{
		Name:     "LEGACY",
		Subjects: []string{"legacy.events"},
		Storage:  nats.MemoryStorage,
	})
	require.NoError(t, err)

	b, err := newJetStreamBridge(ps.nc, "legacy.events", eventStreamOptions("LEGACY", nats.MemoryStorage))
	require.NoError(t, err)
	defer b.sub.Unsubscribe()

	info, err := ps.js.StreamInfo("LEGACY")
	require.NoError(t, err)
	assert.Equal(t, eventRetention, info.Config.MaxAge)
	assert.Equal(t, int64(maxStreamMsgs), info.Config.MaxMsgs)
}
