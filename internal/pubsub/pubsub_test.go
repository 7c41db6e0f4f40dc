package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan Event, within time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(within):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ps := New()
	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	ch3 := ps.Subscribe()
	require.Equal(t, 3, ps.SubscriberCount())

	ps.Unsubscribe(ch2)
	assert.Equal(t, 2, ps.SubscriberCount())

	_, ok := <-ch2
	assert.False(t, ok, "unsubscribed channel should be closed")

	ps.Publish(Event{Type: EventRoomState, Room: "lobby"})
	assert.Equal(t, "lobby", receive(t, ch1, 100*time.Millisecond).Room)
	assert.Equal(t, "lobby", receive(t, ch3, 100*time.Millisecond).Room)
}

func TestUnsubscribeUnknownChannel(t *testing.T) {
	ps := New()
	ch := make(chan Event, 1)
	ps.Unsubscribe(ch)

	// still open
	ch <- Event{Type: "x"}
	assert.Equal(t, "x", (<-ch).Type)
}

func TestPublishNoSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		New().Publish(Event{Type: EventRoundEnded})
	})
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	for i := 0; i < subscriberBuffer+20; i++ {
		ps.Publish(Event{Type: EventRoomState})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestPublishCarriesPayload(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	ps.Publish(Event{
		Type: EventClaimAccepted,
		Room: "r1",
		Payload: map[string]interface{}{
			"name":   "ada",
			"points": 7,
			"nested": map[string]interface{}{"k": "v"},
		},
	})

	ev := receive(t, ch, 100*time.Millisecond)
	assert.Equal(t, EventClaimAccepted, ev.Type)
	assert.Equal(t, "ada", ev.Payload["name"])
	assert.Equal(t, 7, ev.Payload["points"])
	assert.Equal(t, "v", ev.Payload["nested"].(map[string]interface{})["k"])
}

func TestConcurrentSubscribeUnsubscribePublish(t *testing.T) {
	ps := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := ps.Subscribe()
			time.Sleep(time.Millisecond)
			ps.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			ps.Publish(Event{Type: EventRoomState})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, ps.SubscriberCount())
}

// fakeUpstream loops every published event back to its subscribers, the way
// a broker would for a single instance
type fakeUpstream struct {
	mu          sync.Mutex
	published   []Event
	subscribers []chan Event
}

func (f *fakeUpstream) Publish(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	for _, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (f *fakeUpstream) Subscribe() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Event, 100)
	f.subscribers = append(f.subscribers, ch)
	return ch
}

func (f *fakeUpstream) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subscribers {
		if sub == ch {
			close(ch)
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			return
		}
	}
}

func (f *fakeUpstream) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func TestPublishGoesThroughUpstream(t *testing.T) {
	up := &fakeUpstream{}
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	ps.Publish(Event{Type: EventRoundEnded, Room: "r1"})

	ev := receive(t, ch, time.Second)
	assert.Equal(t, EventRoundEnded, ev.Type)
	assert.Equal(t, 1, up.count())
}

func TestUpstreamEventsReachLocalSubscribers(t *testing.T) {
	up := &fakeUpstream{}
	ps := NewWithUpstream(up)
	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()

	// another instance publishing
	up.Publish(Event{Type: EventRoomState, Room: "remote"})

	assert.Equal(t, "remote", receive(t, ch1, time.Second).Room)
	assert.Equal(t, "remote", receive(t, ch2, time.Second).Room)
}
