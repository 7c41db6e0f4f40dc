package game

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/dictionary"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/Billy-Davies-2/wordrush/internal/tiles"
)

var t0 = time.UnixMilli(0)

func at(ms int64) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// recorder captures published events
type recorder struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (r *recorder) Publish(e pubsub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []pubsub.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pubsub.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) ofType(eventType string) []pubsub.Event {
	var out []pubsub.Event
	for _, e := range r.all() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last() pubsub.Event {
	all := r.all()
	return all[len(all)-1]
}

// manualTicker hands out tick channels the test drives by hand
type manualTicker struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped int
}

func (m *manualTicker) New(d time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	m.mu.Lock()
	m.chans = append(m.chans, ch)
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		m.stopped++
		m.mu.Unlock()
	}
}

func (m *manualTicker) created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

func (m *manualTicker) stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *manualTicker) channel(i int) chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chans[i]
}

var testWords = dictionary.New("TEAM", "MEAT", "MATE", "CAT", "ACT", "TAC", "ZEBRA", "QI", "DOG")

// quietConfig reveals nothing on its own so tests control the pool
func quietConfig() models.RoomConfig {
	cfg := models.DefaultRoomConfig()
	cfg.RoundTiles = 0
	cfg.OpeningTiles = 0
	cfg.DripPerSec = 0
	cfg.SurgeAmount = 0
	return cfg
}

func newTestRoom(t *testing.T, cfg models.RoomConfig) (*Room, *recorder, *manualTicker) {
	t.Helper()
	rec := &recorder{}
	tk := &manualTicker{}
	room := newRoom("r1", cfg, testWords, rec, rand.New(rand.NewPCG(1, 2)), tk.New, t0)
	t.Cleanup(room.close)
	return room, rec, tk
}

func (r *Room) setPool(p tiles.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = p
}

func (r *Room) poolCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pool.Counts()
}
