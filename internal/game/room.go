// Package game is the per-room engine: players, the tile pool, windowed claim
// arbitration and the round scheduler, plus the registry that owns the rooms.
package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/Billy-Davies-2/wordrush/internal/tiles"
)

// Dictionary answers whether an uppercase token is a playable word
type Dictionary interface {
	Contains(word string) bool
}

// Publisher receives the room's outbound events
type Publisher interface {
	Publish(pubsub.Event)
}

// Room is one game instance. Every exported entry point and every tick takes
// mu and runs to completion, so in-room state is never observed half-updated.
// Events raised under mu wait in outbox and go to the publisher only after mu
// is released; sendMu keeps their order.
type Room struct {
	mu     sync.Mutex
	sendMu sync.Mutex
	outbox []pubsub.Event

	id        string
	cfg       models.RoomConfig
	dict      Dictionary
	pub       Publisher
	rng       *rand.Rand
	newTicker TickerFunc
	log       *slog.Logger

	players map[string]*models.Player // by session id

	pool       tiles.Pool
	bag        []rune
	revealed   int
	active     bool
	round      int
	startedAt  time.Time
	endsAt     time.Time
	surgeFired bool

	windows      map[int64][]submission
	lastResolved int64
	seq          uint64
	usage        map[string]int

	cancel     context.CancelFunc
	driverGen  uint64
	emptySince time.Time
}

func newRoom(id string, cfg models.RoomConfig, dict Dictionary, pub Publisher, rng *rand.Rand, newTicker TickerFunc, now time.Time) *Room {
	if newTicker == nil {
		newTicker = NewTicker
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Room{
		id:         id,
		cfg:        cfg,
		dict:       dict,
		pub:        pub,
		rng:        rng,
		newTicker:  newTicker,
		log:        logger.With("component", "room", "room", id),
		players:    make(map[string]*models.Player),
		pool:       tiles.NewPool(),
		windows:    make(map[int64][]submission),
		usage:      make(map[string]int),
		emptySince: now,
	}
}

// ID returns the room identifier
func (r *Room) ID() string {
	return r.id
}

// addPlayer adds or renames a player and starts a round when none is running
func (r *Room) addPlayer(sessionID, name string, now time.Time) {
	r.seat(sessionID, name, now)
	r.flush()
}

// seat is addPlayer without delivering the resulting events
func (r *Room) seat(sessionID, name string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[sessionID]; ok {
		p.Name = name
	} else {
		r.players[sessionID] = &models.Player{ID: sessionID, Name: name, Claims: []models.Claim{}}
	}
	r.emptySince = time.Time{}
	r.log.Info("Player joined", "session", sessionID, "name", name, "players", len(r.players))

	if !r.active {
		r.startRound(now)
		return
	}
	r.publishState(now)
}

// removePlayer drops a player. Words it already claimed keep counting toward
// usage, but it leaves the leaderboard.
func (r *Room) removePlayer(sessionID string, now time.Time) {
	r.unseat(sessionID, now)
	r.flush()
}

func (r *Room) unseat(sessionID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[sessionID]; !ok {
		return
	}
	delete(r.players, sessionID)
	if len(r.players) == 0 {
		r.emptySince = now
	}
	r.log.Info("Player left", "session", sessionID, "players", len(r.players))
	r.publishState(now)
}

// StartRound resets the room and begins a new round at now
func (r *Room) StartRound(now time.Time) {
	r.mu.Lock()
	r.startRound(now)
	r.mu.Unlock()
	r.flush()
}

// State returns the public snapshot of the room at now
func (r *Room) State(now time.Time) models.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(now)
}

// idleFor reports whether the room has had no players for at least ttl
func (r *Room) idleFor(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0 && !r.emptySince.IsZero() && now.Sub(r.emptySince) >= ttl
}

// close stops the room's driver
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.stopDriver()
}

func (r *Room) state(now time.Time) models.RoomState {
	players := make([]models.PlayerScore, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, models.PlayerScore{ID: p.ID, Name: p.Name, Score: p.Score, Words: len(p.Claims)})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})

	var left int64
	if r.active && now.Before(r.endsAt) {
		left = r.endsAt.Sub(now).Milliseconds()
	}

	return models.RoomState{
		RoomID:     r.id,
		Round:      r.round,
		Active:     r.active,
		Pool:       r.pool.Counts(),
		Players:    players,
		Revealed:   r.revealed,
		RoundTiles: r.roundLimit(),
		TimeLeftMS: left,
	}
}

func (r *Room) publishState(now time.Time) {
	r.publish(pubsub.EventRoomState, map[string]interface{}{"state": r.state(now)})
}

// publish queues an event; callers hold mu
func (r *Room) publish(eventType string, payload map[string]interface{}) {
	if r.pub == nil {
		return
	}
	r.outbox = append(r.outbox, pubsub.Event{Type: eventType, Room: r.id, Payload: payload})
}

// flush hands queued events to the publisher in the order they were raised.
// It must be called without mu or any registry lock held.
func (r *Room) flush() {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	r.mu.Lock()
	events := r.outbox
	r.outbox = nil
	r.mu.Unlock()

	for _, e := range events {
		r.pub.Publish(e)
	}
}
