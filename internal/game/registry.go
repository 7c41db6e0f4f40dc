package game

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/ratelimit"
	"github.com/google/uuid"
)

const maxNameLen = 24

// RegistryOptions configures a Registry
type RegistryOptions struct {
	Room          models.RoomConfig  // settings for lazily created rooms
	IdleTTL       time.Duration      // empty rooms older than this are destroyed
	SweepInterval time.Duration      // how often Run sweeps
	Limiter       *ratelimit.Limiter // per-connection submission limiter
	Ticker        TickerFunc         // tick source for room drivers
	Now           func() time.Time   // clock for joins and round starts
	Rand          func() *rand.Rand  // per-room shuffle source
}

// DefaultRegistryOptions returns production defaults
func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		Room:          models.DefaultRoomConfig(),
		IdleTTL:       10 * time.Minute,
		SweepInterval: 30 * time.Second,
	}
}

type membership struct {
	roomID    string
	sessionID string
}

// Registry owns every room and maps connections to the session they joined
// with. Lock order is registry then room.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	conns map[string]membership

	dict    Dictionary
	pub     Publisher
	opts    RegistryOptions
	limiter *ratelimit.Limiter
}

// NewRegistry creates an empty registry
func NewRegistry(dict Dictionary, pub Publisher, opts RegistryOptions) *Registry {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewLimiter(ratelimit.DefaultCapacity, ratelimit.DefaultRefillPerSec)
	}
	if opts.Ticker == nil {
		opts.Ticker = NewTicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		conns:   make(map[string]membership),
		dict:    dict,
		pub:     pub,
		opts:    opts,
		limiter: opts.Limiter,
	}
}

// EnsureRoom returns the room with id, creating it with the default config
func (reg *Registry) EnsureRoom(id string) (*Room, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidRoom
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.ensureRoom(id), nil
}

func (reg *Registry) ensureRoom(id string) *Room {
	if room, ok := reg.rooms[id]; ok {
		return room
	}
	var rng *rand.Rand
	if reg.opts.Rand != nil {
		rng = reg.opts.Rand()
	}
	room := newRoom(id, reg.opts.Room, reg.dict, reg.pub, rng, reg.opts.Ticker, reg.opts.Now())
	reg.rooms[id] = room
	logger.Info("Room created", "room", id, "rooms", len(reg.rooms))
	return room
}

// Join puts the connection into roomID under name and returns its session id.
// Re-joining the same room keeps the session; joining another room leaves the
// previous one first. A round is started if none is active.
func (reg *Registry) Join(roomID, connID, name string) (string, error) {
	roomID = strings.TrimSpace(roomID)
	name = strings.TrimSpace(name)
	if roomID == "" {
		return "", ErrInvalidRoom
	}
	if name == "" {
		return "", ErrInvalidName
	}
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen])
	}

	reg.mu.Lock()
	now := reg.opts.Now()
	var prev *Room
	m, ok := reg.conns[connID]
	if ok && m.roomID != roomID {
		if room, exists := reg.rooms[m.roomID]; exists {
			prev = room
			prev.unseat(m.sessionID, now)
		}
		ok = false
	}
	if !ok {
		m = membership{roomID: roomID, sessionID: uuid.NewString()}
		reg.conns[connID] = m
	}
	room := reg.ensureRoom(roomID)
	room.seat(m.sessionID, name, now)
	reg.mu.Unlock()

	if prev != nil {
		prev.flush()
	}
	room.flush()
	return m.sessionID, nil
}

// Leave removes the connection's player from its room
func (reg *Registry) Leave(connID string) {
	reg.mu.Lock()
	reg.limiter.Forget(connID)
	m, ok := reg.conns[connID]
	if !ok {
		reg.mu.Unlock()
		return
	}
	delete(reg.conns, connID)
	room, exists := reg.rooms[m.roomID]
	if exists {
		room.unseat(m.sessionID, reg.opts.Now())
	}
	reg.mu.Unlock()

	if exists {
		room.flush()
	}
}

// Submit normalizes, rate-limits and files a claim from connID stamped at
// at. Connections that have not joined a room are dropped before they reach
// the limiter. The result only says whether the claim was queued; whether it
// wins is decided when its window resolves.
func (reg *Registry) Submit(connID, word string, at time.Time) bool {
	reg.mu.Lock()
	m, ok := reg.conns[connID]
	room := reg.rooms[m.roomID]
	reg.mu.Unlock()
	if !ok || room == nil {
		logger.Debug("Submission from connection without a room", "conn", connID)
		return false
	}

	if !reg.limiter.Allow(connID, at) {
		logger.Debug("Submission rate limited", "conn", connID)
		return false
	}

	word = strings.ToUpper(strings.TrimSpace(word))
	return room.Enqueue(connID, m.sessionID, word, at)
}

// Session returns the room and session a connection joined with
func (reg *Registry) Session(connID string) (roomID, sessionID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.conns[connID]
	return m.roomID, m.sessionID, ok
}

// StartRound restarts the round in roomID
func (reg *Registry) StartRound(roomID string) error {
	room, err := reg.room(roomID)
	if err != nil {
		return err
	}
	room.StartRound(reg.opts.Now())
	return nil
}

// State returns the public state of roomID
func (reg *Registry) State(roomID string) (models.RoomState, error) {
	room, err := reg.room(roomID)
	if err != nil {
		return models.RoomState{}, err
	}
	return room.State(reg.opts.Now()), nil
}

func (reg *Registry) room(roomID string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[strings.TrimSpace(roomID)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Hosts reports whether roomID lives in this registry
func (reg *Registry) Hosts(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.rooms[roomID]
	return ok
}

// RoomCount returns the number of live rooms
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Sweep destroys rooms that have had no players for the idle TTL and drops
// rate-limit buckets of connections that are no longer seated. It returns how
// many rooms went.
func (reg *Registry) Sweep(now time.Time) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if n := reg.limiter.Prune(func(connID string) bool {
		_, ok := reg.conns[connID]
		return ok
	}); n > 0 {
		logger.Debug("Stale rate-limit buckets dropped", "buckets", n)
	}

	removed := 0
	for id, room := range reg.rooms {
		if !room.idleFor(now, reg.opts.IdleTTL) {
			continue
		}
		room.close()
		delete(reg.rooms, id)
		removed++
		logger.Info("Idle room destroyed", "room", id)
	}
	return removed
}

// Run sweeps idle rooms until ctx is done
func (reg *Registry) Run(ctx context.Context) {
	ticks, stop := reg.opts.Ticker(reg.opts.SweepInterval)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			reg.Sweep(now)
		}
	}
}

// Close stops every room driver
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, room := range reg.rooms {
		room.close()
	}
}
