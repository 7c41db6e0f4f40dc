package game

import (
	"context"
	"sort"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/Billy-Davies-2/wordrush/internal/scoring"
	"github.com/Billy-Davies-2/wordrush/internal/tiles"
)

// TickerFunc creates a periodic tick channel and the function that stops it
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// NewTicker is the wall-clock TickerFunc
func NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// startRound resets the room for a new round, reveals the opening flood and
// replaces any running driver
func (r *Room) startRound(now time.Time) {
	r.stopDriver()

	r.round++
	r.pool = tiles.NewPool()
	r.bag = tiles.GenerateBag(r.rng)
	r.revealed = 0
	r.usage = make(map[string]int)
	r.windows = make(map[int64][]submission)
	r.seq = 0
	r.surgeFired = false
	r.startedAt = now
	r.endsAt = now.Add(r.cfg.RoundDuration)
	r.lastResolved = r.windowKey(now) - 1
	for _, p := range r.players {
		p.Score = 0
		p.Claims = []models.Claim{}
	}
	r.active = true

	r.reveal(r.cfg.OpeningTiles)
	r.startDriver()

	r.log.Info("Round started", "round", r.round, "endsAt", r.endsAt, "players", len(r.players), "revealed", r.revealed)
	r.publishState(now)
}

// tick advances the round to now: deadline, drip, surge, state, then window
// resolution
func (r *Room) tick(now time.Time) {
	r.mu.Lock()
	r.step(now)
	r.mu.Unlock()
	r.flush()
}

func (r *Room) step(now time.Time) {
	if !r.active {
		return
	}
	if !now.Before(r.endsAt) {
		r.resolvePending()
		r.finalize(now)
		return
	}
	r.revealDrip()
	r.maybeSurge(now)
	r.publishState(now)
	r.resolveClosed(now)
}

// roundLimit is the most tiles a round may ever reveal
func (r *Room) roundLimit() int {
	if r.cfg.RoundTiles < len(r.bag) {
		return r.cfg.RoundTiles
	}
	return len(r.bag)
}

// reveal moves up to n tiles from the bag into the pool, never past the
// round limit, and returns how many moved
func (r *Room) reveal(n int) int {
	if remaining := r.roundLimit() - r.revealed; n > remaining {
		n = remaining
	}
	if n <= 0 {
		return 0
	}
	r.pool.Add(r.bag[r.revealed : r.revealed+n]...)
	r.revealed += n
	return n
}

// revealDrip reveals min(dripPerSec, remaining) tiles
func (r *Room) revealDrip() int {
	return r.reveal(r.cfg.DripPerSec)
}

// maybeSurge fires the one-time burst once the surge second is reached
func (r *Room) maybeSurge(now time.Time) int {
	if r.surgeFired {
		return 0
	}
	if now.Sub(r.startedAt) < time.Duration(r.cfg.SurgeAtSec)*time.Second {
		return 0
	}
	r.surgeFired = true
	n := r.reveal(r.cfg.SurgeAmount)
	r.log.Debug("Surge revealed", "tiles", n)
	return n
}

// finalize ends the round: decayed scores are computed once from the final
// usage counts and broadcast, then the idle state follows
func (r *Room) finalize(now time.Time) {
	r.active = false
	r.stopDriver()

	result := r.result(now)
	r.log.Info("Round ended", "round", r.round, "players", len(result.Leaderboard), "words", len(r.usage))
	r.publish(pubsub.EventRoundEnded, map[string]interface{}{
		"leaderboard": result.Leaderboard,
		"result":      result,
	})
	r.publishState(now)
}

func (r *Room) result(now time.Time) models.RoundResult {
	board := make([]models.LeaderboardEntry, 0, len(r.players))
	for _, p := range r.players {
		entry := models.LeaderboardEntry{PlayerID: p.ID, Name: p.Name, Words: make([]models.WordBreakdown, 0, len(p.Claims))}
		for _, c := range p.Claims {
			usage := r.usage[c.Word]
			final := scoring.FinalScore(c.Base, usage, r.cfg)
			entry.Words = append(entry.Words, models.WordBreakdown{Word: c.Word, Base: c.Base, Usage: usage, Final: final})
			entry.Score += final
		}
		board = append(board, entry)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		if board[i].Name != board[j].Name {
			return board[i].Name < board[j].Name
		}
		return board[i].PlayerID < board[j].PlayerID
	})

	return models.RoundResult{
		RoomID:      r.id,
		Round:       r.round,
		StartedAt:   r.startedAt,
		EndedAt:     now,
		Policy:      r.cfg.DuplicatePolicy,
		Decay:       r.cfg.DecayModel,
		Revealed:    r.revealed,
		Leaderboard: board,
	}
}

func (r *Room) startDriver() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.driverGen++
	ticks, stop := r.newTicker(r.cfg.Tick)
	go r.drive(ctx, r.driverGen, ticks, stop)
}

func (r *Room) stopDriver() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// drive feeds ticks into the room until its round is replaced or ends
func (r *Room) drive(ctx context.Context, gen uint64, ticks <-chan time.Time, stop func()) {
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			r.mu.Lock()
			// a tick can race the cancel of a replaced driver
			if gen == r.driverGen && ctx.Err() == nil {
				r.step(now)
			}
			r.mu.Unlock()
			r.flush()
		}
	}
}
