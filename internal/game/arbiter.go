package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/Billy-Davies-2/wordrush/internal/scoring"
	"github.com/Billy-Davies-2/wordrush/internal/tiles"
)

// submission is a claim waiting in a window bucket
type submission struct {
	at        time.Time
	seq       uint64
	connID    string
	sessionID string
	word      string
}

func (r *Room) windowKey(t time.Time) int64 {
	w := r.cfg.Window.Milliseconds()
	ms := t.UnixMilli()
	k := ms / w
	if ms%w < 0 {
		k--
	}
	return k
}

// Enqueue files a normalized claim under its window. It reports false when
// the claim is dropped before arbitration: no active round, stamped at or
// after the deadline, or its window has already been resolved.
func (r *Room) Enqueue(connID, sessionID, word string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enqueue(submission{at: at, connID: connID, sessionID: sessionID, word: word})
}

func (r *Room) enqueue(s submission) bool {
	if !r.active {
		r.log.Debug("Submission dropped, no active round", "session", s.sessionID)
		return false
	}
	if !s.at.Before(r.endsAt) {
		r.log.Debug("Submission dropped, past deadline", "session", s.sessionID)
		return false
	}
	key := r.windowKey(s.at)
	if key <= r.lastResolved {
		r.log.Debug("Submission dropped, window already resolved", "session", s.sessionID, "window", key)
		return false
	}

	r.seq++
	s.seq = r.seq
	r.windows[key] = append(r.windows[key], s)
	return true
}

// resolveClosed resolves every pending window that ended at least one window
// width before now, oldest first.
func (r *Room) resolveClosed(now time.Time) {
	cutoff := r.windowKey(now.Add(-r.cfg.Window))
	r.resolveThrough(cutoff)
	if cutoff > r.lastResolved {
		r.lastResolved = cutoff
	}
}

// resolvePending resolves everything still buffered. Used at the deadline,
// when no further submission can be filed.
func (r *Room) resolvePending() {
	for key := range r.windows {
		if key > r.lastResolved {
			r.lastResolved = key
		}
	}
	r.resolveThrough(r.lastResolved)
}

func (r *Room) resolveThrough(cutoff int64) {
	keys := make([]int64, 0, len(r.windows))
	for key := range r.windows {
		if key <= cutoff {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		r.resolveWindow(key)
	}
}

// resolveWindow arbitrates one window. Claims are checked in timestamp order
// against a private copy of the pool; only after the whole window is decided
// are the winners applied to the live pool.
func (r *Room) resolveWindow(key int64) {
	subs := r.windows[key]
	delete(r.windows, key)
	if len(subs) == 0 {
		return
	}

	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].at.Equal(subs[j].at) {
			return subs[i].at.Before(subs[j].at)
		}
		return subs[i].seq < subs[j].seq
	})

	snapshot := r.pool.Clone()
	inWindow := make(map[string]map[string]bool)
	accepted := make([]submission, 0, len(subs))

	for _, s := range subs {
		if reason := r.reject(s, inWindow[s.sessionID]); reason != "" {
			r.log.Debug("Submission rejected", "session", s.sessionID, "reason", reason, "window", key)
			continue
		}
		if !tiles.CanSatisfy(s.word, snapshot) {
			r.log.Debug("Submission rejected", "session", s.sessionID, "reason", "tiles unavailable", "window", key)
			continue
		}
		tiles.Consume(s.word, snapshot)
		if inWindow[s.sessionID] == nil {
			inWindow[s.sessionID] = make(map[string]bool)
		}
		inWindow[s.sessionID][s.word] = true
		accepted = append(accepted, s)
	}

	for _, s := range accepted {
		r.apply(s)
	}
}

// reject returns why a claim fails validation, or "" when it may proceed to
// the feasibility check
func (r *Room) reject(s submission, claimedThisWindow map[string]bool) string {
	p, ok := r.players[s.sessionID]
	if !ok {
		return "player left"
	}
	if !lettersOnly(s.word) {
		return "not letters"
	}
	if len(s.word) < r.cfg.MinWordLen {
		return "too short"
	}
	if r.dict == nil || !r.dict.Contains(s.word) {
		return "not a word"
	}
	if r.cfg.DuplicatePolicy == models.PolicyDisallow {
		if claimedThisWindow[s.word] {
			return "duplicate"
		}
		for _, c := range p.Claims {
			if c.Word == s.word {
				return "duplicate"
			}
		}
	}
	return ""
}

func (r *Room) apply(s submission) {
	tiles.Consume(s.word, r.pool)

	base := scoring.BaseScore(s.word)
	p := r.players[s.sessionID]
	p.Score += base
	p.Claims = append(p.Claims, models.Claim{Word: s.word, Base: base})
	r.usage[s.word]++

	r.log.Debug("Claim accepted", "session", s.sessionID, "length", len(s.word), "points", base)
	r.publish(pubsub.EventClaimAccepted, map[string]interface{}{
		"sessionId": p.ID,
		"player":    p.Name,
		"length":    len(s.word),
		"points":    base,
		"feed":      fmt.Sprintf("%s claimed a %d-letter word for %d points", p.Name, len(s.word), base),
	})
}

func lettersOnly(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return false
		}
	}
	return true
}
