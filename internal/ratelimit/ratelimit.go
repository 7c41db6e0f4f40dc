// Package ratelimit gates submissions per connection with a token bucket
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultCapacity     = 10
	DefaultRefillPerSec = 5
)

// Limiter keeps one token bucket per connection
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	capacity int
	refill   rate.Limit
}

// NewLimiter creates a limiter whose buckets hold capacity tokens and refill
// at refillPerSec tokens per second
func NewLimiter(capacity int, refillPerSec float64) *Limiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if refillPerSec <= 0 {
		refillPerSec = DefaultRefillPerSec
	}
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		capacity: capacity,
		refill:   rate.Limit(refillPerSec),
	}
}

// Allow spends one token from the connection's bucket at time now. A new
// connection starts with a full bucket.
func (l *Limiter) Allow(connID string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[connID]
	if !ok {
		b = rate.NewLimiter(l.refill, l.capacity)
		l.buckets[connID] = b
	}
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// Forget drops the bucket of a disconnected connection
func (l *Limiter) Forget(connID string) {
	l.mu.Lock()
	delete(l.buckets, connID)
	l.mu.Unlock()
}

// Prune drops every bucket whose connection keep rejects and returns how many
// went
func (l *Limiter) Prune(keep func(connID string) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for connID := range l.buckets {
		if !keep(connID) {
			delete(l.buckets, connID)
			n++
		}
	}
	return n
}

// Len returns the number of tracked connections
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
