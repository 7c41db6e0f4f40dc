package fuzz

import (
	"testing"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/dictionary"
	"github.com/Billy-Davies-2/wordrush/internal/game"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
)

func init() {
	// Initialize logger for tests
	logger.Init()
}

func idleTicker(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

// newRegistry returns a registry whose rounds never tick, with one player
// already seated in "lobby" on connection "c1"
func newRegistry(t *testing.T) (*game.Registry, *pubsub.PubSub) {
	t.Helper()
	ps := pubsub.New()
	opts := game.DefaultRegistryOptions()
	opts.Ticker = idleTicker
	reg := game.NewRegistry(dictionary.New("CAT", "ACT", "TEAM", "MATE"), ps, opts)
	t.Cleanup(reg.Close)
	if _, err := reg.Join("lobby", "c1", "ann"); err != nil {
		t.Fatalf("seed join: %v", err)
	}
	return reg, ps
}
