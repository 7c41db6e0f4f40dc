// Package archive persists finished rounds from the event bus into the
// results store and the word analytics backend.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Billy-Davies-2/wordrush/internal/dal"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
)

// Analytics receives every finished round
type Analytics interface {
	RecordRound(result *models.RoundResult) error
}

// Subscriber is the part of the bus the archiver reads from
type Subscriber interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Archiver writes round:ended events to storage
type Archiver struct {
	store     dal.ResultsDAL
	analytics Analytics
	// local filters events to rooms hosted by this process, so each round is
	// archived once when the bus is shared between instances
	local func(roomID string) bool
}

// New creates an archiver. analytics and local may be nil.
func New(store dal.ResultsDAL, analytics Analytics, local func(roomID string) bool) *Archiver {
	return &Archiver{store: store, analytics: analytics, local: local}
}

// Run consumes bus events until ctx is done or the subscription closes
func (a *Archiver) Run(ctx context.Context, bus Subscriber) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := a.Handle(ev); err != nil {
				logger.Error("Failed to archive round", "room", ev.Room, "error", err)
			}
		}
	}
}

// Handle archives a single event; anything but round:ended is ignored
func (a *Archiver) Handle(ev pubsub.Event) error {
	if ev.Type != pubsub.EventRoundEnded {
		return nil
	}
	if a.local != nil && !a.local(ev.Room) {
		return nil
	}

	result, err := DecodeResult(ev.Payload)
	if err != nil {
		return err
	}

	if err := a.store.SaveRoundResult(result); err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}
	logger.Info("Round archived", "room", result.RoomID, "round", result.Round, "players", len(result.Leaderboard))

	if a.analytics != nil {
		if err := a.analytics.RecordRound(result); err != nil {
			return fmt.Errorf("failed to record round analytics: %w", err)
		}
	}
	return nil
}

// DecodeResult extracts the RoundResult from a round:ended payload. Locally
// published events carry the struct; events that crossed NATS carry its JSON
// decoding, so both go through a JSON round trip.
func DecodeResult(payload map[string]interface{}) (*models.RoundResult, error) {
	raw, ok := payload["result"]
	if !ok {
		return nil, fmt.Errorf("round:ended payload has no result")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	var result models.RoundResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if result.RoomID == "" {
		return nil, fmt.Errorf("round result has no room id")
	}
	return &result, nil
}
