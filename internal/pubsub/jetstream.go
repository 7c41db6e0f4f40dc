package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/nats-io/nats.go"
)

// jetStreamBridge publishes events to a JetStream subject and fans every
// message received on that subject out to local subscribers. Both the remote
// and the embedded NATS implementations are built on it.
type jetStreamBridge struct {
	nc          *nats.Conn
	js          nats.JetStreamContext
	subject     string
	sub         *nats.Subscription
	subscribers []chan Event
	mu          sync.RWMutex
}

// Room state is rebroadcast every tick and subscribers start from new
// messages, so the stream only needs to hold a short tail
const (
	eventRetention = 10 * time.Minute
	maxStreamMsgs  = 100_000
)

type streamOptions struct {
	name    string
	storage nats.StorageType
	maxAge  time.Duration
	maxMsgs int64
}

func eventStreamOptions(name string, storage nats.StorageType) streamOptions {
	return streamOptions{
		name:    name,
		storage: storage,
		maxAge:  eventRetention,
		maxMsgs: maxStreamMsgs,
	}
}

func (o streamOptions) config(subject string) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:     o.name,
		Subjects: []string{subject},
		Storage:  o.storage,
		MaxAge:   o.maxAge,
		MaxMsgs:  o.maxMsgs,
		Discard:  nats.DiscardOld,
	}
}

func newJetStreamBridge(nc *nats.Conn, subject string, opts streamOptions) (*jetStreamBridge, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	cfg := opts.config(subject)
	if _, err := js.StreamInfo(opts.name); err != nil {
		if _, err := js.AddStream(cfg); err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", opts.name, err)
		}
		logger.Info("JetStream stream created", "stream", opts.name, "subject", subject, "max_age", opts.maxAge)
	} else if _, err := js.UpdateStream(cfg); err != nil {
		// an older stream keeps its limits; events still flow
		logger.Warn("Failed to apply JetStream retention limits", "error", err, "stream", opts.name)
	}

	b := &jetStreamBridge{
		nc:          nc,
		js:          js,
		subject:     subject,
		subscribers: make([]chan Event, 0),
	}

	b.sub, err = js.Subscribe(subject, b.handle, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return b, nil
}

func (b *jetStreamBridge) handle(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal event from JetStream", "error", err)
		msg.Term()
		return
	}

	// sends are non-blocking, so holding the read lock keeps Unsubscribe from
	// closing a channel mid-send
	b.mu.RLock()
	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			logger.Warn("JetStream: Skipping slow subscriber", "event_type", event.Type, "room", event.Room)
		}
	}
	b.mu.RUnlock()

	msg.Ack()
}

// Publish publishes an event to the JetStream subject
func (b *jetStreamBridge) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", b.subject, "event_type", event.Type)
		return
	}
}

// Subscribe creates a subscription channel for events
func (b *jetStreamBridge) Subscribe() chan Event {
	ch := make(chan Event, 100)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription channel
func (b *jetStreamBridge) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// GetSubscriberCount returns the number of active local subscribers
func (b *jetStreamBridge) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *jetStreamBridge) close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}

	b.mu.Lock()
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
	b.mu.Unlock()

	if b.nc != nil {
		b.nc.Close()
	}
}
