package pubsub

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPubSub implements pub/sub on a remote NATS JetStream server, so every
// instance sees room events regardless of where the room lives
type NATSPubSub struct {
	*jetStreamBridge
}

// NewNATSPubSub connects to natsURL and binds the events subject to a
// file-backed stream that keeps only a short tail of events
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL, nats.Name("wordrush"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bridge, err := newJetStreamBridge(nc, subject, eventStreamOptions("WORDRUSH_EVENTS", nats.FileStorage))
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSPubSub{jetStreamBridge: bridge}, nil
}

// Close closes all subscriber channels and the NATS connection
func (p *NATSPubSub) Close() {
	p.close()
}
