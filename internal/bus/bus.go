// Package bus is the in-process event fan-out between the ingestion pipeline
// and its consumers (web status, disseminator). Publishing uses TryPub so a
// slow subscriber never stalls the feed readers.
package bus

import (
	"github.com/cskr/pubsub"
)

// Topic names carried on the bus.
const (
	TopicNavSnapshot = "nav.snapshot" // nav.View
	TopicTargets     = "ais.targets"  // ais.Target (one per update)
	TopicWarnings    = "cpa.warnings" // []ais.Target, sorted by ascending CPA
	TopicFeedStatus  = "feed.status"  // feed.Snapshot
	TopicParseError  = "nmea.error"   // *nmea.Error
)

type Subscription chan any

type Bus struct {
	ps *pubsub.PubSub
}

func New() *Bus {
	return &Bus{ps: pubsub.New(128)}
}

// Publish never blocks; messages to full subscriber channels are dropped.
func (b *Bus) Publish(topic string, msg any) {
	if b == nil {
		return
	}
	b.ps.TryPub(msg, topic)
}

func (b *Bus) Subscribe(topics ...string) Subscription {
	if b == nil {
		return nil
	}
	return b.ps.Sub(topics...)
}

func (b *Bus) Unsubscribe(ch Subscription, topics ...string) {
	if b == nil || ch == nil {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, topics...)
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.ps.Shutdown()
}
