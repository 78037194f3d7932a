package api

import (
	"sync"
)

// TopicFleet receives one event per completed refresh cycle.
const TopicFleet = "fleet"

// Event is a twin-refresh notification fanned out to stream subscribers.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// EventBroker fans refresh events out to stream subscribers. The in-memory
// Broker serves a single instance; RedisBroker spans instances.
type EventBroker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers to every subscriber, dropping events for slow consumers
// rather than blocking the refresh path.
func (b *Broker) Publish(topic string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
