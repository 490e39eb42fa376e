// Package eventbus broadcasts domain events to in-process subscribers,
// such as the NATS relay that mirrors events onto the EVENTS stream.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/psavelis/safelynx/internal/domain/event"
)

// subscriberCapacity bounds how many events a lagging subscriber can
// queue before new events are dropped for it.
const subscriberCapacity = 1024

// Bus fans out published events to every active subscriber. A slow
// subscriber never blocks publishers or other subscribers: events are
// dropped for it instead.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscription is a single consumer's channel of events.
type Subscription struct {
	events chan event.DomainEvent
	bus    *Bus
}

// Events returns the channel to range over for received events. It is
// closed when Unsubscribe is called.
func (s *Subscription) Events() <-chan event.DomainEvent {
	return s.events
}

// Publish broadcasts an event to all current subscribers. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(e event.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub := range b.subscribers {
		select {
		case sub.events <- e:
			delivered++
		default:
			slog.Warn("event subscriber lagging, dropping event", "type", e.Type())
		}
	}
	slog.Debug("published event", "type", e.Type(), "subscribers", delivered)
}

// Subscribe registers a new subscription. Callers must call Unsubscribe
// when done to release the channel.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		events: make(chan event.DomainEvent, subscriberCapacity),
		bus:    b,
	}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub.events)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
