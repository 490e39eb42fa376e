package queue

import (
	"context"
	"log/slog"

	"github.com/psavelis/safelynx/internal/eventbus"
)

// RelayEvents subscribes to bus and republishes every domain event onto
// the EVENTS stream under "events.<type>", giving durable consumers
// (the API's WebSocket broadcaster, audit log exporters) a replayable
// feed independent of the in-process bus's drop-for-laggards policy.
// It runs until ctx is canceled.
func RelayEvents(ctx context.Context, bus *eventbus.Bus, producer *Producer) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := producer.PublishEvent(ctx, e.Type(), e); err != nil {
				slog.Warn("relay event to nats failed", "type", e.Type(), "error", err)
			}
		}
	}
}
