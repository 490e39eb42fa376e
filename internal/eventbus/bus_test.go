package eventbus

import (
	"testing"
	"time"

	"github.com/psavelis/safelynx/internal/domain/event"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	bus.Publish(event.SettingsChanged{Category: "detection", At: time.Now().UTC()})

	select {
	case e := <-sub.Events():
		if e.Type() != "settings_changed" {
			t.Fatalf("unexpected type: %s", e.Type())
		}
	case <-time.After(time.Second):
		t.Fatal("expected event to be delivered")
	}
}

func TestPublishDeliversToMultipleSubscribers(t *testing.T) {
	bus := New()
	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()
	defer bus.Unsubscribe(sub1)
	defer bus.Unsubscribe(sub2)

	bus.Publish(event.SettingsChanged{Category: "test", At: time.Now().UTC()})

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case <-sub.Events():
		case <-time.After(time.Second):
			t.Fatal("expected event to be delivered to all subscribers")
		}
	}
}

func TestSubscriberCountTracksActiveSubscriptions(t *testing.T) {
	bus := New()
	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0, got %d", bus.SubscriberCount())
	}

	sub1 := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1, got %d", bus.SubscriberCount())
	}

	sub2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Fatalf("expected 2, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub1)
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1 after unsubscribe, got %d", bus.SubscriberCount())
	}
	bus.Unsubscribe(sub2)
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := New()
	done := make(chan struct{})
	go func() {
		bus.Publish(event.SettingsChanged{Category: "test", At: time.Now().UTC()})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestPublishDropsForLaggingSubscriber(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for i := 0; i < subscriberCapacity+10; i++ {
		bus.Publish(event.SettingsChanged{Category: "test", At: time.Now().UTC()})
	}

	if len(sub.Events()) != subscriberCapacity {
		t.Fatalf("expected channel to be full at capacity %d, got %d", subscriberCapacity, len(sub.Events()))
	}
}
