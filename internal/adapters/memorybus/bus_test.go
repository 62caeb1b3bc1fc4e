package memorybus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish("chat.message", []byte(`{}`))

	select {
	case evt := <-ch:
		if evt.Topic != "chat.message" {
			t.Fatalf("topic: want chat.message, got %q", evt.Topic)
		}
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("expected event")
	}
}

func TestBus_PrefixFilter(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("chat.", "provisioning.")
	defer cancel()

	b.Publish("video.selected", []byte(`{}`))
	b.Publish("provisioning.ready", []byte(`{}`))

	select {
	case evt := <-ch:
		if evt.Topic != "provisioning.ready" {
			t.Fatalf("want provisioning.ready first, got %q", evt.Topic)
		}
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("expected provisioning.ready")
	}

	select {
	case evt := <-ch:
		t.Fatalf("unexpected extra event %q", evt.Topic)
	default:
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish("chat.message", []byte(`{}`))

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
}
