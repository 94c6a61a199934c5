package pubsub

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeFiltersTopics(t *testing.T) {
	b := NewBus(nil)
	ch, cancel := b.Subscribe(TopicRegionAdded)
	defer cancel()

	b.Publish(TopicEntityChanged, "e_1")
	b.Publish(TopicRegionAdded, "R2")

	ev := recvOne(t, ch)
	if ev.Topic != TopicRegionAdded || ev.Payload != "R2" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event: %+v", ev)
	default:
	}
}

func TestSubscribeAllTopics(t *testing.T) {
	b := NewBus(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(TopicHeartbeat, "TerminalSim")
	if ev := recvOne(t, ch); ev.Topic != TopicHeartbeat {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus(nil)
	ch, cancel := b.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Publishing after cancel must not panic.
	b.Publish(TopicRegionRemoved, "R1")
}

func TestFullSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBus(nil)
	_, cancel := b.Subscribe(TopicEntityChanged)
	defer cancel()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(TopicEntityChanged, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
