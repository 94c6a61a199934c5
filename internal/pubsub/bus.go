// Package pubsub is the explicit publish/subscribe bus that carries region,
// entity, worker, and heartbeat events between the engine and its views.
package pubsub

import (
	"log"
	"sync"
)

// Topics.
const (
	TopicRegionAdded          = "region_added"
	TopicRegionRemoved        = "region_removed"
	TopicRegionRenamed        = "region_renamed"
	TopicCurrentRegionChanged = "current_region_changed"
	TopicEntityChanged        = "entity_changed"
	TopicMeasurementCompleted = "measurement_completed"
	TopicPathsReady           = "paths_ready"
	TopicWorkerError          = "worker_error"
	TopicSimulationStarted    = "simulation_started"
	TopicHeartbeat            = "heartbeat"
)

// Event is one published notification. Payload shape depends on the topic.
type Event struct {
	Topic   string
	Payload any
}

type subscriber struct {
	id     int
	topics map[string]struct{}
	ch     chan Event
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event (logged once per drop).
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	log    *log.Logger
}

func NewBus(logger *log.Logger) *Bus {
	return &Bus{subs: map[int]*subscriber{}, log: logger}
}

// Subscribe registers for the given topics (all topics when none given).
// The returned cancel closes the channel and must be called exactly once.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &subscriber{
		id: b.nextID,
		ch: make(chan Event, 256),
	}
	b.nextID++
	if len(topics) > 0 {
		s.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			s.topics[t] = struct{}{}
		}
	}
	b.subs[s.id] = s
	id := s.id
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return s.ch, cancel
}

func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.topics != nil {
			if _, ok := s.topics[topic]; !ok {
				continue
			}
		}
		select {
		case s.ch <- Event{Topic: topic, Payload: payload}:
		default:
			if b.log != nil {
				b.log.Printf("pubsub: subscriber %d dropped %s", s.id, topic)
			}
		}
	}
}
