// Package heartbeat watches whether each backend service has a consumer
// attached to its command queue and drives the 4-state indicator the
// operator sees.
package heartbeat

import (
	"context"
	"log"
	"sync"
	"time"

	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
)

// State of one service indicator.
type State int

const (
	// StateUnknown (grey) is the initial state before the first check.
	StateUnknown State = iota
	// StateUnreachable (grey) means introspection itself failed.
	StateUnreachable
	// StateNoConsumer (red) means the service answered but nothing is
	// consuming its command queue.
	StateNoConsumer
	// StateOnline (green) means a consumer is attached.
	StateOnline
)

func (s State) String() string {
	switch s {
	case StateUnreachable:
		return "UNREACHABLE"
	case StateNoConsumer:
		return "NO_CONSUMER"
	case StateOnline:
		return "ONLINE"
	default:
		return "UNKNOWN"
	}
}

// Probe is the preferred introspection path: the service's own control
// handle answering has_command_queue_consumers.
type Probe interface {
	HasCommandQueueConsumers(ctx context.Context) (bool, error)
}

// QueueInspector is the fallback path: direct queue introspection by the
// fixed queue-name convention.
type QueueInspector interface {
	QueueHasConsumers(ctx context.Context, queue string) (bool, error)
}

// Update is the bus payload on every state transition.
type Update struct {
	Service string
	State   State
}

const (
	// DefaultInterval between checks.
	DefaultInterval = 20 * time.Second
	// DefaultInitialDelay before the first check, giving services a chance
	// to attach after startup.
	DefaultInitialDelay = 2 * time.Second
	// probeTimeout bounds one introspection RPC.
	probeTimeout = 5 * time.Second
)

// Monitor polls every registered service periodically.
type Monitor struct {
	Interval     time.Duration
	InitialDelay time.Duration

	probes   map[string]Probe
	fallback QueueInspector
	bus      *pubsub.Bus
	log      *log.Logger

	mu     sync.Mutex
	states map[string]State

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewMonitor(probes map[string]Probe, fallback QueueInspector, bus *pubsub.Bus, logger *log.Logger) *Monitor {
	m := &Monitor{
		Interval:     DefaultInterval,
		InitialDelay: DefaultInitialDelay,
		probes:       probes,
		fallback:     fallback,
		bus:          bus,
		log:          logger,
		states:       map[string]State{},
		stop:         make(chan struct{}),
	}
	for svc := range probes {
		m.states[svc] = StateUnknown
	}
	return m
}

// StateOf returns the current indicator for a service.
func (m *Monitor) StateOf(service string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[service]
}

// Start launches the polling worker.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-m.stop:
			return
		case <-time.After(m.InitialDelay):
		}
		m.checkAll()
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.checkAll()
			}
		}
	}()
}

// Stop halts the timer and joins the worker before returning.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stop) })
	m.wg.Wait()
}

func (m *Monitor) checkAll() {
	for svc, probe := range m.probes {
		m.setState(svc, m.check(svc, probe))
	}
}

func (m *Monitor) check(service string, probe Probe) State {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if probe != nil {
		has, err := probe.HasCommandQueueConsumers(ctx)
		if err == nil {
			if has {
				return StateOnline
			}
			return StateNoConsumer
		}
	}
	if m.fallback != nil {
		has, err := m.fallback.QueueHasConsumers(ctx, protocol.CommandQueueName(service))
		if err == nil {
			if has {
				return StateOnline
			}
			return StateNoConsumer
		}
	}
	return StateUnreachable
}

func (m *Monitor) setState(service string, s State) {
	m.mu.Lock()
	prev, ok := m.states[service]
	m.states[service] = s
	m.mu.Unlock()
	if ok && prev == s {
		return
	}
	if m.log != nil {
		m.log.Printf("heartbeat: %s %s -> %s", service, prev, s)
	}
	if m.bus != nil {
		m.bus.Publish(pubsub.TopicHeartbeat, Update{Service: service, State: s})
	}
}
