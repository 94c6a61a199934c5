package simulator

import (
	"context"
	"sync"

	"cargonetsim/internal/protocol"
)

// DefinedSim records one define_simulator call on the fake.
type DefinedSim struct {
	Network  string
	TimeStep float64
	Vehicles []protocol.VehicleSpec
	Extra    map[string]any
}

// ContainerPush records one add_containers call on the fake.
type ContainerPush struct {
	Network    string
	VehicleID  string
	Containers []protocol.ContainerRecord
}

// CreatedClient records one create_client call on the fake.
type CreatedClient struct {
	Network    string
	MasterFile string
	SimTime    float64
}

// Memory is the in-process fake simulator used by tests and offline mode.
// It records every call and can be told to fail resets or report a consumer.
type Memory struct {
	ServiceID string

	mu        sync.Mutex
	Resets    int
	FailReset bool
	Consumer  bool
	Reachable bool

	Defined  []DefinedSim
	Pushes   []ContainerPush
	Runs     [][]string
	Clients  []CreatedClient
	Trips    []protocol.TripSpec
	AsyncRun [][]string
}

func NewMemory(service string) *Memory {
	return &Memory{ServiceID: service, Reachable: true}
}

func (m *Memory) Service() string { return m.ServiceID }

func (m *Memory) ResetServer(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resets++
	if m.FailReset {
		return protocol.Errorf(protocol.ErrResetFailed, "%s: reset refused", m.ServiceID)
	}
	return nil
}

func (m *Memory) DefineSimulator(ctx context.Context, network string, timeStep float64, vehicles []protocol.VehicleSpec, extra map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Defined = append(m.Defined, DefinedSim{Network: network, TimeStep: timeStep, Vehicles: vehicles, Extra: extra})
	return nil
}

func (m *Memory) AddContainersToVehicle(ctx context.Context, network, vehicleUserID string, containers []protocol.ContainerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pushes = append(m.Pushes, ContainerPush{Network: network, VehicleID: vehicleUserID, Containers: containers})
	return nil
}

func (m *Memory) RunSimulator(ctx context.Context, networks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, append([]string(nil), networks...))
	return nil
}

func (m *Memory) HasCommandQueueConsumers(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Reachable {
		return false, protocol.Errorf(protocol.ErrServiceUnavailable, "%s: unreachable", m.ServiceID)
	}
	return m.Consumer, nil
}

// SetConsumer flips the consumer flag the heartbeat monitor observes.
func (m *Memory) SetConsumer(present bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Consumer = present
}

// SetReachable flips whether introspection calls succeed at all.
func (m *Memory) SetReachable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reachable = ok
}

func (m *Memory) CreateClient(ctx context.Context, network, masterFile string, simTime float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clients = append(m.Clients, CreatedClient{Network: network, MasterFile: masterFile, SimTime: simTime})
	return nil
}

func (m *Memory) AddTrip(ctx context.Context, trip protocol.TripSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Trips = append(m.Trips, trip)
	return nil
}

func (m *Memory) RunSimulationAsync(ctx context.Context, networks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AsyncRun = append(m.AsyncRun, append([]string(nil), networks...))
	return nil
}
