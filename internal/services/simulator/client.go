// Package simulator is the one parameterised client the engine uses to talk
// to the train, ship, and truck simulation backends. The three services
// share a lifecycle (reset, define simulator, push containers, run); the
// truck integration adds per-network clients and trips.
package simulator

import (
	"context"

	"cargonetsim/internal/protocol"
)

// Client is the shared simulator lifecycle.
type Client interface {
	// Service returns the backend id (NeTrainSim, ShipNetSim, INTEGRATION).
	Service() string

	ResetServer(ctx context.Context) error
	DefineSimulator(ctx context.Context, network string, timeStep float64, vehicles []protocol.VehicleSpec, extra map[string]any) error
	AddContainersToVehicle(ctx context.Context, network, vehicleUserID string, containers []protocol.ContainerRecord) error
	RunSimulator(ctx context.Context, networks []string) error
	HasCommandQueueConsumers(ctx context.Context) (bool, error)
}

// TruckClient adds the truck integration's extra surface.
type TruckClient interface {
	Client

	CreateClient(ctx context.Context, network, masterFile string, simTime float64) error
	AddTrip(ctx context.Context, trip protocol.TripSpec) error
	RunSimulationAsync(ctx context.Context, networks []string) error
}
