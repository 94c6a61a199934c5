package simulator

import (
	"context"

	"cargonetsim/internal/protocol"
	"cargonetsim/internal/services/wsrpc"
)

// wsClient implements Client over the websocket RPC layer. The vehicle word
// selects the add_containers_to_<vehicle> method name per mode.
type wsClient struct {
	rpc     *wsrpc.Client
	service string
	vehicle string
}

// NewTrainClient connects to the rail simulator (NeTrainSim).
func NewTrainClient(url string) Client {
	return &wsClient{rpc: wsrpc.NewClient(url, protocol.ServiceTrainSim), service: protocol.ServiceTrainSim, vehicle: "train"}
}

// NewShipClient connects to the ship simulator (ShipNetSim).
func NewShipClient(url string) Client {
	return &wsClient{rpc: wsrpc.NewClient(url, protocol.ServiceShipSim), service: protocol.ServiceShipSim, vehicle: "ship"}
}

// NewTruckClient connects to the truck integration service.
func NewTruckClient(url string) TruckClient {
	return &truckWSClient{wsClient{rpc: wsrpc.NewClient(url, protocol.ServiceTruckSim), service: protocol.ServiceTruckSim, vehicle: "truck"}}
}

func (c *wsClient) Service() string { return c.service }

func (c *wsClient) Close() { c.rpc.Close() }

func (c *wsClient) ResetServer(ctx context.Context) error {
	return c.rpc.Call(ctx, "reset_server", nil, nil)
}

func (c *wsClient) DefineSimulator(ctx context.Context, network string, timeStep float64, vehicles []protocol.VehicleSpec, extra map[string]any) error {
	params := map[string]any{
		"network":   network,
		"time_step": timeStep,
		"vehicles":  vehicles,
	}
	for k, v := range extra {
		params[k] = v
	}
	return c.rpc.Call(ctx, "define_simulator", params, nil)
}

func (c *wsClient) AddContainersToVehicle(ctx context.Context, network, vehicleUserID string, containers []protocol.ContainerRecord) error {
	return c.rpc.Call(ctx, "add_containers_to_"+c.vehicle, map[string]any{
		"network":    network,
		"user_id":    vehicleUserID,
		"containers": containers,
	}, nil)
}

func (c *wsClient) RunSimulator(ctx context.Context, networks []string) error {
	return c.rpc.Call(ctx, "run_simulator", map[string]any{"networks": networks}, nil)
}

func (c *wsClient) HasCommandQueueConsumers(ctx context.Context) (bool, error) {
	var out struct {
		Consumers bool `json:"consumers"`
	}
	err := c.rpc.Call(ctx, "has_command_queue_consumers", nil, &out)
	return out.Consumers, err
}

type truckWSClient struct {
	wsClient
}

func (c *truckWSClient) CreateClient(ctx context.Context, network, masterFile string, simTime float64) error {
	return c.rpc.Call(ctx, "create_client", map[string]any{
		"network":     network,
		"master_file": masterFile,
		"sim_time":    simTime,
	}, nil)
}

func (c *truckWSClient) AddTrip(ctx context.Context, trip protocol.TripSpec) error {
	return c.rpc.Call(ctx, "add_trip", trip, nil)
}

func (c *truckWSClient) RunSimulationAsync(ctx context.Context, networks []string) error {
	return c.rpc.Call(ctx, "run_simulation_async", map[string]any{"networks": networks}, nil)
}
