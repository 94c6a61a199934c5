// Package protocol defines the wire-level records exchanged with the
// terminal-graph and simulation services, the flat error codes used across
// the planning engine, and the queue-name conventions the heartbeat monitor
// falls back on.
package protocol

const Version = "1.0"

// Service identifiers. These match the command-queue suffixes the backend
// services listen on.
const (
	ServiceTerminalSim = "TerminalSim"
	ServiceTrainSim    = "NeTrainSim"
	ServiceShipSim     = "ShipNetSim"
	ServiceTruckSim    = "INTEGRATION"
)

// CommandQueueName returns the RabbitMQ command queue for a service using the
// fixed CargoNetSim.CommandQueue.<service> convention. The truck integration
// service and the train/ship simulators register under their short names.
func CommandQueueName(service string) string {
	switch service {
	case ServiceTerminalSim:
		return "CargoNetSim.CommandQueue.TerminalSim"
	case ServiceTrainSim:
		return "CargoNetSim.CommandQueue.TrainSim"
	case ServiceShipSim:
		return "CargoNetSim.CommandQueue.ShipSim"
	case ServiceTruckSim:
		return "CargoNetSim.CommandQueue.TruckSim"
	}
	return "CargoNetSim.CommandQueue." + service
}

// Services lists every backend the heartbeat monitor watches, in display order.
var Services = []string{
	ServiceTerminalSim,
	ServiceTrainSim,
	ServiceShipSim,
	ServiceTruckSim,
}
