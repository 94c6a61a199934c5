package protocol

// Transport modes as the terminal-graph and simulation services spell them.
// The editor's Rail mode is Train on the wire.
const (
	ModeTruck = "Truck"
	ModeTrain = "Train"
	ModeShip  = "Ship"
)

// Interface sides of a terminal record.
const (
	LandSide = "LAND_SIDE"
	SeaSide  = "SEA_SIDE"
)

// TerminalRecord is one terminal as pushed to the terminal-graph service.
// Names carries [unique id, display name]; Interfaces maps each side to the
// modes it can serve; Config holds the optional cost/dwell/capacity/customs
// subobjects keyed exactly as the service expects them.
type TerminalRecord struct {
	Names      []string            `json:"names"`
	Region     string              `json:"region"`
	Interfaces map[string][]string `json:"interfaces"`
	Config     map[string]any      `json:"config,omitempty"`
}

// ID returns the unique identifier, the first entry of Names.
func (t TerminalRecord) ID() string {
	if len(t.Names) == 0 {
		return ""
	}
	return t.Names[0]
}

// SegmentAttributes are the per-edge costs the path ranking runs on.
type SegmentAttributes struct {
	Distance          float64 `json:"distance"`
	TravelTime        float64 `json:"travelTime"`
	Cost              float64 `json:"cost"`
	CarbonEmissions   float64 `json:"carbonEmissions"`
	EnergyConsumption float64 `json:"energyConsumption"`
	Risk              float64 `json:"risk"`
}

// RouteSegment is one typed edge of the flattened terminal graph.
type RouteSegment struct {
	ID            string            `json:"id"`
	StartTerminal string            `json:"start_terminal"`
	EndTerminal   string            `json:"end_terminal"`
	Mode          string            `json:"mode"`
	Attributes    SegmentAttributes `json:"attributes"`
}

// Path is one ranked path returned by find_top_paths. Segments are in
// traversal order; TotalDistance/TotalCost accumulate segment attributes.
type Path struct {
	ID            int            `json:"path_id"`
	Terminals     []string       `json:"terminals"`
	Segments      []RouteSegment `json:"segments"`
	TotalDistance float64        `json:"total_distance"`
	TotalCost     float64        `json:"total_cost"`
}

// ContainerRecord is a container as handed to a simulator vehicle. Containers
// assigned to vehicles are deep copies; the originals on the Origin terminal
// keep their ids and locations.
type ContainerRecord struct {
	ID           string   `json:"container_id"`
	Size         string   `json:"size,omitempty"`
	Location     string   `json:"location,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
}

// Clone returns a deep copy safe for id and destination mutation.
func (c ContainerRecord) Clone() ContainerRecord {
	out := c
	out.Destinations = append([]string(nil), c.Destinations...)
	return out
}

// VehicleSpec is a vehicle handed to define_simulator: a template payload
// plus the user id and route the fan-out worker assigned.
type VehicleSpec struct {
	UserID      string         `json:"user_id"`
	Route       []string       `json:"route"`
	LoadTime    float64        `json:"load_time,omitempty"`
	Template    map[string]any `json:"template,omitempty"`
	Destination []string       `json:"destination,omitempty"`
}

// TripSpec is one truck trip handed to the truck client.
type TripSpec struct {
	Network    string            `json:"network"`
	StartNode  string            `json:"start_node"`
	EndNode    string            `json:"end_node"`
	Containers []ContainerRecord `json:"containers"`
}
