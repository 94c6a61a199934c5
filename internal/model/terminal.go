package model

import "cargonetsim/internal/protocol"

// TerminalType classifies an operator-placed terminal.
type TerminalType string

const (
	TypeOrigin         TerminalType = "Origin"
	TypeDestination    TerminalType = "Destination"
	TypeSeaPort        TerminalType = "Sea Port Terminal"
	TypeIntermodalLand TerminalType = "Intermodal Land Terminal"
	TypeTrainDepot     TerminalType = "Train Stop/Depot"
	TypeTruckParking   TerminalType = "Truck Parking"
)

// Interfaces are the modes a terminal can serve on each side.
type Interfaces struct {
	LandSide []Mode
	SeaSide  []Mode
}

func (i Interfaces) clone() Interfaces {
	return Interfaces{
		LandSide: append([]Mode(nil), i.LandSide...),
		SeaSide:  append([]Mode(nil), i.SeaSide...),
	}
}

// HasLand reports whether the land side serves the mode.
func (i Interfaces) HasLand(m Mode) bool { return containsMode(i.LandSide, m) }

// HasSea reports whether the sea side serves the mode.
func (i Interfaces) HasSea(m Mode) bool { return containsMode(i.SeaSide, m) }

func containsMode(ms []Mode, m Mode) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

// Terminal is an operator-placed freight facility in a region scene.
type Terminal struct {
	ID              string
	Type            TerminalType
	Name            string
	Region          string
	Pos             Point
	Interfaces      Interfaces
	ShowOnGlobalMap bool

	// Parameter blocks; keys depend on terminal type. Dwell time carries a
	// nested "parameters" object for its distribution.
	Cost      map[string]any
	DwellTime map[string]any
	Customs   map[string]any
	Capacity  map[string]any

	// Containers staged at an Origin, in load order.
	Containers []protocol.ContainerRecord
}

type terminalDefaults struct {
	interfaces Interfaces
	showGlobal bool
}

var defaultsByType = map[TerminalType]terminalDefaults{
	TypeOrigin: {
		interfaces: Interfaces{LandSide: []Mode{ModeTruck, ModeRail}},
		showGlobal: true,
	},
	TypeDestination: {
		interfaces: Interfaces{LandSide: []Mode{ModeTruck, ModeRail}},
		showGlobal: true,
	},
	TypeSeaPort: {
		interfaces: Interfaces{LandSide: []Mode{ModeTruck, ModeRail}, SeaSide: []Mode{ModeShip}},
		showGlobal: true,
	},
	TypeIntermodalLand: {
		interfaces: Interfaces{LandSide: []Mode{ModeTruck, ModeRail}},
		showGlobal: true,
	},
	TypeTrainDepot: {
		interfaces: Interfaces{LandSide: []Mode{ModeRail}},
		showGlobal: false,
	},
	TypeTruckParking: {
		interfaces: Interfaces{LandSide: []Mode{ModeTruck}},
		showGlobal: false,
	},
}

// NewTerminal creates a terminal with the interface and visibility defaults
// bound to its type.
func NewTerminal(typ TerminalType, name, region string, pos Point) *Terminal {
	d := defaultsByType[typ]
	return &Terminal{
		ID:              NewID(),
		Type:            typ,
		Name:            name,
		Region:          region,
		Pos:             pos,
		Interfaces:      d.interfaces.clone(),
		ShowOnGlobalMap: d.showGlobal,
	}
}

// Entity wraps the terminal in its tagged variant.
func (t *Terminal) Entity() *Entity { return &Entity{Kind: KindTerminal, Terminal: t} }

// CloneContainers deep-copies the staged containers so vehicle assignment can
// mutate ids and destinations without touching the originals.
func (t *Terminal) CloneContainers() []protocol.ContainerRecord {
	out := make([]protocol.ContainerRecord, len(t.Containers))
	for i, c := range t.Containers {
		out[i] = c.Clone()
	}
	return out
}

// GlobalTerminal mirrors one Terminal on the global scene. It exists exactly
// while the terminal's ShowOnGlobalMap flag is true, positioned from the
// owning region's shared coordinates plus the terminal's geodetic offset
// from the region center.
type GlobalTerminal struct {
	ID         string
	TerminalID string
	Region     string
	Name       string
	Lon        float64
	Lat        float64
	Pos        Point
}

// Entity wraps the mirror in its tagged variant.
func (g *GlobalTerminal) Entity() *Entity { return &Entity{Kind: KindGlobalTerminal, Global: g} }
