package model

import "cargonetsim/internal/protocol"

// Mode is a transport mode as the editor spells it. Rail becomes Train on
// the wire.
type Mode string

const (
	ModeTruck Mode = "Truck"
	ModeRail  Mode = "Rail"
	ModeShip  Mode = "Ship"
)

// Wire returns the terminal-graph service spelling of the mode.
func (m Mode) Wire() string {
	if m == ModeRail {
		return protocol.ModeTrain
	}
	return string(m)
}

// ModeFromWire maps a service mode back to the editor spelling.
func ModeFromWire(s string) Mode {
	if s == protocol.ModeTrain {
		return ModeRail
	}
	return Mode(s)
}

// Modes lists every mode in display order.
var Modes = []Mode{ModeTruck, ModeRail, ModeShip}
