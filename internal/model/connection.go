package model

import "cargonetsim/internal/protocol"

// ConnectionLine is an operator-authored typed edge between two terminals on
// the region scene, or two global terminal mirrors on the global scene. At
// most one line of a given mode exists between an unordered endpoint pair in
// a scene.
type ConnectionLine struct {
	ID     string
	Mode   Mode
	Region string
	From   string // terminal or mirror id
	To     string
	Global bool // true when endpoints are global mirrors

	Attributes protocol.SegmentAttributes
}

// NewConnectionLine builds a line between two endpoints with zeroed cost
// attributes; the properties view writes the real values afterwards.
func NewConnectionLine(mode Mode, region, from, to string, global bool) *ConnectionLine {
	return &ConnectionLine{
		ID:     NewID(),
		Mode:   mode,
		Region: region,
		From:   from,
		To:     to,
		Global: global,
	}
}

// Entity wraps the line in its tagged variant.
func (c *ConnectionLine) Entity() *Entity { return &Entity{Kind: KindConnection, Connection: c} }

// Joins reports whether the line connects the unordered pair (a, b).
func (c *ConnectionLine) Joins(a, b string) bool {
	return (c.From == a && c.To == b) || (c.From == b && c.To == a)
}

// CurveSide says which orthogonal side the line bows toward when drawn:
// +1 for Rail, -1 for Ship so overlapping edges separate visually, 0 for
// the straight Truck line.
func (c *ConnectionLine) CurveSide() int {
	switch c.Mode {
	case ModeRail:
		return 1
	case ModeShip:
		return -1
	}
	return 0
}
