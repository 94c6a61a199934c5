// Package model holds the typed graph entities of the planner: terminals,
// their global mirrors, imported map nodes and edges, operator-authored
// connection lines, region centers, background photos, and measurement
// overlays. Entities are a tagged variant: exactly one payload pointer is
// set and callers switch on Kind instead of downcasting.
package model

import "github.com/google/uuid"

// Kind tags an entity variant. Scene indices key on these.
type Kind string

const (
	KindTerminal       Kind = "terminal"
	KindGlobalTerminal Kind = "global_terminal"
	KindMapNode        Kind = "map_node"
	KindMapEdge        Kind = "map_edge"
	KindConnection     Kind = "connection"
	KindRegionCenter   Kind = "region_center"
	KindPhoto          Kind = "background_photo"
	KindMeasurement    Kind = "measurement"
)

// Point is a scene position (y grows downward).
type Point struct {
	X float64
	Y float64
}

// NewID returns a process-wide unique, collision-resistant identifier.
func NewID() string { return uuid.NewString() }

// Entity is the tagged variant stored in scenes. Exactly one payload field
// matching Kind is non-nil.
type Entity struct {
	Kind Kind

	Terminal   *Terminal
	Global     *GlobalTerminal
	Node       *MapNode
	Edge       *MapEdge
	Connection *ConnectionLine
	Center     *RegionCenter
	Photo      *BackgroundPhoto
	Measure    *Measurement
}

// ID returns the stable identifier of the wrapped payload.
func (e *Entity) ID() string {
	switch e.Kind {
	case KindTerminal:
		return e.Terminal.ID
	case KindGlobalTerminal:
		return e.Global.ID
	case KindMapNode:
		return e.Node.ID
	case KindMapEdge:
		return e.Edge.ID
	case KindConnection:
		return e.Connection.ID
	case KindRegionCenter:
		return e.Center.ID
	case KindPhoto:
		return e.Photo.ID
	case KindMeasurement:
		return e.Measure.ID
	}
	return ""
}

// Region returns the owning region name.
func (e *Entity) Region() string {
	switch e.Kind {
	case KindTerminal:
		return e.Terminal.Region
	case KindGlobalTerminal:
		return e.Global.Region
	case KindMapNode:
		return e.Node.Region
	case KindMapEdge:
		return e.Edge.Region
	case KindConnection:
		return e.Connection.Region
	case KindRegionCenter:
		return e.Center.Region
	case KindPhoto:
		return e.Photo.Region
	case KindMeasurement:
		return e.Measure.Region
	}
	return ""
}

// SetRegion rewrites the owning region name. Used by registry rename and
// remove, which must move every entity atomically.
func (e *Entity) SetRegion(name string) {
	switch e.Kind {
	case KindTerminal:
		e.Terminal.Region = name
	case KindGlobalTerminal:
		e.Global.Region = name
	case KindMapNode:
		e.Node.Region = name
	case KindMapEdge:
		e.Edge.Region = name
	case KindConnection:
		e.Connection.Region = name
	case KindRegionCenter:
		e.Center.Region = name
	case KindPhoto:
		e.Photo.Region = name
	case KindMeasurement:
		e.Measure.Region = name
	}
}

// Pos returns the entity's anchor position in its scene. Edges and
// connections anchor at their midpoint and report false.
func (e *Entity) Pos() (Point, bool) {
	switch e.Kind {
	case KindTerminal:
		return e.Terminal.Pos, true
	case KindGlobalTerminal:
		return e.Global.Pos, true
	case KindMapNode:
		return e.Node.Pos, true
	case KindRegionCenter:
		return e.Center.Pos, true
	case KindPhoto:
		return e.Photo.Pos, true
	case KindMeasurement:
		return e.Measure.Start, true
	}
	return Point{}, false
}
