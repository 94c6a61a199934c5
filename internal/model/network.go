package model

// MapNode is a geographic point of an imported rail or truck network. At
// most one terminal can be linked to it; a terminal may be linked from many
// nodes, one per network it participates in.
type MapNode struct {
	ID      string
	Network string
	Mode    Mode // network mode: Rail or Truck
	Region  string
	Lon     float64
	Lat     float64
	Pos     Point

	// LinkedTerminal holds the id of the linked terminal, empty when none.
	LinkedTerminal string
}

// Entity wraps the node in its tagged variant.
func (n *MapNode) Entity() *Entity { return &Entity{Kind: KindMapNode, Node: n} }

// MapEdge is a segment between two MapNodes of the same network. Length is
// metres; speeds are km/h. Lanes is meaningful for truck networks only.
type MapEdge struct {
	ID      string
	Network string
	Mode    Mode
	Region  string
	From    string // MapNode id
	To      string // MapNode id

	Length        float64
	FreeFlowSpeed float64 // truck
	Lanes         int     // truck
	MaxSpeed      float64 // rail
}

// Entity wraps the edge in its tagged variant.
func (e *MapEdge) Entity() *Entity { return &Entity{Kind: KindMapEdge, Edge: e} }
