// Package scene holds the two spatial containers of the planner: the
// per-region editing scene and the shared global scene. A scene owns its
// entities in an arena keyed by stable id; cross-references between entities
// are ids resolved through the scene, never pointers between items.
package scene

import (
	"math"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
)

// HitRadius is the hit-testing tolerance in scene units.
const HitRadius = 8.0

// Scene indexes entities twice: a flat insertion-order list for drawing and
// a kind -> id -> entity map for lookups.
type Scene struct {
	Name string

	order  []*model.Entity
	byKind map[model.Kind]map[string]*model.Entity

	hidden   map[string]struct{}
	selected map[string]struct{}
}

func New(name string) *Scene {
	return &Scene{
		Name:     name,
		byKind:   map[model.Kind]map[string]*model.Entity{},
		hidden:   map[string]struct{}{},
		selected: map[string]struct{}{},
	}
}

// AddItem inserts an entity into both indices. A duplicate id within the
// scene is rejected.
func (s *Scene) AddItem(e *model.Entity) error {
	id := e.ID()
	if id == "" {
		return protocol.Errorf(protocol.ErrBadRequest, "entity without id")
	}
	if s.contains(id) {
		return protocol.Errorf(protocol.ErrBadRequest, "duplicate id %q in scene %s", id, s.Name)
	}
	m := s.byKind[e.Kind]
	if m == nil {
		m = map[string]*model.Entity{}
		s.byKind[e.Kind] = m
	}
	m[id] = e
	s.order = append(s.order, e)
	return nil
}

func (s *Scene) contains(id string) bool {
	for _, m := range s.byKind {
		if _, ok := m[id]; ok {
			return true
		}
	}
	return false
}

// RemoveItem removes an entity from both indices. Idempotent when absent.
func (s *Scene) RemoveItem(kind model.Kind, id string) {
	m := s.byKind[kind]
	if m == nil {
		return
	}
	if _, ok := m[id]; !ok {
		return
	}
	delete(m, id)
	delete(s.hidden, id)
	delete(s.selected, id)
	for i, e := range s.order {
		if e.Kind == kind && e.ID() == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ItemByID resolves one entity, or nil.
func (s *Scene) ItemByID(kind model.Kind, id string) *model.Entity {
	m := s.byKind[kind]
	if m == nil {
		return nil
	}
	return m[id]
}

// ItemsByKind returns every entity of one kind in draw order.
func (s *Scene) ItemsByKind(kind model.Kind) []*model.Entity {
	var out []*model.Entity
	for _, e := range s.order {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Items returns the draw list.
func (s *Scene) Items() []*model.Entity { return s.order }

// Clear removes every entity; the scene owns them, so this is their end of
// life.
func (s *Scene) Clear() {
	s.order = nil
	s.byKind = map[model.Kind]map[string]*model.Entity{}
	s.hidden = map[string]struct{}{}
	s.selected = map[string]struct{}{}
}

// ItemsAt returns the visible entities under a scene point, top-most first.
func (s *Scene) ItemsAt(p model.Point) []*model.Entity {
	var out []*model.Entity
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.order[i]
		if s.Hidden(e.ID()) {
			continue
		}
		if s.hits(e, p) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Scene) hits(e *model.Entity, p model.Point) bool {
	if pos, ok := e.Pos(); ok {
		return math.Hypot(pos.X-p.X, pos.Y-p.Y) <= HitRadius
	}
	switch e.Kind {
	case model.KindConnection:
		a, b, ok := s.connectionEndpoints(e.Connection)
		if !ok {
			return false
		}
		return segmentDistance(p, a, b) <= HitRadius
	case model.KindMapEdge:
		from := s.ItemByID(model.KindMapNode, e.Edge.From)
		to := s.ItemByID(model.KindMapNode, e.Edge.To)
		if from == nil || to == nil {
			return false
		}
		return segmentDistance(p, from.Node.Pos, to.Node.Pos) <= HitRadius
	}
	return false
}

func (s *Scene) connectionEndpoints(c *model.ConnectionLine) (a, b model.Point, ok bool) {
	kind := model.KindTerminal
	if c.Global {
		kind = model.KindGlobalTerminal
	}
	from := s.ItemByID(kind, c.From)
	to := s.ItemByID(kind, c.To)
	if from == nil || to == nil {
		return model.Point{}, model.Point{}, false
	}
	pa, _ := from.Pos()
	pb, _ := to.Pos()
	return pa, pb, true
}

func segmentDistance(p, a, b model.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	cx, cy := a.X+t*dx, a.Y+t*dy
	return math.Hypot(p.X-cx, p.Y-cy)
}

// Select adds an entity to the selection set.
func (s *Scene) Select(id string) { s.selected[id] = struct{}{} }

// SelectedItems returns the selected entities in draw order.
func (s *Scene) SelectedItems() []*model.Entity {
	var out []*model.Entity
	for _, e := range s.order {
		if _, ok := s.selected[e.ID()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// ClearSelection empties the selection set.
func (s *Scene) ClearSelection() { s.selected = map[string]struct{}{} }

// Hidden reports whether the entity is currently filtered out.
func (s *Scene) Hidden(id string) bool {
	_, ok := s.hidden[id]
	return ok
}

// ApplyRegionFilter hides every entity whose region is not current and shows
// the rest. The global scene never calls this; its content ignores the
// current region.
func (s *Scene) ApplyRegionFilter(current string) {
	s.hidden = map[string]struct{}{}
	for _, e := range s.order {
		if e.Region() != current {
			s.hidden[e.ID()] = struct{}{}
		}
	}
}

// ReassignRegion moves every entity of one region into another.
func (s *Scene) ReassignRegion(from, to string) {
	for _, e := range s.order {
		if e.Region() == from {
			e.SetRegion(to)
		}
	}
}

// ConnectionBetween finds the line of one mode joining an unordered endpoint
// pair, or nil.
func (s *Scene) ConnectionBetween(mode model.Mode, a, b string) *model.ConnectionLine {
	for _, e := range s.ItemsByKind(model.KindConnection) {
		c := e.Connection
		if c.Mode == mode && c.Joins(a, b) {
			return c
		}
	}
	return nil
}

// Set bundles the region-edit and global scenes; the pair implements the
// registry's Reassigner so region removal and rename reach every entity.
type Set struct {
	Region *Scene
	Global *Scene
}

func NewSet() *Set {
	return &Set{Region: New("region"), Global: New("global")}
}

// ReassignRegion implements region.Reassigner across both scenes.
func (s *Set) ReassignRegion(from, to string) {
	s.Region.ReassignRegion(from, to)
	s.Global.ReassignRegion(from, to)
}
