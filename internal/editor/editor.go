// Package editor implements the modal interaction layer of the planner: the
// cursor state machine, connection authoring, terminal-node linking, the
// measurement tool, and the global-mirror lifecycle. All methods run on the
// UI goroutine.
package editor

import (
	"log"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
	"cargonetsim/internal/region"
	"cargonetsim/internal/scene"
)

// Editor mediates clicks against the scene set. A single mode variable
// drives behavior; entering any mode resets the others.
type Editor struct {
	scenes  *scene.Set
	regions *region.Registry
	bus     *pubsub.Bus
	log     *log.Logger

	mode        Mode
	globalScene bool // which tab is active

	connectMode model.Mode
	firstPick   string
	firstKind   model.Kind

	linkTerminal string

	// Projected view measures Euclidean on Web Mercator instead of the
	// geodesic.
	projectedView bool

	measure *model.Measurement
}

func New(scenes *scene.Set, regions *region.Registry, bus *pubsub.Bus, logger *log.Logger) *Editor {
	return &Editor{
		scenes:      scenes,
		regions:     regions,
		bus:         bus,
		log:         logger,
		connectMode: model.ModeTruck,
	}
}

func (e *Editor) Mode() Mode { return e.mode }

// SetMode enters a mode, clearing any partial state of the previous one.
// Modes are mutually exclusive.
func (e *Editor) SetMode(m Mode) {
	e.clearPartial()
	e.mode = m
}

// Escape returns to Idle from any mode and drops partial selections.
func (e *Editor) Escape() {
	e.clearPartial()
	e.mode = ModeIdle
}

// SwitchScene flips between the region and global tabs and resets all modes.
func (e *Editor) SwitchScene(global bool) {
	e.globalScene = global
	e.Escape()
}

// GlobalSceneActive reports which tab is active.
func (e *Editor) GlobalSceneActive() bool { return e.globalScene }

// SetProjectedView toggles the measurement tool between Web Mercator
// Euclidean and WGS-84 geodesic distance.
func (e *Editor) SetProjectedView(projected bool) { e.projectedView = projected }

// SetConnectMode selects the connection type used by Connect clicks.
func (e *Editor) SetConnectMode(m model.Mode) { e.connectMode = m }

func (e *Editor) clearPartial() {
	e.firstPick = ""
	e.firstKind = ""
	e.linkTerminal = ""
	e.measure = nil
}

func (e *Editor) activeScene() *scene.Scene {
	if e.globalScene {
		return e.scenes.Global
	}
	return e.scenes.Region
}

func (e *Editor) changed(id string) {
	if e.bus != nil {
		e.bus.Publish(pubsub.TopicEntityChanged, id)
	}
}

// CreateTerminal places a terminal in the current region, enforcing the
// single-Origin and single-Destination invariants across all regions.
func (e *Editor) CreateTerminal(typ model.TerminalType, name string, pos model.Point) (*model.Terminal, error) {
	if typ == model.TypeOrigin || typ == model.TypeDestination {
		for _, it := range e.scenes.Region.ItemsByKind(model.KindTerminal) {
			if it.Terminal.Type == typ {
				return nil, protocol.Errorf(protocol.ErrBadRequest,
					"a %s terminal already exists (%s)", typ, it.Terminal.Name)
			}
		}
	}
	t := model.NewTerminal(typ, name, e.regions.CurrentRegion(), pos)
	if err := e.scenes.Region.AddItem(t.Entity()); err != nil {
		return nil, err
	}
	if t.ShowOnGlobalMap {
		e.syncMirror(t)
	}
	e.changed(t.ID)
	return t, nil
}

// ClickConnect handles a click on a terminal or mirror while in Connect
// mode. The first click remembers the endpoint; the second creates a typed
// line, then chains: the second endpoint becomes the new first.
func (e *Editor) ClickConnect(kind model.Kind, id string) (*model.ConnectionLine, error) {
	if e.mode != ModeConnect {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "not in connect mode")
	}
	if kind != model.KindTerminal && kind != model.KindGlobalTerminal {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "connect needs a terminal, got %s", kind)
	}
	sc := e.activeScene()
	ent := sc.ItemByID(kind, id)
	if ent == nil {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "unknown endpoint %q", id)
	}

	if e.firstPick == "" {
		e.firstPick = id
		e.firstKind = kind
		return nil, nil
	}

	if id == e.firstPick {
		// First endpoint stays selected so the operator can retry.
		return nil, protocol.Errorf(protocol.ErrSelfConnection, "cannot connect %q to itself", id)
	}
	if kind != e.firstKind {
		return nil, protocol.Errorf(protocol.ErrBadRequest,
			"cannot connect %s to %s", e.firstKind, kind)
	}

	first := sc.ItemByID(e.firstKind, e.firstPick)
	if first == nil {
		e.firstPick, e.firstKind = id, kind
		return nil, protocol.Errorf(protocol.ErrBadRequest, "first endpoint vanished")
	}
	global := kind == model.KindGlobalTerminal
	reg := first.Region()
	if !global && reg != ent.Region() {
		return nil, protocol.Errorf(protocol.ErrCrossRegionConnection,
			"terminals are in regions %q and %q; use the global scene", reg, ent.Region())
	}
	if sc.ConnectionBetween(e.connectMode, e.firstPick, id) != nil {
		return nil, protocol.Errorf(protocol.ErrDuplicateConnection,
			"a %s connection between these terminals already exists", e.connectMode)
	}

	line := model.NewConnectionLine(e.connectMode, reg, e.firstPick, id, global)
	if err := sc.AddItem(line.Entity()); err != nil {
		return nil, err
	}
	e.changed(line.ID)
	// Chain: the new first endpoint is the previous second.
	e.firstPick, e.firstKind = id, kind
	return line, nil
}

// ClickLink handles clicks in LinkTerminalToNode mode: first a terminal,
// then a map node. On the successful link the mode resets to Idle.
func (e *Editor) ClickLink(kind model.Kind, id string) error {
	if e.mode != ModeLinkTerminal {
		return protocol.Errorf(protocol.ErrBadRequest, "not in link mode")
	}
	sc := e.scenes.Region
	switch kind {
	case model.KindTerminal:
		if sc.ItemByID(model.KindTerminal, id) == nil {
			return protocol.Errorf(protocol.ErrBadRequest, "unknown terminal %q", id)
		}
		e.linkTerminal = id
		return nil
	case model.KindMapNode:
		if e.linkTerminal == "" {
			return protocol.Errorf(protocol.ErrBadRequest, "select a terminal before clicking a network node")
		}
		node := sc.ItemByID(model.KindMapNode, id)
		if node == nil {
			return protocol.Errorf(protocol.ErrBadRequest, "unknown node %q", id)
		}
		term := sc.ItemByID(model.KindTerminal, e.linkTerminal)
		if term == nil {
			return protocol.Errorf(protocol.ErrBadRequest, "terminal %q vanished", e.linkTerminal)
		}
		if node.Region() != term.Region() {
			return protocol.Errorf(protocol.ErrCrossRegionConnection,
				"node is in region %q, terminal in %q", node.Region(), term.Region())
		}
		node.Node.LinkedTerminal = e.linkTerminal
		e.changed(id)
		e.Escape()
		return nil
	default:
		return protocol.Errorf(protocol.ErrBadRequest, "link needs a terminal or node, got %s", kind)
	}
}

// ClickUnlink clears a map node's linked terminal and resets to Idle.
func (e *Editor) ClickUnlink(id string) error {
	if e.mode != ModeUnlinkTerminal {
		return protocol.Errorf(protocol.ErrBadRequest, "not in unlink mode")
	}
	node := e.scenes.Region.ItemByID(model.KindMapNode, id)
	if node == nil {
		return protocol.Errorf(protocol.ErrBadRequest, "unknown node %q", id)
	}
	node.Node.LinkedTerminal = ""
	e.changed(id)
	e.Escape()
	return nil
}

// ClickSetGlobalPosition writes new shared coordinates for a mirror and
// resets to Idle.
func (e *Editor) ClickSetGlobalPosition(mirrorID string, lat, lon float64) error {
	if e.mode != ModeSetGlobalPosition {
		return protocol.Errorf(protocol.ErrBadRequest, "not in set-global-position mode")
	}
	ent := e.scenes.Global.ItemByID(model.KindGlobalTerminal, mirrorID)
	if ent == nil {
		return protocol.Errorf(protocol.ErrBadRequest, "unknown global terminal %q", mirrorID)
	}
	e.placeMirror(ent.Global, lat, lon)
	e.changed(mirrorID)
	e.Escape()
	return nil
}
