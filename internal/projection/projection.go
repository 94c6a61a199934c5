// Package projection flattens the editor scenes into the terminal record and
// route segment form the terminal-graph service consumes. Only terminals
// referenced by at least one connection line are emitted; segments keep the
// authored cost attributes and the wire mode spelling.
package projection

import (
	"context"
	"sort"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/scene"
	"cargonetsim/internal/services/terminalgraph"
)

// Graph is one flattened snapshot, sorted by id in both slices so an
// unchanged scene set always projects to the same payload.
type Graph struct {
	Terminals []protocol.TerminalRecord
	Segments  []protocol.RouteSegment
}

// Build walks the connection lines of both scenes and collects the referenced
// terminals, deduplicated by id. Global-scene lines join mirrors; their
// segments are rewritten to the underlying terminal ids so the region and
// global layers form one graph. Lines with a dangling endpoint are skipped.
func Build(scenes *scene.Set) Graph {
	byID := map[string]*model.Terminal{}
	var segs []protocol.RouteSegment

	for _, sc := range []*scene.Scene{scenes.Region, scenes.Global} {
		for _, e := range sc.ItemsByKind(model.KindConnection) {
			c := e.Connection
			from := endpointTerminal(scenes, c, c.From)
			to := endpointTerminal(scenes, c, c.To)
			if from == nil || to == nil {
				continue
			}
			byID[from.ID] = from
			byID[to.ID] = to
			segs = append(segs, protocol.RouteSegment{
				ID:            c.ID,
				StartTerminal: from.ID,
				EndTerminal:   to.ID,
				Mode:          c.Mode.Wire(),
				Attributes:    c.Attributes,
			})
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := Graph{Terminals: make([]protocol.TerminalRecord, 0, len(ids)), Segments: segs}
	for _, id := range ids {
		g.Terminals = append(g.Terminals, record(byID[id]))
	}
	sort.Slice(g.Segments, func(i, j int) bool { return g.Segments[i].ID < g.Segments[j].ID })
	return g
}

func endpointTerminal(scenes *scene.Set, c *model.ConnectionLine, id string) *model.Terminal {
	if c.Global {
		m := scenes.Global.ItemByID(model.KindGlobalTerminal, id)
		if m == nil {
			return nil
		}
		id = m.Global.TerminalID
	}
	t := scenes.Region.ItemByID(model.KindTerminal, id)
	if t == nil {
		return nil
	}
	return t.Terminal
}

func record(t *model.Terminal) protocol.TerminalRecord {
	ifaces := map[string][]string{}
	if len(t.Interfaces.LandSide) > 0 {
		ifaces[protocol.LandSide] = wireModes(t.Interfaces.LandSide)
	}
	if len(t.Interfaces.SeaSide) > 0 {
		ifaces[protocol.SeaSide] = wireModes(t.Interfaces.SeaSide)
	}

	cfg := map[string]any{}
	if len(t.Cost) > 0 {
		cfg["cost"] = t.Cost
	}
	if len(t.DwellTime) > 0 {
		cfg["dwell_time"] = t.DwellTime
	}
	if len(t.Capacity) > 0 {
		cfg["capacity"] = t.Capacity
	}
	if len(t.Customs) > 0 {
		cfg["customs"] = t.Customs
	}
	if len(cfg) == 0 {
		cfg = nil
	}

	return protocol.TerminalRecord{
		Names:      []string{t.ID, t.Name},
		Region:     t.Region,
		Interfaces: ifaces,
		Config:     cfg,
	}
}

func wireModes(ms []model.Mode) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Wire()
	}
	return out
}

// Push emits a built graph to the service, terminals before segments,
// stopping at the first rejected record.
func Push(ctx context.Context, client terminalgraph.Client, g Graph) error {
	for _, t := range g.Terminals {
		if err := client.AddTerminal(ctx, t); err != nil {
			return err
		}
	}
	for _, s := range g.Segments {
		if err := client.AddRoute(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Apply resets the service and pushes a fresh projection of the scenes.
func Apply(ctx context.Context, client terminalgraph.Client, scenes *scene.Set) (Graph, error) {
	if err := client.ResetServer(ctx); err != nil {
		return Graph{}, protocol.Errorf(protocol.ErrResetFailed, "terminal graph reset: %v", err)
	}
	g := Build(scenes)
	if err := Push(ctx, client, g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
