package scene

import (
	"testing"

	"cargonetsim/internal/model"
)

func TestAddRejectsDuplicateID(t *testing.T) {
	s := New("region")
	term := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	if err := s.AddItem(term.Entity()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddItem(term.Entity()); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New("region")
	term := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	_ = s.AddItem(term.Entity())
	s.RemoveItem(model.KindTerminal, term.ID)
	s.RemoveItem(model.KindTerminal, term.ID) // no-op
	if s.ItemByID(model.KindTerminal, term.ID) != nil {
		t.Fatalf("terminal still present after remove")
	}
	if len(s.Items()) != 0 {
		t.Fatalf("draw list not empty: %d", len(s.Items()))
	}
}

func TestHitTestingPointAndSegment(t *testing.T) {
	s := New("region")
	a := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{X: 0, Y: 0})
	b := model.NewTerminal(model.TypeIntermodalLand, "B", "R1", model.Point{X: 100, Y: 0})
	_ = s.AddItem(a.Entity())
	_ = s.AddItem(b.Entity())
	conn := model.NewConnectionLine(model.ModeRail, "R1", a.ID, b.ID, false)
	_ = s.AddItem(conn.Entity())

	hits := s.ItemsAt(model.Point{X: 2, Y: 2})
	if len(hits) == 0 {
		t.Fatalf("expected hit near terminal A")
	}
	found := false
	for _, h := range hits {
		if h.Kind == model.KindTerminal && h.ID() == a.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("terminal A not in hits")
	}

	// Midpoint of the line hits the connection but neither terminal.
	hits = s.ItemsAt(model.Point{X: 50, Y: 3})
	if len(hits) != 1 || hits[0].Kind != model.KindConnection {
		t.Fatalf("expected only the connection at the midpoint, got %d hits", len(hits))
	}

	if h := s.ItemsAt(model.Point{X: 50, Y: 50}); len(h) != 0 {
		t.Fatalf("expected no hits far from all items, got %d", len(h))
	}
}

func TestRegionFilterHidesOtherRegions(t *testing.T) {
	s := New("region")
	t1 := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	t2 := model.NewTerminal(model.TypeSeaPort, "B", "R2", model.Point{X: 10})
	_ = s.AddItem(t1.Entity())
	_ = s.AddItem(t2.Entity())

	s.ApplyRegionFilter("R1")
	if s.Hidden(t1.ID) || !s.Hidden(t2.ID) {
		t.Fatalf("filter R1: hidden(t1)=%v hidden(t2)=%v", s.Hidden(t1.ID), s.Hidden(t2.ID))
	}

	s.ApplyRegionFilter("R2")
	if !s.Hidden(t1.ID) || s.Hidden(t2.ID) {
		t.Fatalf("filter R2: hidden(t1)=%v hidden(t2)=%v", s.Hidden(t1.ID), s.Hidden(t2.ID))
	}

	// Hidden entities are not hit-testable.
	if hits := s.ItemsAt(model.Point{}); len(hits) != 0 {
		t.Fatalf("hidden entity still hit-testable")
	}
}

func TestSelection(t *testing.T) {
	s := New("region")
	term := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	_ = s.AddItem(term.Entity())
	s.Select(term.ID)
	if got := s.SelectedItems(); len(got) != 1 || got[0].ID() != term.ID {
		t.Fatalf("selection: %v", got)
	}
	s.ClearSelection()
	if len(s.SelectedItems()) != 0 {
		t.Fatalf("selection not cleared")
	}
}

func TestConnectionBetweenIsUnorderedAndModeTyped(t *testing.T) {
	s := New("region")
	a := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	b := model.NewTerminal(model.TypeSeaPort, "B", "R1", model.Point{X: 50})
	_ = s.AddItem(a.Entity())
	_ = s.AddItem(b.Entity())
	conn := model.NewConnectionLine(model.ModeRail, "R1", a.ID, b.ID, false)
	_ = s.AddItem(conn.Entity())

	if s.ConnectionBetween(model.ModeRail, b.ID, a.ID) == nil {
		t.Fatalf("reversed pair should find the line")
	}
	if s.ConnectionBetween(model.ModeTruck, a.ID, b.ID) != nil {
		t.Fatalf("different mode must not match")
	}
}

func TestSetReassignReachesBothScenes(t *testing.T) {
	set := NewSet()
	term := model.NewTerminal(model.TypeSeaPort, "A", "R1", model.Point{})
	_ = set.Region.AddItem(term.Entity())
	mirror := &model.GlobalTerminal{ID: model.NewID(), TerminalID: term.ID, Region: "R1"}
	_ = set.Global.AddItem(mirror.Entity())

	set.ReassignRegion("R1", "R9")
	if term.Region != "R9" || mirror.Region != "R9" {
		t.Fatalf("reassign: term=%q mirror=%q", term.Region, mirror.Region)
	}
}
