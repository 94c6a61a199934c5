package model

import (
	"testing"

	"cargonetsim/internal/protocol"
)

func TestTerminalDefaultsByType(t *testing.T) {
	sea := NewTerminal(TypeSeaPort, "Port", "R1", Point{})
	if !sea.Interfaces.HasLand(ModeTruck) || !sea.Interfaces.HasLand(ModeRail) {
		t.Fatalf("sea port land side: %+v", sea.Interfaces)
	}
	if !sea.Interfaces.HasSea(ModeShip) {
		t.Fatalf("sea port sea side: %+v", sea.Interfaces)
	}
	if !sea.ShowOnGlobalMap {
		t.Fatalf("sea port should show on global map by default")
	}

	depot := NewTerminal(TypeTrainDepot, "Depot", "R1", Point{})
	if !depot.Interfaces.HasLand(ModeRail) || depot.Interfaces.HasLand(ModeTruck) {
		t.Fatalf("train depot land side: %+v", depot.Interfaces)
	}
	if len(depot.Interfaces.SeaSide) != 0 {
		t.Fatalf("train depot sea side should be empty: %+v", depot.Interfaces)
	}
	if depot.ShowOnGlobalMap {
		t.Fatalf("train depot should not show on global map by default")
	}
}

func TestTerminalDefaultsAreNotShared(t *testing.T) {
	a := NewTerminal(TypeSeaPort, "A", "R1", Point{})
	b := NewTerminal(TypeSeaPort, "B", "R1", Point{})
	a.Interfaces.LandSide[0] = ModeShip
	if b.Interfaces.LandSide[0] == ModeShip {
		t.Fatalf("interface defaults aliased between terminals")
	}
}

func TestCloneContainersIsDeep(t *testing.T) {
	orig := NewTerminal(TypeOrigin, "O", "R1", Point{})
	orig.Containers = []protocol.ContainerRecord{
		{ID: "c1", Location: "O", Destinations: []string{"D"}},
	}
	clones := orig.CloneContainers()
	clones[0].ID = "path1_c1"
	clones[0].Destinations[0] = "elsewhere"
	clones[0].Destinations = append(clones[0].Destinations, "n9")

	if orig.Containers[0].ID != "c1" {
		t.Fatalf("original container id mutated: %q", orig.Containers[0].ID)
	}
	if orig.Containers[0].Destinations[0] != "D" {
		t.Fatalf("original destinations mutated: %v", orig.Containers[0].Destinations)
	}
}

func TestEntityVariantAccessors(t *testing.T) {
	term := NewTerminal(TypeDestination, "D", "R2", Point{X: 5, Y: -3})
	e := term.Entity()
	if e.Kind != KindTerminal || e.ID() != term.ID || e.Region() != "R2" {
		t.Fatalf("terminal variant: kind=%v id=%v region=%v", e.Kind, e.ID(), e.Region())
	}
	p, ok := e.Pos()
	if !ok || p != (Point{X: 5, Y: -3}) {
		t.Fatalf("terminal pos: %+v ok=%v", p, ok)
	}

	e.SetRegion("R3")
	if term.Region != "R3" {
		t.Fatalf("SetRegion did not reach payload: %q", term.Region)
	}

	conn := NewConnectionLine(ModeRail, "R3", "a", "b", false)
	ce := conn.Entity()
	if _, ok := ce.Pos(); ok {
		t.Fatalf("connections have no anchor position")
	}
	if !conn.Joins("b", "a") {
		t.Fatalf("Joins must be unordered")
	}
}

func TestCurveSides(t *testing.T) {
	if (&ConnectionLine{Mode: ModeRail}).CurveSide() != 1 {
		t.Fatalf("rail curves positive")
	}
	if (&ConnectionLine{Mode: ModeShip}).CurveSide() != -1 {
		t.Fatalf("ship curves negative")
	}
	if (&ConnectionLine{Mode: ModeTruck}).CurveSide() != 0 {
		t.Fatalf("truck is straight")
	}
}

func TestModeWireSpelling(t *testing.T) {
	if ModeRail.Wire() != protocol.ModeTrain {
		t.Fatalf("rail must be Train on the wire")
	}
	if ModeTruck.Wire() != protocol.ModeTruck || ModeShip.Wire() != protocol.ModeShip {
		t.Fatalf("truck/ship pass through")
	}
	if ModeFromWire(protocol.ModeTrain) != ModeRail {
		t.Fatalf("wire Train maps back to Rail")
	}
}
