package editor

import (
	"math"
	"testing"

	"cargonetsim/internal/model"
	"cargonetsim/internal/region"
)

func TestMirrorFollowsShowOnGlobalMap(t *testing.T) {
	e, scenes, _ := newEditor(t)
	term, err := e.CreateTerminal(model.TypeSeaPort, "Port", model.Point{X: 40, Y: -20})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Sea port defaults to shown.
	if e.mirrorOf(term.ID) == nil {
		t.Fatalf("mirror missing after creation")
	}

	e.SetShowOnGlobalMap(term.ID, false)
	if e.mirrorOf(term.ID) != nil {
		t.Fatalf("mirror should be removed when flag goes false")
	}
	if len(scenes.Global.ItemsByKind(model.KindGlobalTerminal)) != 0 {
		t.Fatalf("global scene not empty")
	}

	e.SetShowOnGlobalMap(term.ID, true)
	if e.mirrorOf(term.ID) == nil {
		t.Fatalf("mirror should be recreated when flag goes true")
	}
}

func TestMirrorToggleReconstructsSameOffset(t *testing.T) {
	e, scenes, regions := newEditor(t)
	_ = regions.SetSharedCoordinates(region.DefaultRegion, 40, -3)
	center := &model.RegionCenter{ID: model.NewID(), Region: region.DefaultRegion,
		Pos: model.Point{X: 10, Y: 10}}
	_ = scenes.Region.AddItem(center.Entity())

	term, err := e.CreateTerminal(model.TypeSeaPort, "Port", model.Point{X: 60, Y: -40})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := e.mirrorOf(term.ID)
	lat, lon := before.Lat, before.Lon

	e.SetShowOnGlobalMap(term.ID, false)
	e.SetShowOnGlobalMap(term.ID, true)
	after := e.mirrorOf(term.ID)
	if after == nil {
		t.Fatalf("mirror not reconstructed")
	}
	if math.Abs(after.Lat-lat) > 1e-9 || math.Abs(after.Lon-lon) > 1e-9 {
		t.Fatalf("offset changed: (%v,%v) vs (%v,%v)", after.Lat, after.Lon, lat, lon)
	}
}

func TestMoveTerminalPropagatesToMirror(t *testing.T) {
	e, _, _ := newEditor(t)
	term, _ := e.CreateTerminal(model.TypeSeaPort, "Port", model.Point{X: 0, Y: 0})
	before := e.mirrorOf(term.ID)
	lat0 := before.Lat

	e.MoveTerminal(term.ID, model.Point{X: 0, Y: -200})
	after := e.mirrorOf(term.ID)
	if after.Lat <= lat0 {
		t.Fatalf("moving north should raise mirror latitude: %v -> %v", lat0, after.Lat)
	}
}

func TestRemoveTerminalRemovesMirrorAndConnections(t *testing.T) {
	e, scenes, _ := newEditor(t)
	a, b := placeTwo(t, e)
	e.SetMode(ModeConnect)
	_, _ = e.ClickConnect(model.KindTerminal, a.ID)
	if _, err := e.ClickConnect(model.KindTerminal, b.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}
	e.Escape()

	e.RemoveTerminal(a.ID)
	if scenes.Region.ItemByID(model.KindTerminal, a.ID) != nil {
		t.Fatalf("terminal still present")
	}
	if e.mirrorOf(a.ID) != nil {
		t.Fatalf("mirror outlived terminal")
	}
	if got := scenes.Region.ItemsByKind(model.KindConnection); len(got) != 0 {
		t.Fatalf("connections outlived endpoint: %d", len(got))
	}
}
