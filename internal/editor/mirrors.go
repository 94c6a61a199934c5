package editor

import (
	"cargonetsim/internal/geo"
	"cargonetsim/internal/model"
	"cargonetsim/internal/scene"
)

// SetShowOnGlobalMap flips a terminal's global visibility. Turning it on
// creates the mirror at the region's shared coordinates plus the terminal's
// geodetic offset from the region center; turning it off removes the mirror.
func (e *Editor) SetShowOnGlobalMap(terminalID string, show bool) {
	ent := e.scenes.Region.ItemByID(model.KindTerminal, terminalID)
	if ent == nil {
		return
	}
	t := ent.Terminal
	if t.ShowOnGlobalMap == show {
		return
	}
	t.ShowOnGlobalMap = show
	if show {
		e.syncMirror(t)
	} else {
		e.removeMirror(terminalID)
	}
	e.changed(terminalID)
}

// MoveTerminal repositions a terminal on the region scene and propagates the
// move to its mirror.
func (e *Editor) MoveTerminal(terminalID string, pos model.Point) {
	ent := e.scenes.Region.ItemByID(model.KindTerminal, terminalID)
	if ent == nil {
		return
	}
	ent.Terminal.Pos = pos
	if ent.Terminal.ShowOnGlobalMap {
		e.syncMirror(ent.Terminal)
	}
	e.changed(terminalID)
}

// RemoveTerminal deletes a terminal, its mirror, and every connection line
// touching either of them.
func (e *Editor) RemoveTerminal(terminalID string) {
	mirror := e.mirrorOf(terminalID)
	e.removeConnectionsTouching(e.scenes.Region, terminalID)
	if mirror != nil {
		e.removeConnectionsTouching(e.scenes.Global, mirror.ID)
	}
	e.removeMirror(terminalID)
	e.scenes.Region.RemoveItem(model.KindTerminal, terminalID)
	e.changed(terminalID)
}

func (e *Editor) removeConnectionsTouching(sc *scene.Scene, endpoint string) {
	for _, it := range sc.ItemsByKind(model.KindConnection) {
		c := it.Connection
		if c.From == endpoint || c.To == endpoint {
			sc.RemoveItem(model.KindConnection, c.ID)
		}
	}
}

func (e *Editor) mirrorOf(terminalID string) *model.GlobalTerminal {
	for _, it := range e.scenes.Global.ItemsByKind(model.KindGlobalTerminal) {
		if it.Global.TerminalID == terminalID {
			return it.Global
		}
	}
	return nil
}

func (e *Editor) removeMirror(terminalID string) {
	if m := e.mirrorOf(terminalID); m != nil {
		e.removeConnectionsTouching(e.scenes.Global, m.ID)
		e.scenes.Global.RemoveItem(model.KindGlobalTerminal, m.ID)
	}
}

// syncMirror creates or repositions the mirror of a terminal. The mirror's
// coordinates are the region's shared lat/lon offset by the terminal's
// geodetic delta from the region center.
func (e *Editor) syncMirror(t *model.Terminal) {
	lat, lon := e.mirrorCoordinates(t)
	m := e.mirrorOf(t.ID)
	if m == nil {
		m = &model.GlobalTerminal{
			ID:         model.NewID(),
			TerminalID: t.ID,
			Region:     t.Region,
			Name:       t.Name,
		}
		e.placeMirror(m, lat, lon)
		_ = e.scenes.Global.AddItem(m.Entity())
		return
	}
	m.Region = t.Region
	m.Name = t.Name
	e.placeMirror(m, lat, lon)
}

func (e *Editor) mirrorCoordinates(t *model.Terminal) (lat, lon float64) {
	rec := e.regions.Get(t.Region)
	tLon, tLat := geo.SceneToGeodetic(t.Pos.X, t.Pos.Y)
	var dLat, dLon float64
	if center := e.regionCenter(t.Region); center != nil {
		cLon, cLat := geo.SceneToGeodetic(center.Pos.X, center.Pos.Y)
		dLat, dLon = tLat-cLat, tLon-cLon
	}
	if rec == nil {
		return tLat, tLon
	}
	return rec.SharedLat + dLat, rec.SharedLon + dLon
}

func (e *Editor) regionCenter(regionName string) *model.RegionCenter {
	for _, it := range e.scenes.Region.ItemsByKind(model.KindRegionCenter) {
		if it.Center.Region == regionName {
			return it.Center
		}
	}
	return nil
}

func (e *Editor) placeMirror(m *model.GlobalTerminal, lat, lon float64) {
	m.Lat, m.Lon = lat, lon
	x, y := geo.GeodeticToScene(lon, lat)
	m.Pos = model.Point{X: x, Y: y}
}
