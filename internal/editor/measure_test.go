package editor

import (
	"math"
	"testing"
	"time"

	"cargonetsim/internal/geo"
	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
	"cargonetsim/internal/region"
	"cargonetsim/internal/scene"
)

func TestMeasureOutsideModeRejected(t *testing.T) {
	bus := pubsub.NewBus(nil)
	e := New(scene.NewSet(), region.NewRegistry(bus), bus, nil)

	if _, err := e.ClickMeasure(scenePoint(0, 0)); protocol.CodeOf(err) != protocol.ErrBadRequest {
		t.Fatalf("expected E_BAD_REQUEST, got %v", err)
	}
}

func scenePoint(lon, lat float64) model.Point {
	x, y := geo.GeodeticToScene(lon, lat)
	return model.Point{X: x, Y: y}
}

func TestMeasureGeodeticOneDegreeLatitude(t *testing.T) {
	bus := pubsub.NewBus(nil)
	e := New(scene.NewSet(), region.NewRegistry(bus), bus, nil)
	ch, cancel := bus.Subscribe(pubsub.TopicMeasurementCompleted)
	defer cancel()

	e.SetMode(ModeMeasure)
	if _, err := e.ClickMeasure(scenePoint(0, 0)); err != nil {
		t.Fatalf("first click: %v", err)
	}
	m, err := e.ClickMeasure(scenePoint(0, 1))
	if err != nil {
		t.Fatalf("second click: %v", err)
	}
	if m.Label != "110.6 km" {
		t.Fatalf("label: %q", m.Label)
	}
	if math.Abs(m.Meters-110574.389) > 1 {
		t.Fatalf("distance: %v", m.Meters)
	}
	if e.Mode() != ModeIdle {
		t.Fatalf("measure should auto-exit after the second click")
	}

	select {
	case ev := <-ch:
		if ev.Payload.(*model.Measurement).ID != m.ID {
			t.Fatalf("wrong measurement in event")
		}
	case <-time.After(time.Second):
		t.Fatalf("measurement_completed not published")
	}
}

func TestMeasureOverlayRetainedInScene(t *testing.T) {
	scenes := scene.NewSet()
	e := New(scenes, region.NewRegistry(nil), nil, nil)
	e.SetMode(ModeMeasure)
	_, _ = e.ClickMeasure(scenePoint(0, 0))
	m, _ := e.ClickMeasure(scenePoint(1, 0))
	if scenes.Region.ItemByID(model.KindMeasurement, m.ID) == nil {
		t.Fatalf("overlay not retained in the scene")
	}
}

func TestMeasureProjectedMode(t *testing.T) {
	e := New(scene.NewSet(), region.NewRegistry(nil), nil, nil)
	e.SetProjectedView(true)
	e.SetMode(ModeMeasure)
	_, _ = e.ClickMeasure(scenePoint(0, 0))
	m, _ := e.ClickMeasure(scenePoint(1, 0))
	// One degree of longitude at the equator in Web Mercator metres.
	want := geo.EarthRadius * math.Pi / 180
	if math.Abs(m.Meters-want) > 1e-6*want {
		t.Fatalf("projected distance: got %v want %v", m.Meters, want)
	}
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{999.4, "999 m"},
		{1000, "1.0 km"},
		{110574.389, "110.6 km"},
	}
	for _, c := range cases {
		if got := FormatDistance(c.meters); got != c.want {
			t.Fatalf("format %v: got %q want %q", c.meters, got, c.want)
		}
	}
}

func TestMeasureSamePointIsZero(t *testing.T) {
	e := New(scene.NewSet(), region.NewRegistry(nil), nil, nil)
	e.SetMode(ModeMeasure)
	p := scenePoint(12.5, 41.9)
	_, _ = e.ClickMeasure(p)
	m, _ := e.ClickMeasure(p)
	if m.Meters != 0 {
		t.Fatalf("distance(p, p) = %v, want 0", m.Meters)
	}
}
