package editor

import (
	"fmt"

	"cargonetsim/internal/geo"
	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
)

// ClickMeasure places the measurement start on the first click and fixes the
// end on the second, computing the distance, labelling the overlay, and
// leaving it in the scene. The mode auto-exits after the second click.
func (e *Editor) ClickMeasure(p model.Point) (*model.Measurement, error) {
	if e.mode != ModeMeasure {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "not in measure mode")
	}
	if e.measure == nil {
		e.measure = &model.Measurement{
			ID:       model.NewID(),
			Region:   e.regions.CurrentRegion(),
			Start:    p,
			HasStart: true,
		}
		return e.measure, nil
	}

	m := e.measure
	m.End = p
	m.HasEnd = true
	m.Meters = e.measureDistance(m.Start, m.End)
	m.Label = FormatDistance(m.Meters)
	_ = e.activeScene().AddItem(m.Entity())
	if e.bus != nil {
		e.bus.Publish(pubsub.TopicMeasurementCompleted, m)
	}
	e.measure = nil
	e.mode = ModeIdle
	return m, nil
}

func (e *Editor) measureDistance(a, b model.Point) float64 {
	lon1, lat1 := geo.SceneToGeodetic(a.X, a.Y)
	lon2, lat2 := geo.SceneToGeodetic(b.X, b.Y)
	if e.projectedView {
		return geo.ProjectedDistance(lon1, lat1, lon2, lat2)
	}
	return geo.VincentyDistance(lon1, lat1, lon2, lat2)
}

// FormatDistance renders metres under a kilometre, kilometres with one
// decimal above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
