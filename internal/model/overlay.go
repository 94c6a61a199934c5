package model

// RegionCenter anchors a region in its edit scene. Lon/Lat are the region's
// own coordinates; SharedLon/SharedLat place the region's terminals on the
// global map. A center cannot be moved into a different region.
type RegionCenter struct {
	ID     string
	Region string
	Pos    Point

	Lon float64
	Lat float64

	SharedLon float64
	SharedLat float64
}

// Entity wraps the center in its tagged variant.
func (r *RegionCenter) Entity() *Entity { return &Entity{Kind: KindRegionCenter, Center: r} }

// BackgroundPhoto is an optional raster overlay for a region or the global
// scene, anchored geodetically.
type BackgroundPhoto struct {
	ID     string
	Region string
	Path   string
	Pos    Point

	ScaleFactor float64
	Opacity     float64
	AnchorLon   float64
	AnchorLat   float64
}

// Entity wraps the photo in its tagged variant.
func (p *BackgroundPhoto) Entity() *Entity { return &Entity{Kind: KindPhoto, Photo: p} }

// Measurement is the two-click distance overlay. It stays in the scene after
// the second click so the operator can read the label.
type Measurement struct {
	ID     string
	Region string

	Start    Point
	End      Point
	HasStart bool
	HasEnd   bool

	// Meters is the measured distance; Label the formatted text at the
	// line midpoint.
	Meters float64
	Label  string
}

// Entity wraps the measurement in its tagged variant.
func (m *Measurement) Entity() *Entity { return &Entity{Kind: KindMeasurement, Measure: m} }
