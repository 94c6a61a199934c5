// Package region tracks the named geographic partitions of a project. The
// registry is constructed once per application context (never a package
// singleton) and mutated only on the UI goroutine; workers read snapshots.
package region

import (
	"sort"
	"sync"

	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
)

// DefaultRegion always exists; the registry refuses to drop to zero regions.
const DefaultRegion = "Default Region"

// Well-known variable keys.
const (
	VarColor       = "color"
	VarCenterPoint = "center_point"
	VarPhoto       = "background_photo"
)

// Record is the per-region state: display color, center-point and photo
// references, placement coordinates, and imported network names by mode.
type Record struct {
	Name  string
	Color string

	CenterID string
	PhotoID  string

	Lat float64
	Lon float64

	// Shared coordinates place the region's terminals on the global scene.
	SharedLat float64
	SharedLon float64

	RailNetworks  map[string]struct{}
	TruckNetworks map[string]struct{}

	vars map[string]any
}

// Reassigner moves every entity of one region into another. The scene set
// implements it; the registry calls it inside remove and rename so region
// references never dangle.
type Reassigner interface {
	ReassignRegion(from, to string)
}

// Renamed is the payload of a rename event.
type Renamed struct {
	Old string
	New string
}

// Registry is the process-wide mapping of region name to record.
type Registry struct {
	mu      sync.RWMutex
	regions map[string]*Record
	current string
	bus     *pubsub.Bus
}

// NewRegistry builds a registry holding only the default region, which is
// also current.
func NewRegistry(bus *pubsub.Bus) *Registry {
	r := &Registry{
		regions: map[string]*Record{},
		bus:     bus,
	}
	r.regions[DefaultRegion] = newRecord(DefaultRegion)
	r.current = DefaultRegion
	return r
}

func newRecord(name string) *Record {
	return &Record{
		Name:          name,
		Color:         "#2e7d32",
		RailNetworks:  map[string]struct{}{},
		TruckNetworks: map[string]struct{}{},
		vars:          map[string]any{},
	}
}

func (r *Registry) publish(topic string, payload any) {
	if r.bus != nil {
		r.bus.Publish(topic, payload)
	}
}

// AddRegion creates a region. Duplicate names fail with E_DUPLICATE_REGION.
func (r *Registry) AddRegion(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[name]; ok {
		return protocol.Errorf(protocol.ErrDuplicateRegion, "region %q already exists", name)
	}
	r.regions[name] = newRecord(name)
	r.publish(pubsub.TopicRegionAdded, name)
	return nil
}

// RemoveRegion deletes a region, moving its entities to fallback via re.
// Removing the last region fails with E_LAST_REGION.
func (r *Registry) RemoveRegion(name, fallback string, re Reassigner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[name]; !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", name)
	}
	if len(r.regions) == 1 {
		return protocol.Errorf(protocol.ErrLastRegion, "cannot remove the last region")
	}
	if _, ok := r.regions[fallback]; !ok || fallback == name {
		// Fall back to any surviving region, default preferred.
		fallback = ""
		if _, ok := r.regions[DefaultRegion]; ok && name != DefaultRegion {
			fallback = DefaultRegion
		} else {
			for n := range r.regions {
				if n != name {
					fallback = n
					break
				}
			}
		}
	}
	delete(r.regions, name)
	if re != nil {
		re.ReassignRegion(name, fallback)
	}
	if r.current == name {
		r.current = fallback
		r.publish(pubsub.TopicCurrentRegionChanged, fallback)
	}
	r.publish(pubsub.TopicRegionRemoved, name)
	return nil
}

// RenameRegion atomically renames a region; entity references follow via re.
func (r *Registry) RenameRegion(old, new string, re Reassigner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.regions[old]
	if !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", old)
	}
	if old == new {
		return nil
	}
	if _, ok := r.regions[new]; ok {
		return protocol.Errorf(protocol.ErrDuplicateRegion, "region %q already exists", new)
	}
	delete(r.regions, old)
	rec.Name = new
	r.regions[new] = rec
	if re != nil {
		re.ReassignRegion(old, new)
	}
	if r.current == old {
		r.current = new
	}
	r.publish(pubsub.TopicRegionRenamed, Renamed{Old: old, New: new})
	return nil
}

// SetCurrentRegion switches the region the edit scene shows.
func (r *Registry) SetCurrentRegion(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[name]; !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", name)
	}
	if r.current == name {
		return nil
	}
	r.current = name
	r.publish(pubsub.TopicCurrentRegionChanged, name)
	return nil
}

// CurrentRegion returns the name of the current region.
func (r *Registry) CurrentRegion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// AllRegionNames returns every region name, sorted.
func (r *Registry) AllRegionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.regions))
	for n := range r.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the record for a region, or nil.
func (r *Registry) Get(name string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.regions[name]
}

// SetVariable writes one key of a region's property bag. Well-known keys
// update the typed fields too.
func (r *Registry) SetVariable(region, key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.regions[region]
	if !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", region)
	}
	switch key {
	case VarColor:
		if s, ok := value.(string); ok {
			rec.Color = s
		}
	case VarCenterPoint:
		if s, ok := value.(string); ok {
			rec.CenterID = s
		}
	case VarPhoto:
		if s, ok := value.(string); ok {
			rec.PhotoID = s
		}
	}
	rec.vars[key] = value
	return nil
}

// Variable reads one key of a region's property bag.
func (r *Registry) Variable(region, key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.regions[region]
	if !ok {
		return nil, false
	}
	switch key {
	case VarColor:
		return rec.Color, true
	case VarCenterPoint:
		return rec.CenterID, rec.CenterID != ""
	case VarPhoto:
		return rec.PhotoID, rec.PhotoID != ""
	}
	v, ok := rec.vars[key]
	return v, ok
}

// VariableMap returns region name -> value for one key across all regions
// that carry it.
func (r *Registry) VariableMap(key string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]any{}
	for name, rec := range r.regions {
		switch key {
		case VarColor:
			out[name] = rec.Color
		case VarCenterPoint:
			if rec.CenterID != "" {
				out[name] = rec.CenterID
			}
		case VarPhoto:
			if rec.PhotoID != "" {
				out[name] = rec.PhotoID
			}
		default:
			if v, ok := rec.vars[key]; ok {
				out[name] = v
			}
		}
	}
	return out
}

// AddNetwork records an imported network name under the region.
func (r *Registry) AddNetwork(region string, railNotTruck bool, network string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.regions[region]
	if !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", region)
	}
	if railNotTruck {
		rec.RailNetworks[network] = struct{}{}
	} else {
		rec.TruckNetworks[network] = struct{}{}
	}
	return nil
}

// SetSharedCoordinates updates where the region sits on the global scene.
func (r *Registry) SetSharedCoordinates(region string, lat, lon float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.regions[region]
	if !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "region %q does not exist", region)
	}
	rec.SharedLat, rec.SharedLon = lat, lon
	return nil
}
