// Package vehicles holds the train, ship and truck template pools handed to
// the simulators, plus the per-mode container capacity used when the fan-out
// worker sizes a fleet.
package vehicles

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"cargonetsim/internal/model"
)

// Template is one vehicle definition as the simulators accept it.
type Template struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// payload flattens a template into the define_simulator vehicle shape.
func (t Template) payload() map[string]any {
	out := map[string]any{"name": t.Name}
	for k, v := range t.Params {
		out[k] = v
	}
	return out
}

// Catalog is the pool for one mode.
type Catalog struct {
	AverageContainerNumber int        `yaml:"average_container_number"`
	Templates              []Template `yaml:"templates"`
}

// Registry bundles the three catalogs. Random picks are driven by a local
// source so runs can be made reproducible with Seed.
type Registry struct {
	Trains Catalog `yaml:"trains"`
	Ships  Catalog `yaml:"ships"`
	Trucks Catalog `yaml:"trucks"`

	rng *rand.Rand
}

// Default returns the built-in pools used when no catalog file is configured.
func Default() *Registry {
	return &Registry{
		Trains: Catalog{
			AverageContainerNumber: 40,
			Templates: []Template{
				{Name: "freight_diesel", Params: map[string]any{"locomotives": 2, "cars": 40, "max_speed_kmh": 120.0}},
				{Name: "freight_electric", Params: map[string]any{"locomotives": 1, "cars": 32, "max_speed_kmh": 140.0}},
			},
		},
		Ships: Catalog{
			AverageContainerNumber: 5000,
			Templates: []Template{
				{Name: "feeder", Params: map[string]any{"teu": 1500, "max_speed_knots": 18.0}},
				{Name: "panamax", Params: map[string]any{"teu": 5000, "max_speed_knots": 22.0}},
				{Name: "ulcv", Params: map[string]any{"teu": 18000, "max_speed_knots": 23.0}},
			},
		},
		Trucks: Catalog{
			AverageContainerNumber: 2,
			Templates: []Template{
				{Name: "semi_trailer", Params: map[string]any{"axles": 5, "max_speed_kmh": 90.0}},
			},
		},
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// Load reads a YAML catalog file; catalogs absent from the file keep the
// built-in pool so a partial file only overrides what it names.
func Load(path string) (*Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vehicle catalog: %w", err)
	}
	if err := yaml.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("vehicle catalog %s: %w", path, err)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("vehicle catalog %s: %w", path, err)
	}
	return r, nil
}

func (r *Registry) validate() error {
	for _, c := range []struct {
		name string
		cat  Catalog
	}{{"trains", r.Trains}, {"ships", r.Ships}, {"trucks", r.Trucks}} {
		if c.cat.AverageContainerNumber < 1 {
			return fmt.Errorf("%s: average_container_number must be >= 1", c.name)
		}
		if len(c.cat.Templates) == 0 {
			return fmt.Errorf("%s: at least one template required", c.name)
		}
	}
	return nil
}

// Seed fixes the pick order for reproducible runs.
func (r *Registry) Seed(seed int64) {
	r.rng = rand.New(rand.NewSource(seed))
}

func (r *Registry) pick(c Catalog) map[string]any {
	if len(c.Templates) == 0 {
		return nil
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return c.Templates[r.rng.Intn(len(c.Templates))].payload()
}

// RandomTrain picks a train template payload.
func (r *Registry) RandomTrain() map[string]any { return r.pick(r.Trains) }

// RandomShip picks a ship template payload.
func (r *Registry) RandomShip() map[string]any { return r.pick(r.Ships) }

// RandomTruck picks a truck template payload.
func (r *Registry) RandomTruck() map[string]any { return r.pick(r.Trucks) }

// RandomFor picks a template payload for the mode.
func (r *Registry) RandomFor(m model.Mode) map[string]any {
	switch m {
	case model.ModeRail:
		return r.RandomTrain()
	case model.ModeShip:
		return r.RandomShip()
	}
	return r.RandomTruck()
}

// Capacity is the per-vehicle container capacity for the mode.
func (r *Registry) Capacity(m model.Mode) int {
	var n int
	switch m {
	case model.ModeRail:
		n = r.Trains.AverageContainerNumber
	case model.ModeShip:
		n = r.Ships.AverageContainerNumber
	default:
		n = r.Trucks.AverageContainerNumber
	}
	if n < 1 {
		n = 1
	}
	return n
}
