package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"cargonetsim/internal/protocol"
)

var simulationSchema = jsonschema.MustCompileString(
	"simulation_config.json", protocol.SimulationConfigSchema)

// SimulationConfig is the JSON file the truck flow consumes: one simulation
// block plus the networks with their master files.
type SimulationConfig struct {
	Simulation SimulationParams `json:"simulation"`
	Networks   []SimNetwork     `json:"networks"`
}

type SimulationParams struct {
	Duration float64 `json:"duration"`
	TimeStep float64 `json:"time_step"`
}

type SimNetwork struct {
	Name       string `json:"name"`
	MasterFile string `json:"master_file"`
}

// MasterFiles maps network names to their master file paths.
func (c SimulationConfig) MasterFiles() map[string]string {
	out := make(map[string]string, len(c.Networks))
	for _, n := range c.Networks {
		out[n.Name] = n.MasterFile
	}
	return out
}

// LoadSimulation reads and validates a simulation config. Schema violations
// come back as one E_INVALID_CONFIG error listing every failure. Relative
// master_file paths are resolved against the file's directory.
func LoadSimulation(path string) (SimulationConfig, error) {
	var cfg SimulationConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, protocol.Errorf(protocol.ErrInvalidConfig, "simulation config: %v", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return cfg, protocol.Errorf(protocol.ErrInvalidConfig, "simulation config %s: %v", path, err)
	}
	if err := simulationSchema.Validate(doc); err != nil {
		return cfg, protocol.Errorf(protocol.ErrInvalidConfig,
			"simulation config %s: %s", path, validationList(err))
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, protocol.Errorf(protocol.ErrInvalidConfig, "simulation config %s: %v", path, err)
	}

	base := filepath.Dir(path)
	for i, n := range cfg.Networks {
		if !filepath.IsAbs(n.MasterFile) {
			cfg.Networks[i].MasterFile = filepath.Join(base, n.MasterFile)
		}
	}
	return cfg, nil
}

// validationList flattens a jsonschema failure into one line per violation.
func validationList(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var lines []string
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := v.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			lines = append(lines, loc+": "+v.Message)
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(lines, "; ")
}
