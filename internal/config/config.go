// Package config loads the workbench YAML configuration and the JSON
// simulation configuration consumed by the truck flow.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the workbench process configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Services  Services  `yaml:"services"`
	Heartbeat Heartbeat `yaml:"heartbeat"`
	Paths     Paths     `yaml:"paths"`

	VehicleCatalog string `yaml:"vehicle_catalog"`
	SimulationFile string `yaml:"simulation_file"`
}

// Services holds the websocket endpoints of the four backends. An empty
// endpoint means the backend is not configured.
type Services struct {
	TerminalGraph string `yaml:"terminal_graph"`
	TrainSim      string `yaml:"train_sim"`
	ShipSim       string `yaml:"ship_sim"`
	TruckSim      string `yaml:"truck_sim"`
}

type Heartbeat struct {
	IntervalSeconds     int `yaml:"interval_seconds"`
	InitialDelaySeconds int `yaml:"initial_delay_seconds"`
}

// Paths controls the ranked path request.
type Paths struct {
	TopK int `yaml:"top_k"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8990",
		DataDir:    "data",
		Heartbeat:  Heartbeat{IntervalSeconds: 20, InitialDelaySeconds: 2},
		Paths:      Paths{TopK: 3},
	}
}

// Load reads the YAML config; an empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Heartbeat.IntervalSeconds < 1 {
		return fmt.Errorf("heartbeat.interval_seconds must be >= 1")
	}
	if c.Heartbeat.InitialDelaySeconds < 0 {
		return fmt.Errorf("heartbeat.initial_delay_seconds must be >= 0")
	}
	if c.Paths.TopK < 1 {
		return fmt.Errorf("paths.top_k must be >= 1")
	}
	return nil
}

// HeartbeatInterval returns the polling interval as a duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalSeconds) * time.Second
}

// HeartbeatInitialDelay returns the delay before the first probe.
func (c Config) HeartbeatInitialDelay() time.Duration {
	return time.Duration(c.Heartbeat.InitialDelaySeconds) * time.Second
}
