package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8990" || cfg.Paths.TopK != 3 {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.HeartbeatInterval() != 20*time.Second || cfg.HeartbeatInitialDelay() != 2*time.Second {
		t.Fatalf("heartbeat defaults: %v / %v", cfg.HeartbeatInterval(), cfg.HeartbeatInitialDelay())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, "workbench.yaml", `
listen_addr: ":9001"
services:
  terminal_graph: ws://localhost:8081/rpc
  train_sim: ws://localhost:8082/rpc
heartbeat:
  interval_seconds: 5
paths:
  top_k: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9001" || cfg.Services.TerminalGraph != "ws://localhost:8081/rpc" {
		t.Fatalf("overrides: %+v", cfg)
	}
	if cfg.Paths.TopK != 10 || cfg.HeartbeatInterval() != 5*time.Second {
		t.Fatalf("overrides: %+v", cfg)
	}
	// Unset keys keep defaults.
	if cfg.Heartbeat.InitialDelaySeconds != 2 || cfg.DataDir != "data" {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeFile(t, "workbench.yaml", "paths:\n  top_k: 0\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("top_k 0 accepted")
	}
}

func TestLoadSimulation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.json")
	doc := `{
  "simulation": {"duration": 3600, "time_step": 1.0},
  "networks": [
    {"name": "tk", "master_file": "tk_master.dat"},
    {"name": "hw", "master_file": "/abs/hw_master.dat"}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadSimulation(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	files := cfg.MasterFiles()
	if files["tk"] != filepath.Join(dir, "tk_master.dat") {
		t.Fatalf("relative master_file not resolved: %s", files["tk"])
	}
	if files["hw"] != "/abs/hw_master.dat" {
		t.Fatalf("absolute master_file rewritten: %s", files["hw"])
	}
	if cfg.Simulation.TimeStep != 1.0 {
		t.Fatalf("time_step: %v", cfg.Simulation.TimeStep)
	}
}

func TestLoadSimulationListsEveryViolation(t *testing.T) {
	path := writeFile(t, "sim.json", `{
  "simulation": {"duration": 0, "time_step": 1.0},
  "networks": []
}`)
	_, err := LoadSimulation(path)
	if err == nil {
		t.Fatalf("invalid config accepted")
	}
	msg := err.Error()
	for _, want := range []string{"duration", "networks"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("violation for %s missing in %q", want, msg)
		}
	}
}
