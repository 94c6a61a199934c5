// Package app wires the engine together: one explicit context holding the
// region registry, scenes, bus, editor, vehicle pools, service clients and
// persistence. Tests construct a fresh App per case; nothing in the engine
// is process-global.
package app

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cargonetsim/internal/config"
	"cargonetsim/internal/editor"
	"cargonetsim/internal/persistence/runindex"
	"cargonetsim/internal/persistence/runlog"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
	"cargonetsim/internal/region"
	"cargonetsim/internal/scene"
	"cargonetsim/internal/services/heartbeat"
	"cargonetsim/internal/services/simulator"
	"cargonetsim/internal/services/terminalgraph"
	"cargonetsim/internal/vehicles"
	"cargonetsim/internal/worker"
)

// Backends are the external service handles. Any of them may be nil; the
// corresponding operations fail with E_SERVICE_UNAVAILABLE.
type Backends struct {
	Graph terminalgraph.Client
	Train simulator.Client
	Ship  simulator.Client
	Truck simulator.TruckClient
}

// App is the explicit application context.
type App struct {
	Config  config.Config
	Bus     *pubsub.Bus
	Regions *region.Registry
	Scenes  *scene.Set
	Editor  *editor.Editor
	Fleet   *vehicles.Registry

	Backends  Backends
	Heartbeat *heartbeat.Monitor

	PathLog *runlog.PathLogger
	RunLog  *runlog.RunLogger
	Index   *runindex.Index

	log         *log.Logger
	unsubscribe func()

	mu          sync.Mutex
	latestPaths []protocol.Path
}

// New builds a context from the config. Persistence under the data dir is
// optional: an empty DataDir disables logs and the index.
func New(cfg config.Config, backends Backends, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(os.Stdout, "[workbench] ", log.LstdFlags|log.Lmicroseconds)
	}

	bus := pubsub.NewBus(logger)
	regions := region.NewRegistry(bus)
	scenes := scene.NewSet()

	fleet, err := vehicles.Load(cfg.VehicleCatalog)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Bus:      bus,
		Regions:  regions,
		Scenes:   scenes,
		Editor:   editor.New(scenes, regions, bus, logger),
		Fleet:    fleet,
		Backends: backends,
		log:      logger,
	}

	if cfg.DataDir != "" {
		a.PathLog = runlog.NewPathLogger(cfg.DataDir)
		a.RunLog = runlog.NewRunLogger(cfg.DataDir)
		idx, err := runindex.Open(filepath.Join(cfg.DataDir, "index", "workbench.db"))
		if err != nil {
			return nil, err
		}
		a.Index = idx
	}

	// The region scene only ever shows the current region.
	scenes.Region.ApplyRegionFilter(regions.CurrentRegion())

	probes := map[string]heartbeat.Probe{}
	if backends.Graph != nil {
		probes[protocol.ServiceTerminalSim] = graphProbe{backends.Graph}
	}
	if backends.Train != nil {
		probes[protocol.ServiceTrainSim] = backends.Train
	}
	if backends.Ship != nil {
		probes[protocol.ServiceShipSim] = backends.Ship
	}
	if backends.Truck != nil {
		probes[protocol.ServiceTruckSim] = backends.Truck
	}
	a.Heartbeat = heartbeat.NewMonitor(probes, nil, bus, logger)
	a.Heartbeat.Interval = cfg.HeartbeatInterval()
	a.Heartbeat.InitialDelay = cfg.HeartbeatInitialDelay()

	a.watchEvents()
	return a, nil
}

// graphProbe adapts the terminal graph client to the heartbeat probe. The
// graph is dialed directly rather than through a command queue, so any
// answered call means the service is attached.
type graphProbe struct {
	c terminalgraph.Client
}

func (g graphProbe) HasCommandQueueConsumers(ctx context.Context) (bool, error) {
	if _, err := g.c.TerminalStatus(ctx, "heartbeat"); err != nil {
		return false, err
	}
	return true, nil
}

// watchEvents feeds worker results and heartbeat transitions into the
// persistence layer and the latest-paths cache, and keeps the region scene's
// visibility in step with the current region.
func (a *App) watchEvents() {
	ch, cancel := a.Bus.Subscribe(pubsub.TopicPathsReady, pubsub.TopicSimulationStarted,
		pubsub.TopicHeartbeat, pubsub.TopicCurrentRegionChanged)
	a.unsubscribe = cancel
	go func() {
		states := map[string]heartbeat.State{}
		for ev := range ch {
			switch p := ev.Payload.(type) {
			case worker.PathsReady:
				a.mu.Lock()
				a.latestPaths = p.Paths
				a.mu.Unlock()
				entry := runlog.PathEntry{
					At: time.Now(), Origin: p.Origin, Destination: p.Destination,
					K: a.Config.Paths.TopK, Paths: p.Paths,
				}
				if a.PathLog != nil {
					if err := a.PathLog.WritePath(entry); err != nil {
						a.log.Printf("app: path log: %v", err)
					}
				}
				a.Index.RecordPathResult(runindex.PathResult{
					At: entry.At, Origin: p.Origin, Destination: p.Destination,
					K: entry.K, Paths: p.Paths,
				})
			case worker.SimulationStarted:
				entry := runlog.RunEntry{
					At:            time.Now(),
					RailNetworks:  p.RailNetworks,
					ShipNetworks:  p.ShipNetworks,
					TruckNetworks: p.TruckNetworks,
					Vehicles:      p.Vehicles,
					Trips:         p.Trips,
					Skipped:       p.Skipped,
				}
				if a.RunLog != nil {
					if err := a.RunLog.WriteRun(entry); err != nil {
						a.log.Printf("app: run log: %v", err)
					}
				}
				a.Index.RecordSimRun(runindex.SimRun{
					At: entry.At, RailNetworks: p.RailNetworks, ShipNetworks: p.ShipNetworks,
					TruckNetworks: p.TruckNetworks, Vehicles: p.Vehicles, Trips: p.Trips,
					Skipped: p.Skipped,
				})
			case string:
				if ev.Topic == pubsub.TopicCurrentRegionChanged {
					a.Scenes.Region.ApplyRegionFilter(p)
				}
			case heartbeat.Update:
				prev := states[p.Service]
				states[p.Service] = p.State
				a.Index.RecordTransition(runindex.Transition{
					At: time.Now(), Service: p.Service,
					From: prev.String(), To: p.State.String(),
				})
			}
		}
	}()
}

// FindPaths launches the path-finding worker over a snapshot of the scenes
// and waits for it. Results also arrive on the bus for views.
func (a *App) FindPaths(ctx context.Context, k int) ([]protocol.Path, error) {
	if a.Backends.Graph == nil {
		return nil, protocol.Errorf(protocol.ErrServiceUnavailable, "no terminal graph backend")
	}
	if k < 1 {
		k = a.Config.Paths.TopK
	}
	w := worker.NewPathFinder(a.Scenes, a.Backends.Graph, k, a.Bus, a.log)
	return w.Run(ctx)
}

// RunSimulation fans the selected paths out to the simulators and waits.
func (a *App) RunSimulation(ctx context.Context, paths []protocol.Path, masterFiles map[string]string) (worker.SimulationStarted, error) {
	w := worker.NewFanOut(a.Scenes, worker.FanOutConfig{
		Train:       a.Backends.Train,
		Ship:        a.Backends.Ship,
		Truck:       a.Backends.Truck,
		Fleet:       a.Fleet,
		MasterFiles: masterFiles,
	}, a.Bus, a.log)
	return w.Run(ctx, paths)
}

// LatestPaths returns the last ranked list the path worker produced.
func (a *App) LatestPaths() []protocol.Path {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]protocol.Path(nil), a.latestPaths...)
}

// Close stops the monitor and flushes persistence.
func (a *App) Close() error {
	if a.Heartbeat != nil {
		a.Heartbeat.Stop()
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	var first error
	if a.PathLog != nil {
		if err := a.PathLog.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.RunLog != nil {
		if err := a.RunLog.Close(); err != nil && first == nil {
			first = err
		}
	}
	if a.Index != nil {
		if err := a.Index.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
