package worker

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
	"cargonetsim/internal/scene"
	"cargonetsim/internal/services/simulator"
	"cargonetsim/internal/vehicles"
)

const (
	simTimeStep      = 1.0
	truckSimTime     = 3600.0
	trainLoadSpacing = 10.0 // seconds between consecutive train departures
)

// FanOutConfig wires the fan-out worker to its backends.
type FanOutConfig struct {
	Train simulator.Client
	Ship  simulator.Client
	Truck simulator.TruckClient

	Fleet *vehicles.Registry

	// MasterFiles maps truck network names to their master file paths.
	MasterFiles map[string]string
}

// SimulationStarted is the payload on TopicSimulationStarted.
type SimulationStarted struct {
	RailNetworks  []string
	ShipNetworks  []string
	TruckNetworks []string
	Vehicles      int
	Trips         int
	Skipped       []string
}

// FanOut splits each selected path into per-segment simulator jobs grouped
// by mode, allocates vehicles by per-mode container capacity and drives the
// three backends. Segments whose endpoints cannot be resolved are skipped
// with a warning; every other per-segment failure accumulates into one
// final error after all paths are processed.
type FanOut struct {
	scenes *scene.Set
	cfg    FanOutConfig
	bus    *pubsub.Bus
	log    *log.Logger
}

func NewFanOut(scenes *scene.Set, cfg FanOutConfig, bus *pubsub.Bus, logger *log.Logger) *FanOut {
	if cfg.Fleet == nil {
		cfg.Fleet = vehicles.Default()
	}
	return &FanOut{scenes: scenes, cfg: cfg, bus: bus, log: logger}
}

// Start runs the fan-out on its own goroutine; the outcome arrives on the bus.
func (w *FanOut) Start(ctx context.Context, paths []protocol.Path) {
	go w.Run(ctx, paths)
}

// Run processes the selected paths in order and drives the simulators.
func (w *FanOut) Run(ctx context.Context, paths []protocol.Path) (SimulationStarted, error) {
	started, err := w.run(ctx, paths)
	if err != nil {
		perr := boundaryError(err)
		if w.log != nil {
			w.log.Printf("fanout: %s: %s", perr.Code, perr.Message)
		}
		if w.bus != nil {
			w.bus.Publish(pubsub.TopicWorkerError, perr)
		}
		return SimulationStarted{}, perr
	}
	if w.bus != nil {
		w.bus.Publish(pubsub.TopicSimulationStarted, started)
	}
	return started, nil
}

// networkPlan is the collected work for one simulator network.
type networkPlan struct {
	vehicles []protocol.VehicleSpec
	pushes   []simulator.ContainerPush
	trips    []protocol.TripSpec
}

type fanoutState struct {
	rail  map[string]*networkPlan
	ship  map[string]*networkPlan
	truck map[string]*networkPlan

	skipped []string
	errs    []string
}

func (s *fanoutState) plan(m map[string]*networkPlan, network string) *networkPlan {
	p, ok := m[network]
	if !ok {
		p = &networkPlan{}
		m[network] = p
	}
	return p
}

func (w *FanOut) run(ctx context.Context, paths []protocol.Path) (SimulationStarted, error) {
	st := &fanoutState{
		rail:  map[string]*networkPlan{},
		ship:  map[string]*networkPlan{},
		truck: map[string]*networkPlan{},
	}

	for _, p := range paths {
		if ctx.Err() != nil {
			return SimulationStarted{}, protocol.Errorf(protocol.ErrCancelled, "simulation fan-out cancelled")
		}
		w.planPath(p, st)
	}

	started, err := w.dispatch(ctx, st)
	if err != nil {
		return SimulationStarted{}, err
	}
	if len(st.errs) > 0 {
		return SimulationStarted{}, protocol.Errorf(protocol.ErrInternal,
			"simulation fan-out: %s", strings.Join(st.errs, "; "))
	}
	return started, nil
}

// planPath walks one path's segments in traversal order and fills the
// per-network plans. Vehicle user ids are "<path>_<i>" with i increasing
// along the path so the fleet ordering is reproducible.
func (w *FanOut) planPath(p protocol.Path, st *fanoutState) {
	pathKey := strconv.Itoa(p.ID)
	origin := w.findTerminal(pathOrigin(p))
	var pool []protocol.ContainerRecord
	if origin != nil {
		pool = origin.Containers
	}

	seq := 0
	for _, seg := range p.Segments {
		start := w.findTerminal(seg.StartTerminal)
		end := w.findTerminal(seg.EndTerminal)
		if start == nil || end == nil {
			w.warnf(st, true, "segment %s: endpoint terminal missing, skipped", seg.ID)
			continue
		}

		switch seg.Mode {
		case protocol.ModeTrain:
			seq = w.planLand(st, st.rail, model.ModeRail, pathKey, seq, seg, start, end, pool)
		case protocol.ModeTruck:
			seq = w.planTruck(st, pathKey, seq, seg, start, end, pool)
		case protocol.ModeShip:
			seq = w.planShip(st, pathKey, seq, seg, start, end, pool)
		default:
			st.errs = append(st.errs, fmt.Sprintf("segment %s: unknown mode %q", seg.ID, seg.Mode))
		}
	}
}

// pathOrigin is the terminal the staged containers travel from.
func pathOrigin(p protocol.Path) string {
	if len(p.Terminals) > 0 {
		return p.Terminals[0]
	}
	if len(p.Segments) > 0 {
		return p.Segments[0].StartTerminal
	}
	return ""
}

// findTerminal resolves an id against the region scene first, then through
// the global mirrors.
func (w *FanOut) findTerminal(id string) *model.Terminal {
	if id == "" {
		return nil
	}
	if e := w.scenes.Region.ItemByID(model.KindTerminal, id); e != nil {
		return e.Terminal
	}
	if m := w.scenes.Global.ItemByID(model.KindGlobalTerminal, id); m != nil {
		if e := w.scenes.Region.ItemByID(model.KindTerminal, m.Global.TerminalID); e != nil {
			return e.Terminal
		}
	}
	return nil
}

// nodesFor collects network -> node id for map nodes of the given mode
// linked to the terminal.
func (w *FanOut) nodesFor(mode model.Mode, term *model.Terminal) map[string]string {
	out := map[string]string{}
	for _, e := range w.scenes.Region.ItemsByKind(model.KindMapNode) {
		n := e.Node
		if n.Mode == mode && n.LinkedTerminal == term.ID {
			out[n.Network] = n.ID
		}
	}
	return out
}

// commonNetworks intersects the two endpoint node maps, sorted for
// deterministic dispatch order.
func commonNetworks(a, b map[string]string) []string {
	var out []string
	for net := range a {
		if _, ok := b[net]; ok {
			out = append(out, net)
		}
	}
	sort.Strings(out)
	return out
}

// planLand allocates trains over every network linking both endpoints.
func (w *FanOut) planLand(st *fanoutState, plans map[string]*networkPlan, mode model.Mode,
	pathKey string, seq int, seg protocol.RouteSegment, start, end *model.Terminal,
	pool []protocol.ContainerRecord) int {

	startNodes := w.nodesFor(mode, start)
	endNodes := w.nodesFor(mode, end)
	nets := commonNetworks(startNodes, endNodes)
	if len(nets) == 0 {
		w.warnf(st, true, "segment %s: no common %s network between %s and %s, skipped",
			seg.ID, mode, start.Name, end.Name)
		return seq
	}

	capacity := w.cfg.Fleet.Capacity(mode)
	for _, net := range nets {
		plan := st.plan(plans, net)
		srcNode, dstNode := startNodes[net], endNodes[net]
		chunks := chunkContainers(pool, capacity, pathKey, srcNode, dstNode)
		for i, chunk := range chunks {
			userID := fmt.Sprintf("%s_%d", pathKey, seq)
			seq++
			plan.vehicles = append(plan.vehicles, protocol.VehicleSpec{
				UserID:   userID,
				Route:    []string{srcNode, dstNode},
				LoadTime: trainLoadSpacing * float64(i),
				Template: w.cfg.Fleet.RandomFor(mode),
			})
			if len(chunk) > 0 {
				plan.pushes = append(plan.pushes, simulator.ContainerPush{
					Network: net, VehicleID: userID, Containers: chunk,
				})
			}
		}
	}
	return seq
}

// planTruck allocates one trip per truck-capacity chunk on every common
// truck network.
func (w *FanOut) planTruck(st *fanoutState, pathKey string, seq int,
	seg protocol.RouteSegment, start, end *model.Terminal,
	pool []protocol.ContainerRecord) int {

	startNodes := w.nodesFor(model.ModeTruck, start)
	endNodes := w.nodesFor(model.ModeTruck, end)
	nets := commonNetworks(startNodes, endNodes)
	if len(nets) == 0 {
		w.warnf(st, true, "segment %s: no common Truck network between %s and %s, skipped",
			seg.ID, start.Name, end.Name)
		return seq
	}

	capacity := w.cfg.Fleet.Capacity(model.ModeTruck)
	for _, net := range nets {
		plan := st.plan(st.truck, net)
		srcNode, dstNode := startNodes[net], endNodes[net]
		chunks := chunkContainers(pool, capacity, pathKey, srcNode, dstNode)
		for _, chunk := range chunks {
			plan.trips = append(plan.trips, protocol.TripSpec{
				Network:    net,
				StartNode:  srcNode,
				EndNode:    dstNode,
				Containers: chunk,
			})
		}
	}
	return seq
}

// planShip routes by WGS-84 endpoints taken from the global mirrors. The
// network is the source region's name, or "<src>_to_<dst>" across regions.
func (w *FanOut) planShip(st *fanoutState, pathKey string, seq int,
	seg protocol.RouteSegment, start, end *model.Terminal,
	pool []protocol.ContainerRecord) int {

	srcMirror := w.mirrorFor(start.ID)
	dstMirror := w.mirrorFor(end.ID)
	if srcMirror == nil || dstMirror == nil {
		w.warnf(st, true, "segment %s: no global position for %s or %s, skipped",
			seg.ID, start.Name, end.Name)
		return seq
	}

	network := start.Region
	if start.Region != end.Region {
		network = start.Region + "_to_" + end.Region
	}
	plan := st.plan(st.ship, network)

	capacity := w.cfg.Fleet.Capacity(model.ModeShip)
	chunks := chunkContainers(pool, capacity, pathKey, start.ID, end.ID)
	route := []string{
		fmt.Sprintf("%.6f,%.6f", srcMirror.Lon, srcMirror.Lat),
		fmt.Sprintf("%.6f,%.6f", dstMirror.Lon, dstMirror.Lat),
	}
	for i, chunk := range chunks {
		userID := fmt.Sprintf("%s_%d", pathKey, seq)
		seq++
		plan.vehicles = append(plan.vehicles, protocol.VehicleSpec{
			UserID:      userID,
			Route:       route,
			LoadTime:    trainLoadSpacing * float64(i),
			Template:    w.cfg.Fleet.RandomShip(),
			Destination: []string{end.ID},
		})
		if len(chunk) > 0 {
			plan.pushes = append(plan.pushes, simulator.ContainerPush{
				Network: network, VehicleID: userID, Containers: chunk,
			})
		}
	}
	return seq
}

func (w *FanOut) mirrorFor(terminalID string) *model.GlobalTerminal {
	for _, e := range w.scenes.Global.ItemsByKind(model.KindGlobalTerminal) {
		if e.Global.TerminalID == terminalID {
			return e.Global
		}
	}
	return nil
}

// chunkContainers deep-copies the pool into capacity-sized chunks with ids
// rewritten to "<path>_<original>", location set to the chunk's source and
// the destination appended. The originals are never mutated. At least one
// chunk comes back so an empty pool still yields a vehicle.
func chunkContainers(pool []protocol.ContainerRecord, capacity int, pathKey, src, dst string) [][]protocol.ContainerRecord {
	count := int(math.Ceil(float64(len(pool)) / float64(capacity)))
	if count < 1 {
		count = 1
	}
	chunks := make([][]protocol.ContainerRecord, count)
	for i, c := range pool {
		clone := c.Clone()
		clone.ID = pathKey + "_" + c.ID
		clone.Location = src
		clone.Destinations = append(clone.Destinations, dst)
		chunks[i/capacity] = append(chunks[i/capacity], clone)
	}
	return chunks
}

// dispatch drives each backend that has planned work. A failed reset aborts
// the whole run; later failures accumulate per network.
func (w *FanOut) dispatch(ctx context.Context, st *fanoutState) (SimulationStarted, error) {
	started := SimulationStarted{Skipped: st.skipped}

	if len(st.rail) > 0 {
		nets, n, err := w.dispatchLifecycle(ctx, st, w.cfg.Train, st.rail, nil)
		if err != nil {
			return SimulationStarted{}, err
		}
		started.RailNetworks = nets
		started.Vehicles += n
	}
	if ctx.Err() != nil {
		return SimulationStarted{}, protocol.Errorf(protocol.ErrCancelled, "simulation fan-out cancelled")
	}
	if len(st.ship) > 0 {
		nets, n, err := w.dispatchLifecycle(ctx, st, w.cfg.Ship, st.ship, shipExtra)
		if err != nil {
			return SimulationStarted{}, err
		}
		started.ShipNetworks = nets
		started.Vehicles += n
	}
	if ctx.Err() != nil {
		return SimulationStarted{}, protocol.Errorf(protocol.ErrCancelled, "simulation fan-out cancelled")
	}
	if len(st.truck) > 0 {
		nets, n, err := w.dispatchTrucks(ctx, st)
		if err != nil {
			return SimulationStarted{}, err
		}
		started.TruckNetworks = nets
		started.Trips = n
	}
	return started, nil
}

// shipExtra carries the per-ship destination terminal lists alongside the
// vehicle specs.
func shipExtra(plan *networkPlan) map[string]any {
	dests := map[string]any{}
	for _, v := range plan.vehicles {
		if len(v.Destination) > 0 {
			dests[v.UserID] = v.Destination
		}
	}
	if len(dests) == 0 {
		return nil
	}
	return map[string]any{"destinations": dests}
}

func (w *FanOut) dispatchLifecycle(ctx context.Context, st *fanoutState, client simulator.Client,
	plans map[string]*networkPlan, extra func(*networkPlan) map[string]any) ([]string, int, error) {

	if client == nil {
		st.errs = append(st.errs, "no client configured, networks dropped")
		return nil, 0, nil
	}
	if err := client.ResetServer(ctx); err != nil {
		return nil, 0, protocol.Errorf(protocol.ErrResetFailed, "%s reset: %v", client.Service(), err)
	}

	nets := sortedKeys(plans)
	fleetSize := 0
	for _, net := range nets {
		plan := plans[net]
		var ex map[string]any
		if extra != nil {
			ex = extra(plan)
		}
		if err := client.DefineSimulator(ctx, net, simTimeStep, plan.vehicles, ex); err != nil {
			st.errs = append(st.errs, fmt.Sprintf("%s %s: define: %v", client.Service(), net, err))
			continue
		}
		fleetSize += len(plan.vehicles)
		for _, push := range plan.pushes {
			if err := client.AddContainersToVehicle(ctx, push.Network, push.VehicleID, push.Containers); err != nil {
				st.errs = append(st.errs, fmt.Sprintf("%s %s/%s: containers: %v",
					client.Service(), push.Network, push.VehicleID, err))
			}
		}
	}
	if err := client.RunSimulator(ctx, nets); err != nil {
		st.errs = append(st.errs, fmt.Sprintf("%s run: %v", client.Service(), err))
	}
	return nets, fleetSize, nil
}

func (w *FanOut) dispatchTrucks(ctx context.Context, st *fanoutState) ([]string, int, error) {
	client := w.cfg.Truck
	if client == nil {
		st.errs = append(st.errs, "no truck client configured, networks dropped")
		return nil, 0, nil
	}
	if err := client.ResetServer(ctx); err != nil {
		return nil, 0, protocol.Errorf(protocol.ErrResetFailed, "%s reset: %v", client.Service(), err)
	}

	nets := sortedKeys(st.truck)
	trips := 0
	for _, net := range nets {
		plan := st.truck[net]
		if err := client.CreateClient(ctx, net, w.cfg.MasterFiles[net], truckSimTime); err != nil {
			st.errs = append(st.errs, fmt.Sprintf("%s %s: create client: %v", client.Service(), net, err))
			continue
		}
		for _, trip := range plan.trips {
			if err := client.AddTrip(ctx, trip); err != nil {
				st.errs = append(st.errs, fmt.Sprintf("%s %s: trip: %v", client.Service(), net, err))
				continue
			}
			trips++
		}
	}
	if err := client.RunSimulationAsync(ctx, nets); err != nil {
		st.errs = append(st.errs, fmt.Sprintf("%s run: %v", client.Service(), err))
	}
	return nets, trips, nil
}

func (w *FanOut) warnf(st *fanoutState, skip bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if skip {
		st.skipped = append(st.skipped, msg)
	}
	if w.log != nil {
		w.log.Printf("fanout: %s", msg)
	}
}

func sortedKeys(m map[string]*networkPlan) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
