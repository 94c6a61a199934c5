package worker

import (
	"context"
	"testing"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/scene"
	"cargonetsim/internal/services/simulator"
	"cargonetsim/internal/vehicles"
)

type fanoutFixture struct {
	scenes *scene.Set
	train  *simulator.Memory
	ship   *simulator.Memory
	truck  *simulator.Memory
	path   protocol.Path

	railSrc, railDst   string
	truckSrc, truckDst string
	seaDst             *model.Terminal
}

// newFanoutFixture builds a three-segment path Origin >rail> Port1 >ship>
// Port2 >truck> Destination across two regions, with three containers
// staged at the origin.
func newFanoutFixture(t *testing.T) *fanoutFixture {
	t.Helper()
	f := &fanoutFixture{
		scenes: scene.NewSet(),
		train:  simulator.NewMemory(protocol.ServiceTrainSim),
		ship:   simulator.NewMemory(protocol.ServiceShipSim),
		truck:  simulator.NewMemory(protocol.ServiceTruckSim),
	}

	o := model.NewTerminal(model.TypeOrigin, "O", "R1", model.Point{})
	o.Containers = []protocol.ContainerRecord{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	p1 := model.NewTerminal(model.TypeSeaPort, "P1", "R1", model.Point{X: 100})
	p2 := model.NewTerminal(model.TypeSeaPort, "P2", "R2", model.Point{X: 200})
	d := model.NewTerminal(model.TypeDestination, "D", "R2", model.Point{X: 300})
	f.seaDst = p2
	for _, term := range []*model.Terminal{o, p1, p2, d} {
		if err := f.scenes.Region.AddItem(term.Entity()); err != nil {
			t.Fatalf("add terminal: %v", err)
		}
	}

	// Global mirrors give the ship leg its WGS-84 endpoints.
	for _, m := range []*model.GlobalTerminal{
		{ID: model.NewID(), TerminalID: p1.ID, Region: "R1", Name: "P1", Lon: 10, Lat: 50},
		{ID: model.NewID(), TerminalID: p2.ID, Region: "R2", Name: "P2", Lon: 20, Lat: 40},
	} {
		if err := f.scenes.Global.AddItem(m.Entity()); err != nil {
			t.Fatalf("add mirror: %v", err)
		}
	}

	addNode := func(network string, mode model.Mode, region, linked string) string {
		n := &model.MapNode{ID: model.NewID(), Network: network, Mode: mode, Region: region, LinkedTerminal: linked}
		if err := f.scenes.Region.AddItem(n.Entity()); err != nil {
			t.Fatalf("add node: %v", err)
		}
		return n.ID
	}
	f.railSrc = addNode("railnetA", model.ModeRail, "R1", o.ID)
	f.railDst = addNode("railnetA", model.ModeRail, "R1", p1.ID)
	f.truckSrc = addNode("tk", model.ModeTruck, "R2", p2.ID)
	f.truckDst = addNode("tk", model.ModeTruck, "R2", d.ID)

	f.path = protocol.Path{
		ID:        1,
		Terminals: []string{o.ID, p1.ID, p2.ID, d.ID},
		Segments: []protocol.RouteSegment{
			{ID: "s1", StartTerminal: o.ID, EndTerminal: p1.ID, Mode: protocol.ModeTrain},
			{ID: "s2", StartTerminal: p1.ID, EndTerminal: p2.ID, Mode: protocol.ModeShip},
			{ID: "s3", StartTerminal: p2.ID, EndTerminal: d.ID, Mode: protocol.ModeTruck},
		},
	}
	return f
}

func (f *fanoutFixture) worker() *FanOut {
	fleet := vehicles.Default()
	fleet.Trains.AverageContainerNumber = 2
	fleet.Trucks.AverageContainerNumber = 2
	fleet.Seed(1)
	return NewFanOut(f.scenes, FanOutConfig{
		Train:       f.train,
		Ship:        f.ship,
		Truck:       f.truck,
		Fleet:       fleet,
		MasterFiles: map[string]string{"tk": "networks/tk_master.dat"},
	}, nil, nil)
}

func TestFanOutThreeModes(t *testing.T) {
	f := newFanoutFixture(t)
	started, err := f.worker().Run(context.Background(), []protocol.Path{f.path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(started.Skipped) != 0 {
		t.Fatalf("skipped: %v", started.Skipped)
	}

	// Rail: three containers at capacity two make two trains.
	if f.train.Resets != 1 {
		t.Fatalf("train resets: %d", f.train.Resets)
	}
	if len(f.train.Defined) != 1 {
		t.Fatalf("train defines: %d", len(f.train.Defined))
	}
	def := f.train.Defined[0]
	if def.Network != "railnetA" || def.TimeStep != 1.0 {
		t.Fatalf("train define: %+v", def)
	}
	if len(def.Vehicles) != 2 {
		t.Fatalf("trains: %d", len(def.Vehicles))
	}
	if def.Vehicles[0].UserID != "1_0" || def.Vehicles[1].UserID != "1_1" {
		t.Fatalf("train ids: %s %s", def.Vehicles[0].UserID, def.Vehicles[1].UserID)
	}
	if def.Vehicles[0].LoadTime != 0 || def.Vehicles[1].LoadTime != 10 {
		t.Fatalf("load offsets: %v %v", def.Vehicles[0].LoadTime, def.Vehicles[1].LoadTime)
	}
	if r := def.Vehicles[0].Route; len(r) != 2 || r[0] != f.railSrc || r[1] != f.railDst {
		t.Fatalf("train route: %v", r)
	}
	if len(f.train.Pushes) != 2 {
		t.Fatalf("train pushes: %d", len(f.train.Pushes))
	}
	first := f.train.Pushes[0]
	if first.VehicleID != "1_0" || len(first.Containers) != 2 {
		t.Fatalf("first push: %+v", first)
	}
	c := first.Containers[0]
	if c.ID != "1_c1" || c.Location != f.railSrc {
		t.Fatalf("container rewrite: %+v", c)
	}
	if n := len(c.Destinations); n == 0 || c.Destinations[n-1] != f.railDst {
		t.Fatalf("container destination: %v", c.Destinations)
	}
	if len(f.train.Runs) != 1 || f.train.Runs[0][0] != "railnetA" {
		t.Fatalf("train run: %v", f.train.Runs)
	}

	// Ship: cross-region leg runs on the combined network name.
	if len(f.ship.Defined) != 1 {
		t.Fatalf("ship defines: %d", len(f.ship.Defined))
	}
	sdef := f.ship.Defined[0]
	if sdef.Network != "R1_to_R2" {
		t.Fatalf("ship network: %s", sdef.Network)
	}
	if len(sdef.Vehicles) != 1 {
		t.Fatalf("ships: %d", len(sdef.Vehicles))
	}
	shipV := sdef.Vehicles[0]
	if shipV.Route[0] != "10.000000,50.000000" || shipV.Route[1] != "20.000000,40.000000" {
		t.Fatalf("ship route: %v", shipV.Route)
	}
	if len(shipV.Destination) != 1 || shipV.Destination[0] != f.seaDst.ID {
		t.Fatalf("ship destination: %v", shipV.Destination)
	}
	if sdef.Extra == nil {
		t.Fatalf("ship define without destination lists")
	}

	// Truck: one client per network, two trips, async run.
	if len(f.truck.Clients) != 1 {
		t.Fatalf("truck clients: %d", len(f.truck.Clients))
	}
	cl := f.truck.Clients[0]
	if cl.Network != "tk" || cl.MasterFile != "networks/tk_master.dat" || cl.SimTime != 3600 {
		t.Fatalf("truck client: %+v", cl)
	}
	if len(f.truck.Trips) != 2 {
		t.Fatalf("trips: %d", len(f.truck.Trips))
	}
	trip := f.truck.Trips[0]
	if trip.Network != "tk" || trip.StartNode != f.truckSrc || trip.EndNode != f.truckDst {
		t.Fatalf("trip: %+v", trip)
	}
	if len(f.truck.AsyncRun) != 1 || f.truck.AsyncRun[0][0] != "tk" {
		t.Fatalf("truck run: %v", f.truck.AsyncRun)
	}

	if started.Vehicles != 3 || started.Trips != 2 {
		t.Fatalf("totals: %d vehicles, %d trips", started.Vehicles, started.Trips)
	}
}

func TestFanOutPreservesOriginContainers(t *testing.T) {
	f := newFanoutFixture(t)
	if _, err := f.worker().Run(context.Background(), []protocol.Path{f.path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	origin := f.scenes.Region.ItemByID(model.KindTerminal, f.path.Terminals[0]).Terminal
	for i, want := range []string{"c1", "c2", "c3"} {
		c := origin.Containers[i]
		if c.ID != want || c.Location != "" || len(c.Destinations) != 0 {
			t.Fatalf("origin container %d mutated: %+v", i, c)
		}
	}
}

func TestFanOutSkipsUnresolvableSegments(t *testing.T) {
	f := newFanoutFixture(t)
	f.path.Segments[0].StartTerminal = "gone"
	started, err := f.worker().Run(context.Background(), []protocol.Path{f.path})
	if err != nil {
		t.Fatalf("a missing endpoint must not abort the run: %v", err)
	}
	if len(started.Skipped) != 1 {
		t.Fatalf("skipped: %v", started.Skipped)
	}
	if len(f.train.Defined) != 0 {
		t.Fatalf("skipped rail segment was defined")
	}
	// The other two legs still ran.
	if len(f.ship.Defined) != 1 || len(f.truck.Trips) != 2 {
		t.Fatalf("remaining legs dropped: %d ship defines, %d trips",
			len(f.ship.Defined), len(f.truck.Trips))
	}
}

func TestFanOutSkipsWithoutCommonNetwork(t *testing.T) {
	f := newFanoutFixture(t)
	// Rewire the destination-side truck node to a different network.
	for _, e := range f.scenes.Region.ItemsByKind(model.KindMapNode) {
		if e.Node.ID == f.truckDst {
			e.Node.Network = "other"
		}
	}
	started, err := f.worker().Run(context.Background(), []protocol.Path{f.path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(started.Skipped) != 1 {
		t.Fatalf("skipped: %v", started.Skipped)
	}
	if len(f.truck.Trips) != 0 {
		t.Fatalf("trips on disjoint networks: %d", len(f.truck.Trips))
	}
}

func TestFanOutResetFailureAbortsRun(t *testing.T) {
	f := newFanoutFixture(t)
	f.train.FailReset = true
	_, err := f.worker().Run(context.Background(), []protocol.Path{f.path})
	if protocol.CodeOf(err) != protocol.ErrResetFailed {
		t.Fatalf("err: %v", err)
	}
	if len(f.ship.Defined) != 0 || len(f.truck.Clients) != 0 {
		t.Fatalf("later backends driven after aborted run")
	}
}

func TestFanOutCancelled(t *testing.T) {
	f := newFanoutFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.worker().Run(ctx, []protocol.Path{f.path})
	if protocol.CodeOf(err) != protocol.ErrCancelled {
		t.Fatalf("err: %v", err)
	}
}
