package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"cargonetsim/internal/app"
	"cargonetsim/internal/config"
	"cargonetsim/internal/network"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/services/simulator"
	"cargonetsim/internal/services/terminalgraph"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		configPath = flag.String("config", "", "workbench config path (empty: defaults)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		embedGraph = flag.Bool("embed_graph", true, "run the embedded terminal-graph server when no endpoint is configured")

		networkFiles multiFlag
	)
	flag.Var(&networkFiles, "network", "network file to import at startup (repeatable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[workbench] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.ListenAddr = *addr
	}
	if strings.TrimSpace(*dataDir) != "" {
		cfg.DataDir = *dataDir
	}

	backends, embedded := buildBackends(cfg, *embedGraph, logger)

	a, err := app.New(cfg, backends, logger)
	if err != nil {
		logger.Fatalf("build app: %v", err)
	}
	defer a.Close()

	for _, path := range networkFiles {
		if _, err := network.ImportPath(path, a.Scenes, a.Regions); err != nil {
			logger.Fatalf("import %s: %v", path, err)
		}
		logger.Printf("imported network %s", path)
	}

	a.Heartbeat.Start()

	ctx, cancel := signalContext()
	defer cancel()

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/heartbeat", func(rw http.ResponseWriter, _ *http.Request) {
		states := map[string]string{}
		for _, svc := range protocol.Services {
			states[svc] = a.Heartbeat.StateOf(svc).String()
		}
		writeJSON(rw, states)
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/regions", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, map[string]any{
			"regions": a.Regions.AllRegionNames(),
			"current": a.Regions.CurrentRegion(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/paths/latest", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, a.LatestPaths())
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/paths/find", func(rw http.ResponseWriter, req *http.Request) {
		paths, err := a.FindPaths(req.Context(), cfg.Paths.TopK)
		if err != nil {
			writeError(rw, err)
			return
		}
		writeJSON(rw, paths)
	}).Methods(http.MethodPost)

	if embedded != nil {
		r.HandleFunc("/v1/terminalgraph/ws", terminalgraph.Handler(embedded))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// buildBackends dials the configured endpoints. With no terminal-graph
// endpoint and embedding enabled, an in-process server backs the graph and
// is also exposed over websocket.
func buildBackends(cfg config.Config, embedGraph bool, logger *log.Logger) (app.Backends, *terminalgraph.Server) {
	var b app.Backends
	var embedded *terminalgraph.Server

	if cfg.Services.TerminalGraph != "" {
		b.Graph = terminalgraph.NewWSClient(cfg.Services.TerminalGraph)
	} else if embedGraph {
		embedded = terminalgraph.NewServer()
		b.Graph = embedded
		logger.Printf("using embedded terminal-graph server")
	}
	if cfg.Services.TrainSim != "" {
		b.Train = simulator.NewTrainClient(cfg.Services.TrainSim)
	}
	if cfg.Services.ShipSim != "" {
		b.Ship = simulator.NewShipClient(cfg.Services.ShipSim)
	}
	if cfg.Services.TruckSim != "" {
		b.Truck = simulator.NewTruckClient(cfg.Services.TruckSim)
	}
	return b, embedded
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(rw).Encode(map[string]string{
		"code":    protocol.CodeOf(err),
		"message": err.Error(),
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
