// Package worker holds the single-shot background tasks: ranked path finding
// and simulation fan-out. Workers run off the UI goroutine over snapshots
// captured at construction and report through the bus.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"cargonetsim/internal/model"
	"cargonetsim/internal/projection"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/pubsub"
	"cargonetsim/internal/scene"
	"cargonetsim/internal/services/terminalgraph"
)

// PathsReady is the payload on TopicPathsReady.
type PathsReady struct {
	Origin      string
	Destination string
	Paths       []protocol.Path
}

// PathFinder resets the terminal-graph service, pushes the projected graph
// and requests the top-k paths between the unique Origin and Destination.
// The scene snapshot is taken at construction, on the goroutine that owns
// the scenes; Run is safe to call from anywhere afterwards.
type PathFinder struct {
	graph  projection.Graph
	origin string
	dest   string
	client terminalgraph.Client
	k      int
	bus    *pubsub.Bus
	log    *log.Logger
}

func NewPathFinder(scenes *scene.Set, client terminalgraph.Client, k int, bus *pubsub.Bus, logger *log.Logger) *PathFinder {
	if k < 1 {
		k = 1
	}
	w := &PathFinder{
		graph:  projection.Build(scenes),
		client: client,
		k:      k,
		bus:    bus,
		log:    logger,
	}
	for _, e := range scenes.Region.ItemsByKind(model.KindTerminal) {
		switch e.Terminal.Type {
		case model.TypeOrigin:
			w.origin = e.Terminal.ID
		case model.TypeDestination:
			w.dest = e.Terminal.ID
		}
	}
	return w
}

// Start runs the task on its own goroutine; results arrive on the bus.
func (w *PathFinder) Start(ctx context.Context) {
	go w.Run(ctx)
}

// Run executes the staged contract and publishes PathsReady or the error.
func (w *PathFinder) Run(ctx context.Context) ([]protocol.Path, error) {
	paths, err := w.run(ctx)
	if err != nil {
		perr := boundaryError(err)
		if w.log != nil {
			w.log.Printf("pathfind: %s: %s", perr.Code, perr.Message)
		}
		if w.bus != nil {
			w.bus.Publish(pubsub.TopicWorkerError, perr)
		}
		return nil, perr
	}
	if w.bus != nil {
		w.bus.Publish(pubsub.TopicPathsReady, PathsReady{Origin: w.origin, Destination: w.dest, Paths: paths})
	}
	return paths, nil
}

func (w *PathFinder) run(ctx context.Context) ([]protocol.Path, error) {
	if err := w.client.ResetServer(ctx); err != nil {
		return nil, protocol.Errorf(protocol.ErrResetFailed, "terminal graph reset: %v", err)
	}
	if err := w.checkCancel(ctx); err != nil {
		return nil, err
	}

	if w.origin == "" || w.dest == "" {
		return nil, protocol.Errorf(protocol.ErrNoOriginOrDestination,
			"path finding needs exactly one Origin and one Destination terminal")
	}
	if err := w.checkCancel(ctx); err != nil {
		return nil, err
	}

	if err := projection.Push(ctx, w.client, w.graph); err != nil {
		return nil, err
	}
	if err := w.checkCancel(ctx); err != nil {
		return nil, err
	}

	if len(w.graph.Segments) == 0 {
		return nil, protocol.Errorf(protocol.ErrNoConnections, "no connection lines to route over")
	}

	for _, id := range []string{w.origin, w.dest} {
		ok, err := w.client.TerminalStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, protocol.Errorf(protocol.ErrInternal, "terminal %s missing after projection", id)
		}
	}
	if err := w.checkCancel(ctx); err != nil {
		return nil, err
	}

	paths, err := w.client.FindTopPaths(ctx, w.origin, w.dest, w.k, terminalgraph.ModeAny, false)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, protocol.Errorf(protocol.ErrPathNotFound, "no path from %s to %s", w.origin, w.dest)
	}
	return paths, nil
}

// checkCancel observes the caller's cancellation between stages. Up to the
// path request itself the service is left reset-clean on cancellation.
func (w *PathFinder) checkCancel(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	cleanup, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.client.ResetServer(cleanup); err != nil && w.log != nil {
		w.log.Printf("pathfind: reset after cancel: %v", err)
	}
	return protocol.Errorf(protocol.ErrCancelled, "path finding cancelled")
}

// boundaryError converts foreign errors crossing the worker boundary into
// the flat error kinds the UI renders.
func boundaryError(err error) *protocol.Error {
	var perr *protocol.Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return protocol.Errorf(protocol.ErrCancelled, "%v", err)
	}
	return protocol.Errorf(protocol.ErrServiceUnavailable, "%v", err)
}
