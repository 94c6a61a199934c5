// Package terminalgraph holds the client interface to the terminal-graph
// routing service, the websocket implementation, and an in-process reference
// server used for embedded mode and tests.
package terminalgraph

import (
	"context"

	"cargonetsim/internal/protocol"
)

// ModeAny disables the mode filter on find_top_paths.
const ModeAny = "Any"

// Client is what the path-finding worker depends on.
type Client interface {
	ResetServer(ctx context.Context) error
	AddTerminal(ctx context.Context, t protocol.TerminalRecord) error
	AddRoute(ctx context.Context, s protocol.RouteSegment) error
	TerminalStatus(ctx context.Context, id string) (bool, error)
	FindTopPaths(ctx context.Context, src, dst string, k int, modeFilter string, ignoreDwell bool) ([]protocol.Path, error)
}
