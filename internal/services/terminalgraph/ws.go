package terminalgraph

import (
	"context"
	"encoding/json"
	"net/http"

	"cargonetsim/internal/protocol"
	"cargonetsim/internal/services/wsrpc"
)

// WSClient speaks the terminal-graph protocol over a websocket.
type WSClient struct {
	rpc *wsrpc.Client
}

func NewWSClient(url string) *WSClient {
	return &WSClient{rpc: wsrpc.NewClient(url, protocol.ServiceTerminalSim)}
}

func (c *WSClient) Close() { c.rpc.Close() }

func (c *WSClient) ResetServer(ctx context.Context) error {
	return c.rpc.Call(ctx, "reset_server", nil, nil)
}

func (c *WSClient) AddTerminal(ctx context.Context, t protocol.TerminalRecord) error {
	return c.rpc.Call(ctx, "add_terminal", t, nil)
}

func (c *WSClient) AddRoute(ctx context.Context, s protocol.RouteSegment) error {
	return c.rpc.Call(ctx, "add_route", s, nil)
}

func (c *WSClient) TerminalStatus(ctx context.Context, id string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	err := c.rpc.Call(ctx, "get_terminal_status", map[string]string{"terminal_id": id}, &out)
	return out.Exists, err
}

func (c *WSClient) FindTopPaths(ctx context.Context, src, dst string, k int, modeFilter string, ignoreDwell bool) ([]protocol.Path, error) {
	params := map[string]any{
		"start_terminal": src,
		"end_terminal":   dst,
		"k":              k,
		"mode_filter":    modeFilter,
		"ignore_dwell":   ignoreDwell,
	}
	var out struct {
		Paths []protocol.Path `json:"paths"`
	}
	if err := c.rpc.Call(ctx, "find_top_paths", params, &out); err != nil {
		return nil, err
	}
	return out.Paths, nil
}

// Handler exposes a Server over the websocket protocol, the shape the
// workbench daemon serves in embedded mode.
func Handler(s *Server) http.HandlerFunc {
	return wsrpc.Serve(func(method string, params json.RawMessage) (any, *protocol.Error) {
		ctx := context.Background()
		switch method {
		case "reset_server":
			if err := s.ResetServer(ctx); err != nil {
				return nil, asProtoErr(err)
			}
			return map[string]bool{"ok": true}, nil
		case "add_terminal":
			var t protocol.TerminalRecord
			if err := json.Unmarshal(params, &t); err != nil {
				return nil, protocol.Errorf(protocol.ErrBadRequest, "add_terminal: %v", err)
			}
			if err := s.AddTerminal(ctx, t); err != nil {
				return nil, asProtoErr(err)
			}
			return map[string]bool{"ok": true}, nil
		case "add_route":
			var seg protocol.RouteSegment
			if err := json.Unmarshal(params, &seg); err != nil {
				return nil, protocol.Errorf(protocol.ErrBadRequest, "add_route: %v", err)
			}
			if err := s.AddRoute(ctx, seg); err != nil {
				return nil, asProtoErr(err)
			}
			return map[string]bool{"ok": true}, nil
		case "get_terminal_status":
			var in struct {
				TerminalID string `json:"terminal_id"`
			}
			if err := json.Unmarshal(params, &in); err != nil {
				return nil, protocol.Errorf(protocol.ErrBadRequest, "get_terminal_status: %v", err)
			}
			exists, err := s.TerminalStatus(ctx, in.TerminalID)
			if err != nil {
				return nil, asProtoErr(err)
			}
			return map[string]bool{"exists": exists}, nil
		case "find_top_paths":
			var in struct {
				StartTerminal string `json:"start_terminal"`
				EndTerminal   string `json:"end_terminal"`
				K             int    `json:"k"`
				ModeFilter    string `json:"mode_filter"`
				IgnoreDwell   bool   `json:"ignore_dwell"`
			}
			if err := json.Unmarshal(params, &in); err != nil {
				return nil, protocol.Errorf(protocol.ErrBadRequest, "find_top_paths: %v", err)
			}
			paths, err := s.FindTopPaths(ctx, in.StartTerminal, in.EndTerminal, in.K, in.ModeFilter, in.IgnoreDwell)
			if err != nil {
				return nil, asProtoErr(err)
			}
			return map[string]any{"paths": paths}, nil
		default:
			return nil, protocol.Errorf(protocol.ErrBadRequest, "unknown method %q", method)
		}
	})
}

func asProtoErr(err error) *protocol.Error {
	if pe, ok := err.(*protocol.Error); ok {
		return pe
	}
	return protocol.Errorf(protocol.ErrInternal, "%v", err)
}
