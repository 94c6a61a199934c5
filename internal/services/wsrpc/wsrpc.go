// Package wsrpc is the JSON request/response layer the engine speaks to its
// backend services over a websocket. One call is in flight per connection at
// a time; every call carries a context deadline and transport failures map
// to E_SERVICE_UNAVAILABLE.
package wsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cargonetsim/internal/protocol"
)

// Request is one command envelope.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers one request.
type Response struct {
	ID     uint64          `json:"id"`
	OK     bool            `json:"ok"`
	Error  *protocol.Error `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// DefaultTimeout bounds calls whose context has no deadline.
const DefaultTimeout = 10 * time.Second

// Client dials lazily and redials after transport errors.
type Client struct {
	URL     string
	Service string // service id used in error messages

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

func NewClient(url, service string) *Client {
	return &Client{URL: url, Service: service}
}

func (c *Client) dialLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.DialContext(ctx, c.URL, nil)
	if err != nil {
		return protocol.Errorf(protocol.ErrServiceUnavailable, "%s: dial %s: %v", c.Service, c.URL, err)
	}
	c.conn = conn
	return nil
}

// Call sends one request and decodes the result into out (skipped when out
// is nil). Service-reported failures come back as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}

	if err := c.dialLocked(ctx); err != nil {
		return err
	}

	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return protocol.Errorf(protocol.ErrInternal, "%s: encode %s: %v", c.Service, method, err)
		}
		raw = b
	}
	c.nextID++
	req := Request{ID: c.nextID, Method: method, Params: raw}

	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		c.dropLocked()
		return protocol.Errorf(protocol.ErrServiceUnavailable, "%s: write %s: %v", c.Service, method, err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		c.dropLocked()
		return protocol.Errorf(protocol.ErrServiceUnavailable, "%s: read %s: %v", c.Service, method, err)
	}
	if resp.ID != req.ID {
		c.dropLocked()
		return protocol.Errorf(protocol.ErrServiceUnavailable, "%s: out-of-order reply for %s", c.Service, method)
	}
	if !resp.OK {
		if resp.Error != nil {
			return resp.Error
		}
		return protocol.Errorf(protocol.ErrInternal, "%s: %s failed without detail", c.Service, method)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return protocol.Errorf(protocol.ErrInternal, "%s: decode %s reply: %v", c.Service, method, err)
		}
	}
	return nil
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close tears the connection down.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

// Handler answers one decoded method call.
type Handler func(method string, params json.RawMessage) (any, *protocol.Error)

// Serve exposes a Handler over a websocket endpoint, one request at a time
// per connection.
func Serve(h Handler) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
	}
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := Response{ID: req.ID}
			result, herr := h(req.Method, req.Params)
			if herr != nil {
				resp.Error = herr
			} else {
				resp.OK = true
				if result != nil {
					b, err := json.Marshal(result)
					if err != nil {
						resp.OK = false
						resp.Error = protocol.Errorf(protocol.ErrInternal, "encode result: %v", err)
					} else {
						resp.Result = b
					}
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}
}
