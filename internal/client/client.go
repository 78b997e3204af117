// Package client talks to a wheelsim server over its WebSocket endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/protocol"
)

// ServerError is an error message returned by the server. The connection
// stays usable after one.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "server: " + e.Message }

var ErrClosed = errors.New("client closed")

// Client owns one socket. A reader goroutine runs for the life of the
// connection so keepalive pings are answered while no request is pending.
type Client struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	closed  atomic.Bool
	replies chan *protocol.Envelope
	done    chan struct{}
	err     error
}

func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		replies: make(chan *protocol.Envelope, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop hands replies to Simulate. gorilla only answers pings from
// inside a read, so this loop is what keeps an idle connection alive.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			continue
		}
		switch env.Type {
		case protocol.TypeSimulationData, protocol.TypeError:
			// A reply nobody waits for (an abandoned request) is replaced
			// rather than blocking the reader.
			select {
			case c.replies <- env:
			default:
				select {
				case <-c.replies:
				default:
				}
				c.replies <- env
			}
		}
	}
}

// Done is closed once the connection is gone, whether the server closed
// it, the network failed or Close was called.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended. It is nil until Done is closed.
func (c *Client) Err() error {
	select {
	case <-c.done:
	default:
		return nil
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return c.err
}

// Simulate sends a start_simulation request and waits for its reply. Calls
// are serialised, matching the server's one-request-per-socket rule. If ctx
// ends mid-request the connection is closed, since the late reply would be
// taken for the next request's.
func (c *Client) Simulate(ctx context.Context, params experiment.Params) (*protocol.SimulationData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case <-c.done:
		return nil, fmt.Errorf("receive: %w", c.Err())
	default:
	}

	msg, err := protocol.Encode(protocol.TypeStartSimulation, params)
	if err != nil {
		return nil, err
	}

	// Drop anything left over from a request that ended early.
	select {
	case <-c.replies:
	default:
	}

	deadline, _ := ctx.Deadline()
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("send: %w", err)
	}

	select {
	case env := <-c.replies:
		return decodeReply(env)
	case <-c.done:
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("receive: %w", c.err)
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}
}

func decodeReply(env *protocol.Envelope) (*protocol.SimulationData, error) {
	if env.Type == protocol.TypeError {
		var e protocol.ErrorData
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)
		}
		return nil, &ServerError{Message: e.Message}
	}
	var out protocol.SimulationData
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)
	}
	return &out, nil
}

// Close interrupts any request in flight, which then returns ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
