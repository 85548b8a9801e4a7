package backendws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Client implements the backend contract over a websocket connection to a
// remote solver. It cannot copy itself, so environments running on it have
// no Simulate.
type Client struct {
	backend.Ownership

	url  string
	conn *websocket.Conn
	mu   sync.Mutex

	timeout time.Duration
	schema  *grid.GridSchema
}

// Dial connects to a remote backend server.
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("backendws: dial %s: %w", url, err)
	}
	return &Client{url: url, conn: conn, timeout: 30 * time.Second}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// roundTrip sends one request and waits for its reply. The connection is a
// strict request/reply pipe, guarded by the mutex.
func (c *Client) roundTrip(req *request) (*response, error) {
	req.Version = Version

	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil, fmt.Errorf("backendws: write: %w", err)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("backendws: read: %w", err)
	}
	var resp response
	if err := json.Unmarshal(msg, &resp); err != nil {
		return nil, fmt.Errorf("backendws: decode: %w", err)
	}
	if resp.Err != "" {
		return nil, fmt.Errorf("backendws: %s: %s", req.Op, resp.Err)
	}
	return &resp, nil
}

func (c *Client) LoadGrid(path string) error {
	if _, err := c.roundTrip(&request{Op: OpLoadGrid, Path: path}); err != nil {
		return err
	}
	resp, err := c.roundTrip(&request{Op: OpSchema})
	if err != nil {
		return err
	}
	c.schema = resp.Schema
	return nil
}

func (c *Client) Schema() *grid.GridSchema { return c.schema }

func (c *Client) ApplyAction(d *backend.Delta) error {
	w := &wireDelta{}
	if d != nil {
		w.TopoVect = d.TopoVect
		w.LoadP = d.LoadP
		w.LoadQ = d.LoadQ
		w.GenP = d.GenP
		w.GenV = d.GenV
	}
	_, err := c.roundTrip(&request{Op: OpApply, Delta: w})
	return err
}

func (c *Client) Solve() (bool, error) {
	resp, err := c.roundTrip(&request{Op: OpSolve})
	if err != nil {
		return false, err
	}
	return resp.Converged, nil
}

func (c *Client) LineStatus() []bool {
	resp, err := c.roundTrip(&request{Op: OpLineStatus})
	if err != nil {
		return nil
	}
	return resp.Bools
}

func (c *Client) RelativeFlow() []float64 {
	resp, err := c.roundTrip(&request{Op: OpRho})
	if err != nil {
		return nil
	}
	return resp.P
}

func (c *Client) GeneratorsInfo() (p, q, v []float64) {
	resp, err := c.roundTrip(&request{Op: OpGens})
	if err != nil {
		return nil, nil, nil
	}
	return resp.P, resp.Q, resp.V
}

func (c *Client) LoadsInfo() (p, q, v []float64) {
	resp, err := c.roundTrip(&request{Op: OpLoads})
	if err != nil {
		return nil, nil, nil
	}
	return resp.P, resp.Q, resp.V
}

func (c *Client) LinesOrInfo() (p, q, v, a []float64) {
	resp, err := c.roundTrip(&request{Op: OpLinesOr})
	if err != nil {
		return nil, nil, nil, nil
	}
	return resp.P, resp.Q, resp.V, resp.A
}

func (c *Client) LinesExInfo() (p, q, v, a []float64) {
	resp, err := c.roundTrip(&request{Op: OpLinesEx})
	if err != nil {
		return nil, nil, nil, nil
	}
	return resp.P, resp.Q, resp.V, resp.A
}

func (c *Client) TopoVect() grid.TopoVect {
	resp, err := c.roundTrip(&request{Op: OpTopo})
	if err != nil {
		return nil
	}
	return resp.Topo
}

func (c *Client) SetThermalLimit(limits []float64) error {
	_, err := c.roundTrip(&request{Op: OpSetLimits, Limits: limits})
	return err
}

func (c *Client) ThermalLimit() []float64 {
	resp, err := c.roundTrip(&request{Op: OpLimits})
	if err != nil {
		return nil
	}
	return resp.P
}

func (c *Client) Reset(path string) error {
	_, err := c.roundTrip(&request{Op: OpReset, Path: path})
	return err
}

// Copy is unsupported over the wire.
func (c *Client) Copy() (backend.Backend, error) {
	return nil, backend.ErrNotCopyable
}
