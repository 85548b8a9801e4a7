// Package backendws puts a power-flow backend behind a websocket: the server
// wraps a local backend, the client implements the backend contract over the
// wire. One environment talks to one remote solver; requests are strictly
// request/reply, never pipelined.
package backendws

import (
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Version guards against skew between environment and remote solver.
const Version = 1

// Operation names on the wire.
const (
	OpLoadGrid    = "load_grid"
	OpSchema      = "schema"
	OpApply       = "apply"
	OpSolve       = "solve"
	OpLineStatus  = "line_status"
	OpRho         = "rho"
	OpGens        = "generators"
	OpLoads       = "loads"
	OpLinesOr     = "lines_or"
	OpLinesEx     = "lines_ex"
	OpTopo        = "topo"
	OpSetLimits   = "set_thermal_limits"
	OpLimits      = "thermal_limits"
	OpReset       = "reset"
)

type wireDelta struct {
	TopoVect grid.TopoVect `json:"topo_vect,omitempty"`
	LoadP    []float64     `json:"load_p,omitempty"`
	LoadQ    []float64     `json:"load_q,omitempty"`
	GenP     []float64     `json:"gen_p,omitempty"`
	GenV     []float64     `json:"gen_v,omitempty"`
}

type request struct {
	Version int        `json:"v"`
	Op      string     `json:"op"`
	Path    string     `json:"path,omitempty"`
	Delta   *wireDelta `json:"delta,omitempty"`
	Limits  []float64  `json:"limits,omitempty"`
}

type response struct {
	Version int    `json:"v"`
	Op      string `json:"op"`
	Err     string `json:"err,omitempty"`

	Converged bool             `json:"converged,omitempty"`
	Schema    *grid.GridSchema `json:"schema,omitempty"`
	Bools     []bool           `json:"bools,omitempty"`
	Topo      grid.TopoVect    `json:"topo,omitempty"`

	// Electric vectors: p, q, v and optionally a.
	P []float64 `json:"p,omitempty"`
	Q []float64 `json:"q,omitempty"`
	V []float64 `json:"vv,omitempty"`
	A []float64 `json:"a,omitempty"`
}
