// Package backend defines the contract between the step engine and the
// external power-flow solver. The engine only ever reads grid physics through
// this interface; the solver owns its internal representation.
package backend

import (
	"errors"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Delta is the full target state the engine commits before each solve.
// Injection slices are full-length; a nil slice means "leave as is".
type Delta struct {
	TopoVect grid.TopoVect

	LoadP []float64
	LoadQ []float64
	GenP  []float64
	GenV  []float64
}

// Backend is the power-flow solver contract. All reporting slices are
// full-length and indexed consistently with the schema's element numbering.
// Implementations are not safe for concurrent use and must not be shared
// between environments (see Ownership).
type Backend interface {
	// LoadGrid reads the grid from disk and builds the schema.
	LoadGrid(path string) error
	// Schema returns the grid layout. Only valid after LoadGrid.
	Schema() *grid.GridSchema

	// ApplyAction commits the target topology and injections.
	ApplyAction(d *Delta) error
	// Solve runs one power flow. converged=false reports numerical
	// divergence or islanded injections; err is reserved for contract
	// violations (solve before load, malformed delta).
	Solve() (converged bool, err error)

	LineStatus() []bool
	// RelativeFlow is current over thermal limit per line (rho).
	RelativeFlow() []float64
	GeneratorsInfo() (p, q, v []float64)
	LoadsInfo() (p, q, v []float64)
	LinesOrInfo() (p, q, v, a []float64)
	LinesExInfo() (p, q, v, a []float64)
	TopoVect() grid.TopoVect

	SetThermalLimit(limits []float64) error
	ThermalLimit() []float64

	// Reset reloads the grid into its pristine state.
	Reset(path string) error
	// Copy returns an independent backend with identical state, or
	// ErrNotCopyable when the implementation cannot duplicate itself
	// (e.g. a remote solver).
	Copy() (Backend, error)

	// Attach marks the backend as owned by one environment. A second call
	// without Release fails: backends are never shared.
	Attach() error
	Release()
}

// ErrNotCopyable is returned by Copy for backends that cannot duplicate
// themselves. Environments using such a backend cannot offer Simulate.
var ErrNotCopyable = errors.New("backend: not copyable")

// ErrAttached is returned when an environment tries to take ownership of a
// backend that is already attached to another one. This is a fatal
// configuration error, detected eagerly at construction.
var ErrAttached = errors.New("backend: already attached to an environment")

// Ownership implements the attach-once guard; embed it in a Backend.
type Ownership struct {
	attached bool
}

func (o *Ownership) Attach() error {
	if o.attached {
		return ErrAttached
	}
	o.attached = true
	return nil
}

func (o *Ownership) Release() { o.attached = false }
