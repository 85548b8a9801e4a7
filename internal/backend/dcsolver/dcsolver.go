// Package dcsolver is a self-contained DC power-flow backend. It exists so the
// engine can be exercised end to end (tests, forecast sandboxes) without an
// external solver process; production environments plug in a real backend
// behind the same interface.
//
// The model is the textbook DC approximation: reactive power is ignored,
// voltages are held at their setpoints, line flow is the angle difference over
// the reactance. Substation buses 1 and 2 are distinct electrical nodes. Any
// island that carries injections but not the slack node is reported as
// divergence, which is how islanded generation or load surfaces to the engine.
package dcsolver

import (
	"fmt"
	"math"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

const baseMVA = 100.0

type Solver struct {
	backend.Ownership

	desc   *grid.Description
	schema *grid.GridSchema

	topo     grid.TopoVect
	loadP    []float64
	loadQ    []float64
	genP     []float64
	genV     []float64
	limits   []float64
	defaults []float64

	// Last solve results.
	solved   bool
	pOr, pEx []float64
	aOr, aEx []float64
}

// New returns an empty solver; call LoadGrid before anything else.
func New() *Solver { return &Solver{} }

// NewFromDescription builds a ready solver from an in-memory description.
func NewFromDescription(d *grid.Description) (*Solver, error) {
	s := &Solver{}
	if err := s.initFrom(d); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Solver) LoadGrid(path string) error {
	d, err := grid.LoadDescription(path)
	if err != nil {
		return err
	}
	return s.initFrom(d)
}

func (s *Solver) initFrom(d *grid.Description) error {
	sch, err := grid.NewSchema(d)
	if err != nil {
		return err
	}
	s.desc = d
	s.schema = sch
	s.topo = grid.NewTopoVect(sch)
	s.loadP = make([]float64, sch.NLoad)
	s.loadQ = make([]float64, sch.NLoad)
	s.genP = make([]float64, sch.NGen)
	s.genV = make([]float64, sch.NGen)
	for i := range s.genV {
		s.genV[i] = 1.0
	}
	s.defaults = make([]float64, sch.NLine)
	for i, l := range d.Lines {
		s.defaults[i] = l.ThermalLimit
		if s.defaults[i] == 0 {
			s.defaults[i] = baseMVA
		}
	}
	s.limits = append([]float64(nil), s.defaults...)
	s.pOr = make([]float64, sch.NLine)
	s.pEx = make([]float64, sch.NLine)
	s.aOr = make([]float64, sch.NLine)
	s.aEx = make([]float64, sch.NLine)
	s.solved = false
	return nil
}

func (s *Solver) Schema() *grid.GridSchema { return s.schema }

func (s *Solver) ApplyAction(d *backend.Delta) error {
	if s.schema == nil {
		return fmt.Errorf("dcsolver: grid not loaded")
	}
	if d.TopoVect != nil {
		if len(d.TopoVect) != s.schema.DimTopo {
			return fmt.Errorf("dcsolver: topo vect has %d entries, want %d", len(d.TopoVect), s.schema.DimTopo)
		}
		s.topo = d.TopoVect.Clone()
	}
	set := func(dst []float64, src []float64, name string, want int) error {
		if src == nil {
			return nil
		}
		if len(src) != want {
			return fmt.Errorf("dcsolver: %s has %d entries, want %d", name, len(src), want)
		}
		copy(dst, src)
		return nil
	}
	if err := set(s.loadP, d.LoadP, "load_p", s.schema.NLoad); err != nil {
		return err
	}
	if err := set(s.loadQ, d.LoadQ, "load_q", s.schema.NLoad); err != nil {
		return err
	}
	if err := set(s.genP, d.GenP, "gen_p", s.schema.NGen); err != nil {
		return err
	}
	if err := set(s.genV, d.GenV, "gen_v", s.schema.NGen); err != nil {
		return err
	}
	return nil
}

// node maps a (substation, bus) pair to an electrical node id.
func node(s *grid.GridSchema, sub, bus int) int {
	return sub + (bus-1)*s.NSub
}

func (s *Solver) Solve() (bool, error) {
	if s.schema == nil {
		return false, fmt.Errorf("dcsolver: grid not loaded")
	}
	sch := s.schema
	nNodes := 2 * sch.NSub

	// Net MW injection per node.
	inj := make([]float64, nNodes)
	withInjection := make([]bool, nNodes)
	for i := 0; i < sch.NGen; i++ {
		bus := s.topo[sch.GenPos[i]]
		if bus == grid.BusDisconnected {
			if s.genP[i] != 0 {
				// Producing generator cut from every bus: unsolvable.
				s.solved = false
				return false, nil
			}
			continue
		}
		n := node(sch, sch.GenToSub[i], bus)
		inj[n] += s.genP[i]
		withInjection[n] = true
	}
	for i := 0; i < sch.NLoad; i++ {
		bus := s.topo[sch.LoadPos[i]]
		if bus == grid.BusDisconnected {
			if s.loadP[i] != 0 {
				s.solved = false
				return false, nil
			}
			continue
		}
		n := node(sch, sch.LoadToSub[i], bus)
		inj[n] -= s.loadP[i]
		withInjection[n] = true
	}

	// Union of nodes joined by connected lines.
	parent := make([]int, nNodes)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	connected := make([]bool, sch.NLine)
	for l := 0; l < sch.NLine; l++ {
		orBus := s.topo[sch.LineOrPos[l]]
		exBus := s.topo[sch.LineExPos[l]]
		if orBus == grid.BusDisconnected || exBus == grid.BusDisconnected {
			continue
		}
		connected[l] = true
		union(node(sch, sch.LineOrToSub[l], orBus), node(sch, sch.LineExToSub[l], exBus))
	}

	// Slack node: bus of the first connected generator.
	slack := -1
	for i := 0; i < sch.NGen; i++ {
		if bus := s.topo[sch.GenPos[i]]; bus != grid.BusDisconnected {
			slack = node(sch, sch.GenToSub[i], bus)
			break
		}
	}
	if slack == -1 {
		s.solved = false
		return false, nil
	}
	slackRoot := find(slack)

	// Any injection outside the slack island cannot be balanced.
	for n := 0; n < nNodes; n++ {
		if withInjection[n] && inj[n] != 0 && find(n) != slackRoot {
			s.solved = false
			return false, nil
		}
	}

	// Assemble B matrix over the slack island, slack angle fixed at zero.
	idx := make([]int, nNodes)
	for i := range idx {
		idx[i] = -1
	}
	count := 0
	for n := 0; n < nNodes; n++ {
		if find(n) == slackRoot && n != slack {
			idx[n] = count
			count++
		}
	}

	theta := make([]float64, nNodes)
	if count > 0 {
		b := make([][]float64, count)
		for i := range b {
			b[i] = make([]float64, count+1)
		}
		for l := 0; l < sch.NLine; l++ {
			if !connected[l] {
				continue
			}
			ni := node(sch, sch.LineOrToSub[l], s.topo[sch.LineOrPos[l]])
			nj := node(sch, sch.LineExToSub[l], s.topo[sch.LineExPos[l]])
			if find(ni) != slackRoot {
				continue
			}
			y := 1.0 / s.schema.LineX[l]
			ii, jj := idx[ni], idx[nj]
			if ii >= 0 {
				b[ii][ii] += y
			}
			if jj >= 0 {
				b[jj][jj] += y
			}
			if ii >= 0 && jj >= 0 {
				b[ii][jj] -= y
				b[jj][ii] -= y
			}
		}
		for n := 0; n < nNodes; n++ {
			if idx[n] >= 0 {
				b[idx[n]][count] = inj[n] / baseMVA
			}
		}
		sol, ok := solveDense(b)
		if !ok {
			s.solved = false
			return false, nil
		}
		for n := 0; n < nNodes; n++ {
			if idx[n] >= 0 {
				theta[n] = sol[idx[n]]
			}
		}
	}

	for l := 0; l < sch.NLine; l++ {
		if !connected[l] {
			s.pOr[l], s.pEx[l], s.aOr[l], s.aEx[l] = 0, 0, 0, 0
			continue
		}
		ni := node(sch, sch.LineOrToSub[l], s.topo[sch.LineOrPos[l]])
		nj := node(sch, sch.LineExToSub[l], s.topo[sch.LineExPos[l]])
		if find(ni) != slackRoot {
			s.pOr[l], s.pEx[l], s.aOr[l], s.aEx[l] = 0, 0, 0, 0
			continue
		}
		p := (theta[ni] - theta[nj]) / s.schema.LineX[l] * baseMVA
		s.pOr[l] = p
		s.pEx[l] = -p
		s.aOr[l] = math.Abs(p)
		s.aEx[l] = math.Abs(p)
	}
	s.solved = true
	return true, nil
}

// solveDense runs Gaussian elimination with partial pivoting on an augmented
// matrix [A|b]; returns the solution vector.
func solveDense(m [][]float64) ([]float64, bool) {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	sol := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		acc := m[r][n]
		for c := r + 1; c < n; c++ {
			acc -= m[r][c] * sol[c]
		}
		sol[r] = acc / m[r][r]
	}
	return sol, true
}

func (s *Solver) LineStatus() []bool { return s.topo.LineStatus(s.schema) }

func (s *Solver) RelativeFlow() []float64 {
	out := make([]float64, s.schema.NLine)
	for i := range out {
		if s.limits[i] > 0 {
			out[i] = s.aOr[i] / s.limits[i]
		}
	}
	return out
}

func (s *Solver) GeneratorsInfo() (p, q, v []float64) {
	return append([]float64(nil), s.genP...),
		make([]float64, s.schema.NGen),
		append([]float64(nil), s.genV...)
}

func (s *Solver) LoadsInfo() (p, q, v []float64) {
	return append([]float64(nil), s.loadP...),
		append([]float64(nil), s.loadQ...),
		onesOf(s.schema.NLoad)
}

func (s *Solver) LinesOrInfo() (p, q, v, a []float64) {
	return append([]float64(nil), s.pOr...),
		make([]float64, s.schema.NLine),
		onesOf(s.schema.NLine),
		append([]float64(nil), s.aOr...)
}

func (s *Solver) LinesExInfo() (p, q, v, a []float64) {
	return append([]float64(nil), s.pEx...),
		make([]float64, s.schema.NLine),
		onesOf(s.schema.NLine),
		append([]float64(nil), s.aEx...)
}

func onesOf(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}

func (s *Solver) TopoVect() grid.TopoVect { return s.topo.Clone() }

func (s *Solver) SetThermalLimit(limits []float64) error {
	if len(limits) != s.schema.NLine {
		return fmt.Errorf("dcsolver: %d thermal limits, want %d", len(limits), s.schema.NLine)
	}
	s.limits = append([]float64(nil), limits...)
	return nil
}

func (s *Solver) ThermalLimit() []float64 { return append([]float64(nil), s.limits...) }

// Reset reloads the pristine grid. An empty path reuses the description the
// solver was built from.
func (s *Solver) Reset(path string) error {
	if path != "" {
		return s.LoadGrid(path)
	}
	if s.desc == nil {
		return fmt.Errorf("dcsolver: grid not loaded")
	}
	limits := append([]float64(nil), s.limits...)
	if err := s.initFrom(s.desc); err != nil {
		return err
	}
	s.limits = limits
	return nil
}

func (s *Solver) Copy() (backend.Backend, error) {
	out := &Solver{
		desc:     s.desc,
		schema:   s.schema,
		topo:     s.topo.Clone(),
		loadP:    append([]float64(nil), s.loadP...),
		loadQ:    append([]float64(nil), s.loadQ...),
		genP:     append([]float64(nil), s.genP...),
		genV:     append([]float64(nil), s.genV...),
		limits:   append([]float64(nil), s.limits...),
		defaults: append([]float64(nil), s.defaults...),
		solved:   s.solved,
		pOr:      append([]float64(nil), s.pOr...),
		pEx:      append([]float64(nil), s.pEx...),
		aOr:      append([]float64(nil), s.aOr...),
		aEx:      append([]float64(nil), s.aEx...),
	}
	return out, nil
}
