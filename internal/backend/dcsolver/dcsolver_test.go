package dcsolver

import (
	"math"
	"testing"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Two substations joined by two identical lines, one generator feeding one
// load. Flows split evenly, which makes every expectation a one-liner.
func parallelGrid() *grid.Description {
	return &grid.Description{
		Name:        "parallel",
		Substations: []grid.SubstationDesc{{Name: "s0"}, {Name: "s1"}},
		Lines: []grid.LineDesc{
			{Name: "l0", From: 0, To: 1, X: 0.1, ThermalLimit: 100},
			{Name: "l1", From: 0, To: 1, X: 0.1, ThermalLimit: 100},
		},
		Loads: []grid.LoadDesc{{Name: "load", Sub: 1}},
		Generators: []grid.GeneratorDesc{
			{Name: "g0", Sub: 0, PMin: 0, PMax: 300, MaxRampUp: 50, MaxRampDown: 50},
		},
	}
}

func solveWith(t *testing.T, s *Solver, d *backend.Delta) {
	t.Helper()
	if err := s.ApplyAction(d); err != nil {
		t.Fatalf("apply: %v", err)
	}
	converged, err := s.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !converged {
		t.Fatalf("solve diverged")
	}
}

func TestSolveSplitsFlowEvenly(t *testing.T) {
	s, err := NewFromDescription(parallelGrid())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	solveWith(t, s, &backend.Delta{
		LoadP: []float64{120},
		GenP:  []float64{120},
	})

	p, _, _, a := s.LinesOrInfo()
	for l := 0; l < 2; l++ {
		if math.Abs(p[l]-60) > 1e-9 {
			t.Fatalf("line %d carries %.3f MW, want 60", l, p[l])
		}
		if math.Abs(a[l]-60) > 1e-9 {
			t.Fatalf("line %d amps %.3f, want 60", l, a[l])
		}
	}
	rho := s.RelativeFlow()
	if math.Abs(rho[0]-0.6) > 1e-9 {
		t.Fatalf("rho=%.3f, want 0.6", rho[0])
	}
}

func TestSolveSingleLineAfterDisconnect(t *testing.T) {
	s, _ := NewFromDescription(parallelGrid())
	topo := grid.NewTopoVect(s.Schema())
	topo.DisconnectLine(s.Schema(), 1)
	solveWith(t, s, &backend.Delta{
		TopoVect: topo,
		LoadP:    []float64{120},
		GenP:     []float64{120},
	})

	p, _, _, _ := s.LinesOrInfo()
	if math.Abs(p[0]-120) > 1e-9 {
		t.Fatalf("surviving line carries %.3f MW, want 120", p[0])
	}
	if p[1] != 0 {
		t.Fatalf("disconnected line reports %.3f MW", p[1])
	}
	if st := s.LineStatus(); st[1] {
		t.Fatalf("line 1 must report disconnected")
	}
}

func TestIslandedLoadDiverges(t *testing.T) {
	s, _ := NewFromDescription(parallelGrid())
	topo := grid.NewTopoVect(s.Schema())
	topo.DisconnectLine(s.Schema(), 0)
	topo.DisconnectLine(s.Schema(), 1)
	if err := s.ApplyAction(&backend.Delta{
		TopoVect: topo,
		LoadP:    []float64{120},
		GenP:     []float64{120},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	converged, err := s.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if converged {
		t.Fatalf("islanded load must diverge")
	}
}

func TestDisconnectedProducingGenDiverges(t *testing.T) {
	s, _ := NewFromDescription(parallelGrid())
	topo := grid.NewTopoVect(s.Schema())
	topo[s.Schema().GenPos[0]] = grid.BusDisconnected
	if err := s.ApplyAction(&backend.Delta{
		TopoVect: topo,
		LoadP:    []float64{10},
		GenP:     []float64{10},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	converged, err := s.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if converged {
		t.Fatalf("producing generator off every bus must diverge")
	}
}

func TestBus2Split(t *testing.T) {
	// Moving one line and the load to bus 2 of sub1 keeps everything in one
	// island only through that line.
	s, _ := NewFromDescription(parallelGrid())
	sch := s.Schema()
	topo := grid.NewTopoVect(sch)
	topo[sch.LineExPos[0]] = grid.Bus2
	topo[sch.LoadPos[0]] = grid.Bus2
	solveWith(t, s, &backend.Delta{
		TopoVect: topo,
		LoadP:    []float64{80},
		GenP:     []float64{80},
	})
	p, _, _, _ := s.LinesOrInfo()
	if math.Abs(p[0]-80) > 1e-9 {
		t.Fatalf("line to bus 2 carries %.3f MW, want 80", p[0])
	}
	if math.Abs(p[1]) > 1e-9 {
		t.Fatalf("line on bus 1 carries %.3f MW, want 0", p[1])
	}
}

func TestResetPreservesThermalLimits(t *testing.T) {
	s, _ := NewFromDescription(parallelGrid())
	if err := s.SetThermalLimit([]float64{55, 55}); err != nil {
		t.Fatalf("set limits: %v", err)
	}
	solveWith(t, s, &backend.Delta{LoadP: []float64{50}, GenP: []float64{50}})
	if err := s.Reset(""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	limits := s.ThermalLimit()
	if limits[0] != 55 || limits[1] != 55 {
		t.Fatalf("reset dropped the thermal limits: %v", limits)
	}
	p, _, _ := s.LoadsInfo()
	if p[0] != 0 {
		t.Fatalf("reset kept injections: %v", p)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s, _ := NewFromDescription(parallelGrid())
	solveWith(t, s, &backend.Delta{LoadP: []float64{100}, GenP: []float64{100}})

	cp, err := s.Copy()
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	topo := s.TopoVect()
	topo.DisconnectLine(s.Schema(), 1)
	solveWith(t, cp.(*Solver), &backend.Delta{TopoVect: topo})

	// The original still sees the even split.
	p, _, _, _ := s.LinesOrInfo()
	if math.Abs(p[0]-50) > 1e-9 || math.Abs(p[1]-50) > 1e-9 {
		t.Fatalf("copy leaked into the original: %v", p)
	}
	pc, _, _, _ := cp.LinesOrInfo()
	if math.Abs(pc[0]-100) > 1e-9 {
		t.Fatalf("copy did not re-solve independently: %v", pc)
	}
}
