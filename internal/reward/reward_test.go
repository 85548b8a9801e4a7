package reward

import (
	"math"
	"testing"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

type fakeView struct {
	rho       []float64
	status    []bool
	loadP     []float64
	scheduled []float64
}

func (f fakeView) Schema() *grid.GridSchema  { return nil }
func (f fakeView) RelativeFlow() []float64   { return f.rho }
func (f fakeView) LineStatus() []bool        { return f.status }
func (f fakeView) LoadP() []float64          { return f.loadP }
func (f fakeView) ScheduledLoadP() []float64 { return f.scheduled }
func (f fakeView) ActualDispatch() []float64 { return nil }
func (f fakeView) GenP() []float64           { return nil }

func TestLinesCapacity(t *testing.T) {
	v := fakeView{
		rho:    []float64{0, 0.5, 1.0, 1.5},
		status: []bool{true, true, true, false},
	}
	got := LinesCapacity{}.Compute(nil, v, false, false, false, false)
	// 1 + 0.75 + 0 + nothing for the disconnected line.
	if math.Abs(got-1.75) > 1e-9 {
		t.Fatalf("score=%v, want 1.75", got)
	}
	if (LinesCapacity{}).Compute(nil, v, true, true, false, false) != 0 {
		t.Fatalf("errored step must score 0")
	}
}

func TestResilience(t *testing.T) {
	r := NewResilience()
	r.Initialize(nil)

	full := fakeView{
		status:    []bool{true, true},
		loadP:     []float64{50, 50},
		scheduled: []float64{50, 50},
	}
	if got := r.Compute(nil, full, false, false, false, false); math.Abs(got-2000) > 1e-9 {
		t.Fatalf("healthy grid scores %v, want 2000", got)
	}

	degraded := fakeView{
		status:    []bool{true, false},
		loadP:     []float64{40, 0},
		scheduled: []float64{50, 50},
	}
	want := 1e3*0.4 + 1e3*0.5
	if got := r.Compute(nil, degraded, false, false, false, false); math.Abs(got-want) > 1e-9 {
		t.Fatalf("degraded grid scores %v, want %v", got, want)
	}

	if got := r.Compute(nil, degraded, true, false, true, false); got != -1 {
		t.Fatalf("illegal errored step scores %v, want -1", got)
	}
	if got := r.Compute(nil, degraded, true, true, false, false); got != 0 {
		t.Fatalf("terminal failure scores %v, want 0", got)
	}
}

func TestUnsuppliedLoad(t *testing.T) {
	v := fakeView{
		loadP:     []float64{40, 55},
		scheduled: []float64{50, 50},
	}
	// Only shortfalls count, over-supply does not offset them.
	if got := (UnsuppliedLoad{}).Compute(nil, v, false, false, false, false); math.Abs(got+10) > 1e-9 {
		t.Fatalf("score=%v, want -10", got)
	}
	if got := (UnsuppliedLoad{}).Compute(nil, v, true, true, false, false); math.Abs(got+100) > 1e-9 {
		t.Fatalf("errored step must lose the whole schedule, got %v", got)
	}
}
