package rules

import (
	"errors"
	"testing"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/action"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

type fakeState struct {
	lineCD map[int]int
	subCD  map[int]int
}

func (f fakeState) LineCooldown(line int) int { return f.lineCD[line] }
func (f fakeState) SubCooldown(sub int) int   { return f.subCD[sub] }

func rulesSchema(t *testing.T) *grid.GridSchema {
	t.Helper()
	s, err := grid.NewSchema(&grid.Description{
		Name:        "t",
		Substations: []grid.SubstationDesc{{Name: "s0"}, {Name: "s1"}, {Name: "s2"}},
		Lines: []grid.LineDesc{
			{Name: "l0", From: 0, To: 1},
			{Name: "l1", From: 1, To: 2},
			{Name: "l2", From: 0, To: 2},
		},
		Loads: []grid.LoadDesc{{Name: "load0", Sub: 1}},
		Generators: []grid.GeneratorDesc{
			{Name: "gen0", Sub: 0, PMax: 100, MaxRampUp: 10, MaxRampDown: 10},
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestDefaultRulesLimits(t *testing.T) {
	s := rulesSchema(t)
	sp := action.NewSpace(s, action.CapAll)
	r := DefaultRules{Schema: s, MaxLineStatusChanged: 1, MaxSubChanged: 1}
	st := fakeState{lineCD: map[int]int{}, subCD: map[int]int{}}

	one, _ := sp.Make(action.Delta{SetLineStatus: map[int]int{0: -1}})
	if err := r.Legal(one, st); err != nil {
		t.Fatalf("single switching refused: %v", err)
	}

	two, _ := sp.Make(action.Delta{SetLineStatus: map[int]int{0: -1, 1: -1}})
	err := r.Legal(two, st)
	if err == nil {
		t.Fatalf("two switchings must be refused")
	}
	var ie *IllegalError
	if !errors.As(err, &ie) {
		t.Fatalf("error type %T, want *IllegalError", err)
	}

	// Reconfiguring two substations through set_bus.
	subs, _ := sp.Make(action.Delta{SetBus: map[int]int{
		s.GenPos[0]:  grid.Bus2,
		s.LoadPos[0]: grid.Bus2,
	}})
	if err := r.Legal(subs, st); err == nil {
		t.Fatalf("two substation reconfigurations must be refused")
	}
}

func TestDefaultRulesCooldowns(t *testing.T) {
	s := rulesSchema(t)
	sp := action.NewSpace(s, action.CapAll)
	r := DefaultRules{Schema: s, MaxLineStatusChanged: 1, MaxSubChanged: 1}

	a, _ := sp.Make(action.Delta{SetLineStatus: map[int]int{1: 1}})
	cooling := fakeState{lineCD: map[int]int{1: 2}, subCD: map[int]int{}}
	if err := r.Legal(a, cooling); err == nil {
		t.Fatalf("line in cooldown must be refused")
	}
	if err := r.Legal(a, fakeState{lineCD: map[int]int{}, subCD: map[int]int{}}); err != nil {
		t.Fatalf("line out of cooldown refused: %v", err)
	}

	b, _ := sp.Make(action.Delta{ChangeBus: []int{s.LoadPos[0]}})
	if err := r.Legal(b, fakeState{lineCD: map[int]int{}, subCD: map[int]int{1: 1}}); err == nil {
		t.Fatalf("substation in cooldown must be refused")
	}
}

func TestAlwaysLegal(t *testing.T) {
	s := rulesSchema(t)
	sp := action.NewSpace(s, action.CapAll)
	a, _ := sp.Make(action.Delta{SetLineStatus: map[int]int{0: -1, 1: -1, 2: -1}})
	if err := (AlwaysLegal{}).Legal(a, fakeState{}); err != nil {
		t.Fatalf("always legal refused: %v", err)
	}
}
