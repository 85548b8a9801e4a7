package opponent

import (
	"testing"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

func attackSchema(t *testing.T) *grid.GridSchema {
	t.Helper()
	s, err := grid.NewSchema(&grid.Description{
		Name:        "t",
		Substations: []grid.SubstationDesc{{Name: "s0"}, {Name: "s1"}},
		Lines: []grid.LineDesc{
			{Name: "l0", From: 0, To: 1},
			{Name: "l1", From: 0, To: 1},
			{Name: "l2", From: 0, To: 1},
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

func TestRandomLineValidatesConfig(t *testing.T) {
	s := attackSchema(t)
	if err := (&RandomLine{Duration: 0}).Init(s); err == nil {
		t.Fatalf("zero duration must be refused")
	}
	if err := (&RandomLine{Duration: 1, Lines: []int{9}}).Init(s); err == nil {
		t.Fatalf("out-of-range attackable line must be refused")
	}
	o := &RandomLine{Duration: 1, Lines: []int{2}}
	if err := o.Init(s); err != nil {
		t.Fatalf("init: %v", err)
	}
	o.Seed(7)
	if atk := o.Attack([]bool{true, true, true}); atk.Line != 2 {
		t.Fatalf("restricted set ignored, attacked line %d", atk.Line)
	}
}

func TestNeverOpponent(t *testing.T) {
	var o Never
	if err := o.Init(attackSchema(t)); err != nil {
		t.Fatalf("init: %v", err)
	}
	if o.Attack([]bool{true, true, true}) != nil {
		t.Fatalf("never opponent attacked")
	}
}
