package grid

import (
	"encoding/json"
	"testing"
)

func testDescription() *Description {
	return &Description{
		Name: "three-sub",
		Substations: []SubstationDesc{
			{Name: "sub0"}, {Name: "sub1"}, {Name: "sub2"},
		},
		Lines: []LineDesc{
			{Name: "0_1", From: 0, To: 1, X: 0.2, ThermalLimit: 80},
			{Name: "1_2", From: 1, To: 2, X: 0.2, ThermalLimit: 80},
		},
		Loads: []LoadDesc{
			{Name: "load1", Sub: 1},
			{Name: "load2", Sub: 2},
		},
		Generators: []GeneratorDesc{
			{Name: "gen0", Sub: 0, PMin: 0, PMax: 150, MaxRampUp: 10, MaxRampDown: 10},
			{Name: "wind2", Sub: 2, PMin: 0, PMax: 50, Renewable: true},
		},
		Storages: []StorageDesc{
			{Name: "bat1", Sub: 1, EMax: 10, EMin: 0, MaxAbsorb: 5, MaxProd: 5, LossMW: 0.1},
		},
	}
}

func TestNewSchemaLayout(t *testing.T) {
	s, err := NewSchema(testDescription())
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	// sub0: gen0, line0 origin. sub1: load1, line1 origin, line0 ex, bat1.
	// sub2: load2, wind2, line1 ex.
	if s.DimTopo != 9 {
		t.Fatalf("dim_topo=%d, want 9", s.DimTopo)
	}
	wantSubInfo := []int{2, 4, 3}
	for i, w := range wantSubInfo {
		if s.SubInfo[i] != w {
			t.Fatalf("sub_info[%d]=%d, want %d", i, s.SubInfo[i], w)
		}
	}
	// Order inside a substation is loads, gens, line or, line ex, storage.
	if s.GenPos[0] != 0 || s.LineOrPos[0] != 1 {
		t.Fatalf("sub0 layout wrong: gen=%d or=%d", s.GenPos[0], s.LineOrPos[0])
	}
	if s.LoadPos[0] != 2 || s.LineOrPos[1] != 3 || s.LineExPos[0] != 4 || s.StoragePos[0] != 5 {
		t.Fatalf("sub1 layout wrong: load=%d or=%d ex=%d storage=%d",
			s.LoadPos[0], s.LineOrPos[1], s.LineExPos[0], s.StoragePos[0])
	}
	if s.LoadPos[1] != 6 || s.GenPos[1] != 7 || s.LineExPos[1] != 8 {
		t.Fatalf("sub2 layout wrong")
	}

	if !s.GenRedispatchable[0] || s.GenRedispatchable[1] {
		t.Fatalf("redispatchable should be the complement of renewable")
	}
}

func TestSubOfPos(t *testing.T) {
	s, err := NewSchema(testDescription())
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	cases := map[int]int{0: 0, 1: 0, 2: 1, 5: 1, 6: 2, 8: 2}
	for pos, want := range cases {
		if got := s.SubOfPos(pos); got != want {
			t.Fatalf("SubOfPos(%d)=%d, want %d", pos, got, want)
		}
	}
	if s.SubOfPos(-1) != -1 || s.SubOfPos(9) != -1 {
		t.Fatalf("out-of-range positions must map to -1")
	}
}

func TestSchemaDigestStable(t *testing.T) {
	a, _ := NewSchema(testDescription())
	b, _ := NewSchema(testDescription())
	if a.Digest() == "" || a.Digest() != b.Digest() {
		t.Fatalf("identical descriptions must digest identically")
	}
}

func TestMigrateDropsStorage(t *testing.T) {
	s, err := NewSchema(testDescription())
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	old, err := Migrate(s, 1)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if old.NStorage != 0 || len(old.StoragePos) != 0 {
		t.Fatalf("version 1 must carry no storage")
	}
	if old.DimTopo != s.DimTopo-1 {
		t.Fatalf("dim_topo=%d after migration, want %d", old.DimTopo, s.DimTopo-1)
	}
	// The input schema is untouched.
	if s.NStorage != 1 || s.DimTopo != 9 {
		t.Fatalf("Migrate mutated its input")
	}
	// Positions after the removed storage slot shift down.
	if old.LoadPos[1] != 5 || old.GenPos[1] != 6 {
		t.Fatalf("sub2 positions not re-derived: load=%d gen=%d", old.LoadPos[1], old.GenPos[1])
	}
}

func TestParseDescriptionRejectsUnknownFields(t *testing.T) {
	d := testDescription()
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := ParseDescription(raw); err != nil {
		t.Fatalf("round-tripped description must parse: %v", err)
	}

	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	doc["surprise"] = true
	raw2, _ := json.Marshal(doc)
	if _, err := ParseDescription(raw2); err == nil {
		t.Fatalf("unknown top-level field must be rejected")
	}
}

func TestTopoVectLineOps(t *testing.T) {
	s, _ := NewSchema(testDescription())
	tv := NewTopoVect(s)
	if !tv.LineConnected(s, 0) {
		t.Fatalf("fresh topology must have line 0 connected")
	}
	tv.DisconnectLine(s, 0)
	if tv.LineConnected(s, 0) {
		t.Fatalf("line 0 still connected after disconnect")
	}
	st := tv.LineStatus(s)
	if st[0] || !st[1] {
		t.Fatalf("line status vector wrong: %v", st)
	}
	tv.ConnectLine(s, 0)
	if tv[s.LineOrPos[0]] != Bus1 || tv[s.LineExPos[0]] != Bus1 {
		t.Fatalf("reconnect must land both ends on bus 1")
	}
}
