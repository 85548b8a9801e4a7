package chronics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

func chronicsSchema(t *testing.T) *grid.GridSchema {
	t.Helper()
	s, err := grid.NewSchema(&grid.Description{
		Name:        "t",
		Substations: []grid.SubstationDesc{{Name: "s0"}, {Name: "s1"}},
		Lines: []grid.LineDesc{
			{Name: "l0", From: 0, To: 1},
			{Name: "l1", From: 0, To: 1},
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

func TestTableHandlerReplaysOnReset(t *testing.T) {
	rows := []Row{
		{LoadP: []float64{10}, GenP: []float64{10}},
		{LoadP: []float64{11}, GenP: []float64{11}},
	}
	h := NewTable(rows, 5*time.Minute)
	if err := h.NextChronics(); err != nil {
		t.Fatalf("next chronics: %v", err)
	}
	r, err := h.LoadNext()
	if err != nil {
		t.Fatalf("load next: %v", err)
	}
	if r.LoadP[0] != 10 {
		t.Fatalf("row 0 load=%v", r.LoadP)
	}
	if _, err := h.LoadNext(); err != nil {
		t.Fatalf("row 1: %v", err)
	}
	if _, err := h.LoadNext(); !errors.Is(err, ErrEndOfEpisode) {
		t.Fatalf("expected end of episode, got %v", err)
	}

	if err := h.NextChronics(); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	r, err = h.LoadNext()
	if err != nil || r.LoadP[0] != 10 {
		t.Fatalf("replay did not rewind: %v %v", r, err)
	}
}

func TestTableHandlerRowsAreCopies(t *testing.T) {
	rows := []Row{{LoadP: []float64{10}, GenP: []float64{10}}}
	h := NewTable(rows, time.Minute)
	_ = h.NextChronics()
	r, _ := h.LoadNext()
	r.LoadP[0] = 999
	_ = h.NextChronics()
	r2, _ := h.LoadNext()
	if r2.LoadP[0] != 10 {
		t.Fatalf("handler leaked its backing rows")
	}
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeCSVGz(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCSVHandlerReadsScenario(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "load_p.csv"), "load0\n10.5\n11.0\n")
	writeCSV(t, filepath.Join(dir, "load_q.csv"), "load0\n1.0\n1.1\n")
	// prod files compressed, with a voltage column order check via header.
	writeCSVGz(t, filepath.Join(dir, "prod_p.csv.gz"), "gen0\n10.5\n11.0\n")
	writeCSVGz(t, filepath.Join(dir, "prod_v.csv.gz"), "gen0\n1.02\n1.02\n")
	writeCSV(t, filepath.Join(dir, "maintenance.csv"), "l1;l0\n0;0\n1;0\n")

	h := NewCSV([]string{dir}, 5*time.Minute)
	if err := h.Initialize([]string{"load0"}, []string{"gen0"}, []string{"l0", "l1"}, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := h.NextChronics(); err != nil {
		t.Fatalf("next chronics: %v", err)
	}
	if err := h.CheckValidity(chronicsSchema(t)); err != nil {
		t.Fatalf("check validity: %v", err)
	}
	if h.MaxEpisodeDuration() != 2 {
		t.Fatalf("duration=%d, want 2", h.MaxEpisodeDuration())
	}

	r, err := h.LoadNext()
	if err != nil {
		t.Fatalf("row 0: %v", err)
	}
	if r.LoadP[0] != 10.5 || r.GenP[0] != 10.5 || r.GenV[0] != 1.02 {
		t.Fatalf("row 0 wrong: %+v", r)
	}
	if r.Maintenance[0] || r.Maintenance[1] {
		t.Fatalf("row 0 must have no maintenance")
	}
	r, err = h.LoadNext()
	if err != nil {
		t.Fatalf("row 1: %v", err)
	}
	// Header order in the file is l1;l0: the handler must match by name.
	if r.Maintenance[0] || !r.Maintenance[1] {
		t.Fatalf("maintenance columns not matched by header name: %v", r.Maintenance)
	}
	if _, err := h.LoadNext(); !errors.Is(err, ErrEndOfEpisode) {
		t.Fatalf("expected end of episode, got %v", err)
	}
}

func TestCSVHandlerMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "load_p.csv"), "other\n10\n")
	writeCSV(t, filepath.Join(dir, "load_q.csv"), "load0\n1\n")
	writeCSV(t, filepath.Join(dir, "prod_p.csv"), "gen0\n10\n")
	writeCSV(t, filepath.Join(dir, "prod_v.csv"), "gen0\n1\n")

	h := NewCSV([]string{dir}, time.Minute)
	if err := h.Initialize([]string{"load0"}, []string{"gen0"}, []string{"l0", "l1"}, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := h.NextChronics(); err == nil {
		t.Fatalf("missing column must fail")
	}
}

func TestCSVHandlerRoundRobin(t *testing.T) {
	mk := func(load string) string {
		dir := t.TempDir()
		writeCSV(t, filepath.Join(dir, "load_p.csv"), "load0\n"+load+"\n")
		writeCSV(t, filepath.Join(dir, "load_q.csv"), "load0\n0\n")
		writeCSV(t, filepath.Join(dir, "prod_p.csv"), "gen0\n"+load+"\n")
		writeCSV(t, filepath.Join(dir, "prod_v.csv"), "gen0\n1\n")
		return dir
	}
	h := NewCSV([]string{mk("1"), mk("2")}, time.Minute)
	if err := h.Initialize([]string{"load0"}, []string{"gen0"}, nil, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	want := []float64{1, 2, 1}
	for i, w := range want {
		if err := h.NextChronics(); err != nil {
			t.Fatalf("scenario %d: %v", i, err)
		}
		r, err := h.LoadNext()
		if err != nil {
			t.Fatalf("scenario %d row: %v", i, err)
		}
		if r.LoadP[0] != w {
			t.Fatalf("scenario %d load=%v, want %v", i, r.LoadP[0], w)
		}
	}
}

func TestCSVHandlerZeroValueStartsAtFirstScenario(t *testing.T) {
	mk := func(load string) string {
		dir := t.TempDir()
		writeCSV(t, filepath.Join(dir, "load_p.csv"), "load0\n"+load+"\n")
		writeCSV(t, filepath.Join(dir, "load_q.csv"), "load0\n0\n")
		writeCSV(t, filepath.Join(dir, "prod_p.csv"), "gen0\n"+load+"\n")
		writeCSV(t, filepath.Join(dir, "prod_v.csv"), "gen0\n1\n")
		return dir
	}
	// Literal construction, no NewCSV.
	h := &CSVHandler{Dirs: []string{mk("100"), mk("200")}}
	if err := h.Initialize([]string{"load0"}, []string{"gen0"}, nil, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := h.NextChronics(); err != nil {
		t.Fatalf("next chronics: %v", err)
	}
	r, err := h.LoadNext()
	if err != nil {
		t.Fatalf("row: %v", err)
	}
	if r.LoadP[0] != 100 {
		t.Fatalf("first episode served load=%v, want 100 from the first scenario", r.LoadP[0])
	}
}
