package episodelog

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/env"
)

func openTemp(t *testing.T, path string) *SQLiteLog {
	t.Helper()
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return l
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("empty path must be refused")
	}
}

func TestRecordAndQueryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "episodes.db")
	l := openTemp(t, path)

	start := time.Date(2019, time.January, 6, 0, 0, 0, 0, time.UTC)
	if err := l.EpisodeStart("case14", start); err != nil {
		t.Fatalf("episode start: %v", err)
	}
	for i := 1; i <= 5; i++ {
		err := l.LogStep(env.StepRecord{
			EnvName:   "case14",
			Step:      i,
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Reward:    float64(i),
			Done:      i == 5,
			Digest:    "d",
		})
		if err != nil {
			t.Fatalf("log step %d: %v", i, err)
		}
	}
	// Close drains the queue and commits before the db handle goes away.
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l = openTemp(t, path)
	defer l.Close()

	eps, err := l.Episodes("case14")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("got %d episodes, want 1", len(eps))
	}
	n, err := l.StepCount(eps[0])
	if err != nil {
		t.Fatalf("step count: %v", err)
	}
	if n != 5 {
		t.Fatalf("got %d steps, want 5", n)
	}
}

func TestEpisodesAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")
	l := openTemp(t, path)

	start := time.Date(2019, time.January, 6, 0, 0, 0, 0, time.UTC)
	if err := l.EpisodeStart("case14", start); err != nil {
		t.Fatalf("episode start: %v", err)
	}
	_ = l.LogStep(env.StepRecord{Step: 1, Timestamp: start, Digest: "a"})

	if err := l.EpisodeStart("case14", start.Add(time.Hour)); err != nil {
		t.Fatalf("second episode start: %v", err)
	}
	_ = l.LogStep(env.StepRecord{Step: 1, Timestamp: start.Add(time.Hour), Digest: "b"})
	_ = l.LogStep(env.StepRecord{Step: 2, Timestamp: start.Add(time.Hour), Digest: "c"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l = openTemp(t, path)
	defer l.Close()

	eps, err := l.Episodes("case14")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %d episodes, want 2", len(eps))
	}
	if eps[0] == eps[1] {
		t.Fatalf("episode ids must differ")
	}
	if n, _ := l.StepCount(eps[0]); n != 1 {
		t.Fatalf("first episode has %d steps, want 1", n)
	}
	if n, _ := l.StepCount(eps[1]); n != 2 {
		t.Fatalf("second episode has %d steps, want 2", n)
	}
}

func TestOpenFailsOnIncompatibleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	// An episodes table with foreign columns survives CREATE IF NOT EXISTS.
	if _, err := db.Exec(`CREATE TABLE episodes (something_else TEXT);`); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatalf("incompatible db accepted; records would be dropped silently")
	}
}

func TestLogAfterCloseIsANoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")
	l := openTemp(t, path)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.EpisodeStart("case14", time.Now()); err != nil {
		t.Fatalf("episode start after close: %v", err)
	}
	if err := l.LogStep(env.StepRecord{Step: 1}); err != nil {
		t.Fatalf("log after close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}
