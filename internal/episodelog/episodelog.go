// Package episodelog records episodes and per-step outcomes into a sqlite
// file. Writes go through a single writer goroutine so the step engine never
// waits on the disk; a full queue drops records rather than stalling the
// simulation.
package episodelog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/env"
)

type SQLiteLog struct {
	db *sql.DB

	insertEpisode *sql.Stmt
	insertStep    *sql.Stmt

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	// Current episode id, swapped on EpisodeStart. Only the caller's
	// goroutine touches it.
	episode string
}

type reqKind int

const (
	reqEpisode reqKind = iota + 1
	reqStep
)

type req struct {
	kind reqKind

	episode episodeRow
	step    stepRow
}

type episodeRow struct {
	ID        string
	EnvName   string
	StartedAt string
}

type stepRow struct {
	Episode     string
	Step        int
	Timestamp   string
	Reward      float64
	Done        bool
	IsIllegal   bool
	IsAmbiguous bool
	HasError    bool
	Digest      string
}

func Open(path string) (*SQLiteLog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Prepare up front so a broken or incompatible db fails construction
	// instead of silently dropping every record.
	insertEpisode, err := db.Prepare(`INSERT OR REPLACE INTO episodes(id,env_name,started_at) VALUES(?,?,?)`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	insertStep, err := db.Prepare(`INSERT OR REPLACE INTO steps(episode,step,ts,reward,done,is_illegal,is_ambiguous,has_error,digest) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = insertEpisode.Close()
		_ = db.Close()
		return nil, err
	}

	l := &SQLiteLog{
		db:            db,
		insertEpisode: insertEpisode,
		insertStep:    insertStep,
		ch:            make(chan req, 65536),
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop()
	}()
	return l, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			env_name TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			episode TEXT NOT NULL,
			step INTEGER NOT NULL,
			ts TEXT NOT NULL,
			reward REAL NOT NULL,
			done INTEGER NOT NULL,
			is_illegal INTEGER NOT NULL,
			is_ambiguous INTEGER NOT NULL,
			has_error INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (episode, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_episode ON steps(episode);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *SQLiteLog) Close() error {
	var err error
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		l.wg.Wait()
		_ = l.insertEpisode.Close()
		_ = l.insertStep.Close()
		err = l.db.Close()
	})
	return err
}

// EpisodeStart opens a fresh episode row with a new id. Implements
// env.StepLogger.
func (l *SQLiteLog) EpisodeStart(envName string, at time.Time) error {
	if l == nil || l.closed.Load() {
		return nil
	}
	l.episode = uuid.NewString()
	r := episodeRow{
		ID:        l.episode,
		EnvName:   envName,
		StartedAt: at.UTC().Format(time.RFC3339Nano),
	}
	select {
	case l.ch <- req{kind: reqEpisode, episode: r}:
	default:
		// Drop if the writer falls behind; the simulation never stalls.
	}
	return nil
}

func (l *SQLiteLog) LogStep(rec env.StepRecord) error {
	if l == nil || l.closed.Load() {
		return nil
	}
	r := stepRow{
		Episode:     l.episode,
		Step:        rec.Step,
		Timestamp:   rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Reward:      rec.Reward,
		Done:        rec.Done,
		IsIllegal:   rec.IsIllegal,
		IsAmbiguous: rec.IsAmbiguous,
		HasError:    rec.HasError,
		Digest:      rec.Digest,
	}
	select {
	case l.ch <- req{kind: reqStep, step: r}:
	default:
	}
	return nil
}

// Episodes returns the recorded episode ids for one environment, oldest first.
func (l *SQLiteLog) Episodes(envName string) ([]string, error) {
	rows, err := l.db.Query(`SELECT id FROM episodes WHERE env_name = ? ORDER BY started_at`, envName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// StepCount returns how many steps one episode recorded.
func (l *SQLiteLog) StepCount(episode string) (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM steps WHERE episode = ?`, episode).Scan(&n)
	return n, err
}

func (l *SQLiteLog) loop() {
	ctx := context.Background()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 500
		commitWait  = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range l.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEpisode:
			ep := r.episode
			if _, err := tx.Stmt(l.insertEpisode).Exec(ep.ID, ep.EnvName, ep.StartedAt); err != nil {
				rollback()
				continue
			}
			opCount++
		case reqStep:
			st := r.step
			if _, err := tx.Stmt(l.insertStep).Exec(
				st.Episode,
				st.Step,
				st.Timestamp,
				st.Reward,
				boolInt(st.Done),
				boolInt(st.IsIllegal),
				boolInt(st.IsAmbiguous),
				boolInt(st.HasError),
				st.Digest,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
