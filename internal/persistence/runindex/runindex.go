// Package runindex keeps a queryable SQLite index of path-finding results,
// simulation runs and heartbeat transitions. Writes go through a single
// writer goroutine over a buffered channel so record calls never block the
// engine; the compressed JSONL logs stay the source of truth.
package runindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"cargonetsim/internal/protocol"
)

// PathResult is one indexed path-finding run.
type PathResult struct {
	At          time.Time
	Origin      string
	Destination string
	K           int
	Paths       []protocol.Path
	Err         string
}

// SimRun is one indexed fan-out run.
type SimRun struct {
	At            time.Time
	PathIDs       []int
	RailNetworks  []string
	ShipNetworks  []string
	TruckNetworks []string
	Vehicles      int
	Trips         int
	Skipped       []string
	Err           string
}

// Transition is one heartbeat indicator change.
type Transition struct {
	At      time.Time
	Service string
	From    string
	To      string
}

type reqKind int

const (
	reqPath reqKind = iota + 1
	reqRun
	reqTransition
	reqSync
)

type req struct {
	kind reqKind

	path       PathResult
	run        SimRun
	transition Transition
	done       chan struct{}
}

type Index struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func Open(path string) (*Index, error) {
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

	s := &Index{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write path; NORMAL is enough for a
	// secondary index.
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
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS path_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			k INTEGER NOT NULL,
			path_count INTEGER NOT NULL,
			best_distance REAL,
			raw_json TEXT NOT NULL,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_path_results_at ON path_results(at);`,
		`CREATE TABLE IF NOT EXISTS sim_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			vehicles INTEGER NOT NULL,
			trips INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sim_runs_at ON sim_runs(at);`,
		`CREATE TABLE IF NOT EXISTS heartbeat_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			service TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_service ON heartbeat_transitions(service, at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *Index) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordPathResult indexes one run. Dropped when the writer falls behind.
func (s *Index) RecordPathResult(r PathResult) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqPath, path: r}:
	default:
	}
}

// RecordSimRun indexes one fan-out run.
func (s *Index) RecordSimRun(r SimRun) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRun, run: r}:
	default:
	}
}

// RecordTransition indexes one heartbeat state change.
func (s *Index) RecordTransition(t Transition) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqTransition, transition: t}:
	default:
	}
}

// Sync blocks until everything queued before the call is committed.
func (s *Index) Sync() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqSync, done: done}
	<-done
}

func (s *Index) loop() {
	ctx := context.Background()

	insertPath, _ := s.db.Prepare(`INSERT INTO path_results(at,origin,destination,k,path_count,best_distance,raw_json,error) VALUES(?,?,?,?,?,?,?,?)`)
	insertRun, _ := s.db.Prepare(`INSERT INTO sim_runs(at,vehicles,trips,raw_json,error) VALUES(?,?,?,?,?)`)
	insertTransition, _ := s.db.Prepare(`INSERT INTO heartbeat_transitions(at,service,from_state,to_state) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertPath, insertRun, insertTransition} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 64
		commitMaxWait = 500 * time.Millisecond
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
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
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqPath:
			p := r.path
			raw, _ := json.Marshal(p.Paths)
			var best sql.NullFloat64
			if len(p.Paths) > 0 {
				best = sql.NullFloat64{Float64: p.Paths[0].TotalDistance, Valid: true}
			}
			if insertPath != nil {
				if _, err := tx.Stmt(insertPath).Exec(
					p.At.UTC().Format(time.RFC3339Nano),
					p.Origin, p.Destination, p.K,
					len(p.Paths), best, string(raw), p.Err,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqRun:
			run := r.run
			raw, _ := json.Marshal(run)
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(
					run.At.UTC().Format(time.RFC3339Nano),
					run.Vehicles, run.Trips, string(raw), run.Err,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqTransition:
			t := r.transition
			if insertTransition != nil {
				if _, err := tx.Stmt(insertTransition).Exec(
					t.At.UTC().Format(time.RFC3339Nano),
					t.Service, t.From, t.To,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

// LatestPathResult returns the most recent indexed run.
func (s *Index) LatestPathResult() (PathResult, bool, error) {
	row := s.db.QueryRow(`SELECT at,origin,destination,k,raw_json,error FROM path_results ORDER BY id DESC LIMIT 1`)
	var (
		at   string
		p    PathResult
		raw  string
		errs sql.NullString
	)
	if err := row.Scan(&at, &p.Origin, &p.Destination, &p.K, &raw, &errs); err != nil {
		if err == sql.ErrNoRows {
			return PathResult{}, false, nil
		}
		return PathResult{}, false, err
	}
	p.At, _ = time.Parse(time.RFC3339Nano, at)
	p.Err = errs.String
	if err := json.Unmarshal([]byte(raw), &p.Paths); err != nil {
		return PathResult{}, false, err
	}
	return p, true, nil
}

// RecentRuns returns up to n fan-out runs, newest first.
func (s *Index) RecentRuns(n int) ([]SimRun, error) {
	rows, err := s.db.Query(`SELECT raw_json FROM sim_runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SimRun
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var run SimRun
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// RecentTransitions returns up to n indicator changes for a service, newest
// first; an empty service matches all.
func (s *Index) RecentTransitions(service string, n int) ([]Transition, error) {
	q := `SELECT at,service,from_state,to_state FROM heartbeat_transitions`
	args := []any{}
	if service != "" {
		q += ` WHERE service = ?`
		args = append(args, service)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transition
	for rows.Next() {
		var at string
		var t Transition
		if err := rows.Scan(&at, &t.Service, &t.From, &t.To); err != nil {
			return nil, err
		}
		t.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, t)
	}
	return out, rows.Err()
}
