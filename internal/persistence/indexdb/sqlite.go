// Package indexdb maintains a queryable SQLite index of run history. It is
// a secondary sink: writes are queued to a single writer goroutine and
// dropped under backpressure, the JSONL tick logs remain the source of
// truth.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/runtime"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqTick
)

type req struct {
	kind reqKind

	run  runtime.RunInfo
	tick runtime.TickLogEntry
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		// Large enough to absorb fast tick rates without stalling the sim.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
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
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			total_resource INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS deaths (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			agent_id INTEGER NOT NULL,
			cell_id INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick, agent_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_deaths_agent ON deaths(run_id, agent_id);`,
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

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRun registers a run. Never blocks the caller.
func (s *SQLiteIndex) RecordRun(info runtime.RunInfo) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqRun, run: info}:
	default:
	}
	return nil
}

// WriteTick queues one tick row. Drops if the indexer falls behind.
func (s *SQLiteIndex) WriteTick(entry runtime.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,seed,width,height,agents,started_at) VALUES(?,?,?,?,?,?)`)
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,alive,total_resource,deaths) VALUES(?,?,?,?,?)`)
	insertDeath, _ := s.db.Prepare(`INSERT OR REPLACE INTO deaths(run_id,tick,agent_id,cell_id) VALUES(?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertDeath != nil {
			_ = insertDeath.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
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
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			if insertRun == nil {
				continue
			}
			info := r.run
			if _, err := tx.Stmt(insertRun).Exec(
				info.RunID,
				info.Seed,
				info.Width,
				info.Height,
				info.Agents,
				info.StartedAt.UTC().Format(time.RFC3339Nano),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			// Make the run row visible before its ticks arrive.
			commit()

		case reqTick:
			e := r.tick
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					e.RunID,
					int64(e.Tick),
					e.Alive,
					e.TotalResource,
					len(e.Deaths),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, d := range e.Deaths {
				if insertDeath == nil {
					break
				}
				if _, err := tx.Stmt(insertDeath).Exec(e.RunID, int64(e.Tick), d.AgentID, d.CellID); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}

// RunRow is one row of the runs table.
type RunRow struct {
	RunID     string
	Seed      int64
	Width     int
	Height    int
	Agents    int
	StartedAt string
}

// Runs lists recorded runs, newest first.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,seed,width,height,agents,started_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Seed, &r.Width, &r.Height, &r.Agents, &r.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TickRow is one row of the ticks table.
type TickRow struct {
	Tick          uint64
	Alive         int
	TotalResource int
	Deaths        int
}

// Ticks returns the recorded tick stats for one run in tick order.
func (s *SQLiteIndex) Ticks(ctx context.Context, runID string) ([]TickRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick,alive,total_resource,deaths FROM ticks WHERE run_id=? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickRow
	for rows.Next() {
		var r TickRow
		var tick int64
		if err := rows.Scan(&tick, &r.Alive, &r.TotalResource, &r.Deaths); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeathCount reports how many deaths a run recorded in total.
func (s *SQLiteIndex) DeathCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deaths WHERE run_id=?`, runID).Scan(&n)
	return n, err
}
