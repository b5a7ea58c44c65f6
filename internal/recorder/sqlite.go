package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the run manifest to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger log.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger log.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	_ = level.Info(logger).Log("msg", "sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunk_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			symbols     INTEGER,
			samples     INTEGER,
			state       TEXT,
			path        TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_run ON chunk_events(run_id, chunk_index)`,

		`CREATE TABLE IF NOT EXISTS symbol_failures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT NOT NULL,
			chunk_index INTEGER,
			symbol      TEXT NOT NULL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failure_symbol ON symbol_failures(symbol)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL UNIQUE,
			started_at     INTEGER,
			finished_at    INTEGER,
			symbols        INTEGER,
			chunks         INTEGER,
			skipped_chunks INTEGER,
			samples        INTEGER,
			failed_symbols INTEGER,
			status         TEXT,
			error          TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordChunk(evt *ChunkEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO chunk_events
		(timestamp, run_id, chunk_index, symbols, samples, state, path, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RunID, evt.Index, evt.Symbols, evt.Samples,
		evt.State, evt.Path, evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSymbolFailure(evt *SymbolFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO symbol_failures
		(timestamp, run_id, chunk_index, symbol, reason)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.RunID, evt.ChunkIndex, evt.Symbol, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, symbols, chunks, skipped_chunks, samples, failed_symbols, status, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.RunID, evt.StartedAt.Unix(), evt.FinishedAt.Unix(),
		evt.Symbols, evt.Chunks, evt.SkippedChunks, evt.Samples, evt.FailedSymbols,
		evt.Status, evt.Error,
	)
	return err
}

// FailedSymbols returns the distinct symbols recorded as failed for a run.
func (r *SQLiteRecorder) FailedSymbols(runID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM symbol_failures WHERE run_id = ? ORDER BY symbol`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	_ = level.Info(r.logger).Log("msg", "closing sqlite recorder")
	return r.db.Close()
}
