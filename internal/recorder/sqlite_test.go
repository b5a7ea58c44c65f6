package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.db")
	rec, err := NewSQLiteRecorder(path, log.NewNopLogger())
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.RecordChunk(&ChunkEvent{
		RunID: "r1", Index: 0, Symbols: 50, Samples: 812, State: "WRITTEN",
		Path: "data/train/0.parquet", Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, rec.RecordSymbolFailure(&SymbolFailure{RunID: "r1", ChunkIndex: 0, Symbol: "ZZZ", Reason: "delisted"}))
	require.NoError(t, rec.RecordSymbolFailure(&SymbolFailure{RunID: "r1", ChunkIndex: 50, Symbol: "AAA", Reason: "timeout"}))
	require.NoError(t, rec.RecordSymbolFailure(&SymbolFailure{RunID: "r2", ChunkIndex: 0, Symbol: "BBB", Reason: "timeout"}))

	failed, err := rec.FailedSymbols("r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "ZZZ"}, failed)

	var samples int
	var state string
	require.NoError(t, rec.db.QueryRow(`SELECT samples, state FROM chunk_events WHERE run_id = ?`, "r1").Scan(&samples, &state))
	assert.Equal(t, 812, samples)
	assert.Equal(t, "WRITTEN", state)
}

func TestSQLiteRecorder_RunIsUpserted(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "manifest.db"), log.NewNopLogger())
	require.NoError(t, err)
	defer rec.Close()

	now := time.Now()
	require.NoError(t, rec.RecordRun(&RunEvent{RunID: "r1", StartedAt: now, FinishedAt: now, Status: "CANCELLED"}))
	require.NoError(t, rec.RecordRun(&RunEvent{RunID: "r1", StartedAt: now, FinishedAt: now, Samples: 10, Status: "SUCCESS"}))

	var n, samples int
	var status string
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	require.NoError(t, rec.db.QueryRow(`SELECT samples, status FROM runs WHERE run_id = 'r1'`).Scan(&samples, &status))
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, samples)
	assert.Equal(t, "SUCCESS", status)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordChunk(&ChunkEvent{}))
	assert.NoError(t, r.RecordSymbolFailure(&SymbolFailure{}))
	assert.NoError(t, r.RecordRun(&RunEvent{}))
	assert.NoError(t, r.Close())
}
