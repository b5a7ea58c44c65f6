package recorder

import "time"

// ChunkEvent records one chunk's outcome.
type ChunkEvent struct {
	RunID    string
	Index    int
	Symbols  int
	Samples  int
	State    string // "WRITTEN" or "SKIPPED"
	Path     string
	Duration time.Duration
}

// SymbolFailure records a symbol whose series could not be loaded.
type SymbolFailure struct {
	RunID      string
	ChunkIndex int
	Symbol     string
	Reason     string
}

// RunEvent summarises a finished run.
type RunEvent struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Symbols       int
	Chunks        int
	SkippedChunks int
	Samples       int
	FailedSymbols int
	Status        string // "SUCCESS", "FAILED" or "CANCELLED"
	Error         string
}

// Recorder persists a manifest of dataset runs.
type Recorder interface {
	RecordChunk(evt *ChunkEvent) error
	RecordSymbolFailure(evt *SymbolFailure) error
	RecordRun(evt *RunEvent) error
	Close() error
}
