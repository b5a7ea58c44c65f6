// Package logging builds the run logger: logfmt lines to stderr and to a
// per-run log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// FileName returns the per-run log file name for the given start time,
// e.g. data_prep_20201001123000123456.log.
func FileName(now time.Time) string {
	return fmt.Sprintf("data_prep_%s%06d.log", now.Format("20060102150405"), now.Nanosecond()/1000)
}

// Run holds the logger for one run and the file it writes to.
type Run struct {
	Logger log.Logger
	Path   string
	file   *os.File
}

// Open creates the run log file under dir and returns a logger that writes
// to it and to stderr, filtered at lvl.
func Open(dir, lvl string, now time.Time) (*Run, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Run{
		Logger: New(io.MultiWriter(os.Stderr, f), lvl),
		Path:   path,
		file:   f,
	}, nil
}

// Close flushes and closes the run log file.
func (r *Run) Close() error {
	if r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// callerDepth skips the level filter and the level.X wrapper between the
// call site and the caller valuer.
const callerDepth = 5

// New returns a logfmt logger on w with timestamp and caller, filtered at lvl.
// The caller is the site of a level.X(logger).Log call.
func New(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.Caller(callerDepth))
	return level.NewFilter(logger, Allow(lvl))
}

// Allow maps a level name to a go-kit level option. Unknown names mean info.
func Allow(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// ValidLevel reports whether lvl is a recognised level name.
func ValidLevel(lvl string) bool {
	switch strings.ToLower(lvl) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
