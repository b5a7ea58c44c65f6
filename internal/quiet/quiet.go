// Package quiet silences chatty third-party code for the duration of a call.
package quiet

import (
	"os"
)

// Stdout runs fn with os.Stdout pointed at the null device. The original
// stdout is restored on every exit path, including a panic in fn.
// Not safe for concurrent use.
func Stdout(fn func() error) error {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		// Nothing to silence with; run loud rather than not at all.
		return fn()
	}
	saved := os.Stdout
	os.Stdout = devnull
	defer func() {
		os.Stdout = saved
		devnull.Close()
	}()
	return fn()
}
