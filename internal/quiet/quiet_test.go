package quiet

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdout_Restores(t *testing.T) {
	before := os.Stdout
	var during *os.File
	err := Stdout(func() error {
		during = os.Stdout
		return nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, during)
	assert.Equal(t, before, os.Stdout)
}

func TestStdout_RestoresOnError(t *testing.T) {
	before := os.Stdout
	boom := errors.New("boom")
	err := Stdout(func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, os.Stdout)
}

func TestStdout_RestoresOnPanic(t *testing.T) {
	before := os.Stdout
	assert.Panics(t, func() {
		_ = Stdout(func() error { panic("provider blew up") })
	})
	assert.Equal(t, before, os.Stdout)
}
