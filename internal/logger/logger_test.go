package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFallback(t *testing.T) {
	log, err := New("prod", "bogus")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(0))   // info
	assert.False(t, log.Core().Enabled(-1)) // debug
}

func TestNewWithOptions_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onyx.log")

	log, err := NewWithOptions("prod", "debug", Options{File: path})
	require.NoError(t, err)

	log.Info("задача запущена")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "задача запущена")
	assert.Contains(t, string(data), `"level":"INFO"`)
}
