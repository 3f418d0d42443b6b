package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(path, false)
	require.NoError(t, err)
	logger.Info().Str("chain", "testchain").Msg("fetch run done")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fetch run done"`)
	assert.Contains(t, string(data), `"chain":"testchain"`)
}

func TestNewUnwritablePath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "app.log"), false)
	assert.Error(t, err)
}
