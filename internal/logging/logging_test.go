package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zmodel.log")
	var stderr bytes.Buffer

	logger, closeLog, err := New(path, false, &stderr)
	require.NoError(t, err)
	logger.Info("model loaded", "path", "my_model.onnx")
	logger.Debug("hidden")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"model loaded"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Empty(t, stderr.String())
}

func TestNewVerboseFansOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zmodel.log")
	var stderr bytes.Buffer

	logger, closeLog, err := New(path, true, &stderr)
	require.NoError(t, err)
	logger.Debug("converting", "target", 21)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "converting")
	assert.Contains(t, stderr.String(), "target=21")
}

func TestNewWithoutSinks(t *testing.T) {
	logger, closeLog, err := New("", false, nil)
	require.NoError(t, err)
	logger.Info("dropped")
	assert.NoError(t, closeLog())
}

func TestNewBadPath(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "missing", "dir", "zmodel.log"), false, nil)
	assert.Error(t, err)
}
