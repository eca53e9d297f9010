package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.bin")

	require.NoError(t, WriteFile(ctx, path, []byte("weights"), 0o644))

	exists, err := Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))

	size, err := Size(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.onnx"))
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "labels.txt")

	w, err := Create(ctx, path)
	require.NoError(t, err)
	_, err = w.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestWriteFileMissingParent(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "missing")

	err := WriteFile(ctx, filepath.Join(dir, "model.onnx"), []byte("x"), 0o644)
	require.ErrorIs(t, err, ErrNoParent)
	assert.NoDirExists(t, dir)

	err = WriteFile(ctx, "file://"+filepath.Join(dir, "model.onnx"), []byte("x"), 0o644)
	require.ErrorIs(t, err, ErrNoParent)
}
