//go:build cgo && tflite

package interpreter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zmodel/internal/tflite"
	"github.com/zerfoo/zmodel/internal/tflite/tflitetest"
)

func TestTFLiteRuntimeResizesDynamicInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.tflite")
	data := tflitetest.BuildPassthrough(tflitetest.Tensor{
		Name: "x", Shape: []int32{2, 4}, Signature: []int32{-1, 4}, Type: tflite.Float32,
	})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	interp, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, interp.Close()) }()
	assert.Equal(t, "tflite", interp.Metadata().Runtime)
	assert.Equal(t, []int64{-1, 4}, interp.Inputs()[0].Shape)

	in := []float32{1, 2, 3, 4}
	out, err := interp.Invoke(context.Background(), []Tensor{{TensorInfo: interp.Inputs()[0], Data: in}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int64{1, 4}, out[0].Shape)
	assert.Equal(t, in, out[0].Data)
}
