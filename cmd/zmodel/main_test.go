package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/onnx/onnxtest"
	"github.com/zerfoo/zmodel/internal/tflite"
	"github.com/zerfoo/zmodel/internal/tflite/tflitetest"
)

// runApp runs zmodel with args and returns its stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "zmodel.log")
	full := append([]string{"zmodel", "--log-file", logFile}, args...)
	err := newApp(&stdout, &stderr).Run(full)
	return stdout.String(), err
}

func TestConvertOpsetCommand(t *testing.T) {
	dir := t.TempDir()
	input := onnxtest.Write(t, dir, "my_model.onnx", onnxtest.ReluModel(13))
	output := filepath.Join(dir, "my_model_opset21.onnx")

	out, err := runApp(t, "convert-opset", "--input", input, "--output", output, "--target", "21")
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERSION COMPLETE!")
	assert.FileExists(t, output)
}

func TestConvertOpsetFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	model := onnxtest.Model(20, onnxtest.Graph("g",
		[]*onnx.NodeProto{onnxtest.Node("Gelu", []string{"x"}, []string{"y"})},
		[]*onnx.ValueInfoProto{onnxtest.Value("x", onnx.DataTypeFloat, 1, 4)},
		[]*onnx.ValueInfoProto{onnxtest.Value("y", onnx.DataTypeFloat, 1, 4)},
	))
	input := onnxtest.Write(t, dir, "gelu.onnx", model)
	output := filepath.Join(dir, "gelu_opset19.onnx")

	out, err := runApp(t, "convert-opset", "--input", input, "--output", output, "--target", "19")
	require.NoError(t, err)
	assert.Contains(t, out, "ALTERNATIVE: Re-export from source")
	assert.NoFileExists(t, output)

	_, err = runApp(t, "convert-opset", "--input", input, "--output", output, "--target", "19", "--strict")
	assert.ErrorIs(t, err, errConversionFailed)
}

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	input := []tflitetest.Tensor{{Name: "images", Shape: []int32{1, 32, 32, 3}, Type: tflite.Float32}}
	current := tflitetest.Write(t, dir, "current.tflite", input,
		[]tflitetest.Tensor{{Name: "out", Shape: []int32{1, 84, 8400}, Type: tflite.Float32}})
	next := tflitetest.Write(t, dir, "new.tflite", input,
		[]tflitetest.Tensor{{Name: "out", Shape: []int32{1, 8400, 84}, Type: tflite.Float32}})
	return current, next
}

func TestInspectCommand(t *testing.T) {
	current, next := writeFixtures(t)

	out, err := runApp(t, "inspect", "--seed", "42", current, next)
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL FORMAT ANALYSIS:")
	assert.Contains(t, out, "YOLO11 TRANSPOSED format")
	assert.Contains(t, out, "YOLO11 STANDARD format")
	assert.Contains(t, out, "MODEL COMPARISON SUMMARY")
	assert.Contains(t, out, "WARN Output[0] shapes differ: [1, 84, 8400] vs [1, 8400, 84]")
}

func TestInspectCommandUsesConfiguredPaths(t *testing.T) {
	current, next := writeFixtures(t)
	t.Setenv("ZMODEL_INSPECTOR_CURRENT_MODEL", current)
	t.Setenv("ZMODEL_INSPECTOR_NEW_MODEL", next)

	out, err := runApp(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Inspecting: "+current)
	assert.Contains(t, out, "Inspecting: "+next)
}

func TestInspectCommandJSON(t *testing.T) {
	current, _ := writeFixtures(t)

	out, err := runApp(t, "inspect", "--json", current)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, `"kind": "transposed"`)
}

func TestCompareCommand(t *testing.T) {
	current, next := writeFixtures(t)

	out, err := runApp(t, "compare", current, next)
	require.NoError(t, err)
	assert.Contains(t, out, "OK Input shapes match: [1, 32, 32, 3]")

	_, err = runApp(t, "compare", current)
	assert.Error(t, err)

	out, err = runApp(t, "compare", current, filepath.Join(t.TempDir(), "missing.tflite"))
	assert.Error(t, err)
	assert.Contains(t, out, "Could not compare models")
}

func TestDownloadCommand(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"modelId": "org/dice","siblings": [{"rfilename": "dice.tflite"},{"rfilename": "labels.txt"}]}`)
	}))
	defer apiServer.Close()
	cdnServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "content")
	}))
	defer cdnServer.Close()

	t.Setenv("HUGGINGFACE_API_URL", apiServer.URL+"/")
	t.Setenv("HUGGINGFACE_CDN_URL", cdnServer.URL+"/")
	t.Setenv("ZMODEL_DOWNLOAD_MAX_RETRIES", "0")

	tests := []struct {
		name      string
		flagKey   string
		envKey    string
		expectErr bool
	}{
		{name: "api key via flag", flagKey: "test-api-key"},
		{name: "api key via env", envKey: "test-api-key"},
		{name: "unauthorized", flagKey: "wrong", expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HF_API_KEY", tt.envKey)
			dest := t.TempDir()
			args := []string{"download", "--model", "org/dice", "--output", dest}
			if tt.flagKey != "" {
				args = append(args, "--api-key", tt.flagKey)
			}

			out, err := runApp(t, args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "401 Unauthorized")
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, filepath.Join(dest, "dice.tflite"))
			content, err := os.ReadFile(filepath.Join(dest, "labels.txt"))
			require.NoError(t, err)
			assert.Equal(t, "content", string(content))
		})
	}
}
