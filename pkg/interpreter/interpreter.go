// Package interpreter gives TFLite, ONNX and ZMF models a common surface:
// tensor descriptors plus, where a runtime is available, a forward pass.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/zerfoo/zmodel/internal/fsutil"
	"github.com/zerfoo/zmodel/internal/tflite"
)

var (
	// ErrNoRuntime is returned by Invoke when the model's format has no
	// inference runtime in this build.
	ErrNoRuntime = errors.New("no inference runtime available")
	// ErrUnknownFormat is returned by Open for files it cannot identify.
	ErrUnknownFormat = errors.New("unrecognised model format")
)

// Format identifies a model file format.
type Format string

const (
	FormatTFLite Format = "tflite"
	FormatONNX   Format = "onnx"
	FormatZMF    Format = "zmf"
)

// Backend names.
const (
	BackendGo  = "go"
	BackendORT = "ort"
)

// Metadata is the format-level information of a loaded model.
type Metadata struct {
	Format      Format `json:"format"`
	Runtime     string `json:"runtime"`
	Description string `json:"description,omitempty"`
	Producer    string `json:"producer,omitempty"`
	IRVersion   int64  `json:"ir_version,omitempty"`
	Opset       int64  `json:"opset,omitempty"`
	Operators   int    `json:"operators"`
}

// Interpreter is a loaded model.
type Interpreter interface {
	Metadata() Metadata
	Inputs() []TensorInfo
	Outputs() []TensorInfo
	// Invoke runs one forward pass. inputs are matched to Inputs() by
	// position; the result is ordered like Outputs().
	Invoke(ctx context.Context, inputs []Tensor) ([]Tensor, error)
	Close() error
}

// Options configures Open.
type Options struct {
	// Backend selects the ONNX runtime: BackendGo (default) or BackendORT.
	Backend string
	// ORTLibrary is the onnxruntime shared library path for BackendORT.
	ORTLibrary string
	// Threads is the TFLite interpreter thread count.
	Threads int
	Logger  *slog.Logger
}

// Opener opens a model; Open is the production implementation.
type Opener func(ctx context.Context, path string, opts Options) (Interpreter, error)

// Open loads the model at path (a filesystem path or storage URL).
func Open(ctx context.Context, path string, opts Options) (Interpreter, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	data, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	format, err := DetectFormat(path, data)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("opening model", slog.String("path", path), slog.String("format", string(format)))

	switch format {
	case FormatTFLite:
		return openTFLite(data, opts)
	case FormatONNX:
		return openONNX(data, opts)
	default:
		return openZMF(data)
	}
}

// DetectFormat identifies a model by its content, falling back to the file
// extension.
func DetectFormat(path string, data []byte) (Format, error) {
	if tflite.IsModel(data) {
		return FormatTFLite, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tflite":
		return FormatTFLite, nil
	case ".onnx":
		return FormatONNX, nil
	case ".zmf":
		return FormatZMF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// runner performs inference for a model whose descriptors are already known.
type runner interface {
	run(ctx context.Context, inputs []Tensor) ([]Tensor, error)
	close() error
}

// model is the Interpreter shared by all formats. A nil runner means the
// build has no runtime for the format; noRuntime explains why.
type model struct {
	meta      Metadata
	inputs    []TensorInfo
	outputs   []TensorInfo
	runner    runner
	noRuntime error
}

func (m *model) Metadata() Metadata    { return m.meta }
func (m *model) Inputs() []TensorInfo  { return m.inputs }
func (m *model) Outputs() []TensorInfo { return m.outputs }

func (m *model) Invoke(ctx context.Context, inputs []Tensor) ([]Tensor, error) {
	if m.runner == nil {
		if m.noRuntime != nil {
			return nil, m.noRuntime
		}
		return nil, ErrNoRuntime
	}
	if len(inputs) != len(m.inputs) {
		return nil, fmt.Errorf("model has %d inputs, got %d tensors", len(m.inputs), len(inputs))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.runner.run(ctx, inputs)
}

func (m *model) Close() error {
	if m.runner == nil {
		return nil
	}
	return m.runner.close()
}
