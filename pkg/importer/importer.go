package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/zerfoo/zmodel/internal/fsutil"
	"github.com/zerfoo/zmodel/internal/onnx"
	"google.golang.org/protobuf/proto"
)

var (
	// ErrLoad reports a model file that is missing, unreadable or not a
	// valid ONNX protobuf.
	ErrLoad = errors.New("load error")
	// ErrSave reports a destination that could not be written.
	ErrSave = errors.New("save error")
)

// LoadOnnxModel reads an ONNX model file and returns the parsed ModelProto.
func LoadOnnxModel(ctx context.Context, path string) (*onnx.ModelProto, error) {
	data, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read ONNX file: %w", ErrLoad, err)
	}

	model := &onnx.ModelProto{}
	if err := proto.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal ONNX protobuf: %w", ErrLoad, err)
	}
	// An empty file unmarshals into an empty ModelProto.
	if model.GetGraph() == nil {
		return nil, fmt.Errorf("%w: %s has no graph", ErrLoad, path)
	}
	if _, ok := onnx.DefaultOpsetVersion(model); !ok {
		return nil, fmt.Errorf("%w: %s does not import the default operator set", ErrLoad, path)
	}

	return model, nil
}

// SaveOnnxModel serializes model to path and returns the written size in bytes.
func SaveOnnxModel(ctx context.Context, model *onnx.ModelProto, path string) (int64, error) {
	outBytes, err := proto.MarshalOptions{Deterministic: true}.Marshal(model)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to marshal ONNX protobuf: %w", ErrSave, err)
	}

	if err := fsutil.WriteFile(ctx, path, outBytes, 0o644); err != nil {
		return 0, fmt.Errorf("%w: failed to write %s: %w", ErrSave, path, err)
	}

	size, err := fsutil.Size(ctx, path)
	if err != nil {
		return int64(len(outBytes)), nil
	}
	return size, nil
}
