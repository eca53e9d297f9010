package inspector

import (
	"context"
	"errors"

	"github.com/zerfoo/zmodel/pkg/interpreter"
)

// fakeModel is an in-memory Interpreter. Invoke returns one tensor per
// output filled with the values of outputData.
type fakeModel struct {
	meta       interpreter.Metadata
	inputs     []interpreter.TensorInfo
	outputs    []interpreter.TensorInfo
	outputData [][]float32
	invokeErr  error

	got    []interpreter.Tensor
	closed bool
}

func (f *fakeModel) Metadata() interpreter.Metadata     { return f.meta }
func (f *fakeModel) Inputs() []interpreter.TensorInfo  { return f.inputs }
func (f *fakeModel) Outputs() []interpreter.TensorInfo { return f.outputs }
func (f *fakeModel) Close() error                      { f.closed = true; return nil }

func (f *fakeModel) Invoke(_ context.Context, inputs []interpreter.Tensor) ([]interpreter.Tensor, error) {
	f.got = inputs
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	out := make([]interpreter.Tensor, len(f.outputs))
	for i, info := range f.outputs {
		out[i] = interpreter.Tensor{TensorInfo: info, Data: f.outputData[i]}
	}
	return out, nil
}

// opener serves models by path; unknown paths fail to load.
func opener(models map[string]*fakeModel) interpreter.Opener {
	return func(_ context.Context, path string, _ interpreter.Options) (interpreter.Interpreter, error) {
		m, ok := models[path]
		if !ok {
			return nil, errors.New("no such model")
		}
		return m, nil
	}
}

func info(name string, dtype interpreter.DType, shape ...int64) interpreter.TensorInfo {
	return interpreter.TensorInfo{Name: name, DType: dtype, Shape: shape}
}
