//go:build cgo && tflite

package interpreter

import (
	"context"
	"errors"
	"fmt"

	gotflite "github.com/mattn/go-tflite"
)

type tfliteRuntime struct {
	model   *gotflite.Model
	options *gotflite.InterpreterOptions
	interp  *gotflite.Interpreter
	outputs []TensorInfo
}

func newTFLiteRuntime(data []byte, inputs, outputs []TensorInfo, threads int) (runner, error) {
	model := gotflite.NewModel(data)
	if model == nil {
		return nil, errors.New("TFLite runtime could not load the model")
	}
	options := gotflite.NewInterpreterOptions()
	if threads > 0 {
		options.SetNumThread(threads)
	}
	interp := gotflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return nil, errors.New("TFLite runtime could not create an interpreter")
	}
	r := &tfliteRuntime{model: model, options: options, interp: interp, outputs: outputs}
	// Dynamic dimensions are fixed to 1 before the first allocation.
	for i, info := range inputs {
		if !dynamic(info.Shape) {
			continue
		}
		if status := interp.ResizeInputTensor(i, int32Dims(StaticShape(info.Shape))); status != gotflite.OK {
			_ = r.close()
			return nil, fmt.Errorf("failed to resize input %q: status %d", info.Name, status)
		}
	}
	if status := interp.AllocateTensors(); status != gotflite.OK {
		_ = r.close()
		return nil, fmt.Errorf("failed to allocate tensors: status %d", status)
	}
	return r, nil
}

func (r *tfliteRuntime) run(_ context.Context, inputs []Tensor) ([]Tensor, error) {
	for i, in := range inputs {
		t := r.interp.GetInputTensor(i)
		if t == nil {
			return nil, fmt.Errorf("input tensor %d not found", i)
		}
		if status := t.CopyFromBuffer(in.Data); status != gotflite.OK {
			return nil, fmt.Errorf("failed to set input %q: status %d", in.Name, status)
		}
	}
	if status := r.interp.Invoke(); status != gotflite.OK {
		return nil, fmt.Errorf("invoke failed: status %d", status)
	}

	results := make([]Tensor, len(r.outputs))
	for i, info := range r.outputs {
		t := r.interp.GetOutputTensor(i)
		if t == nil {
			return nil, fmt.Errorf("output tensor %d not found", i)
		}
		results[i] = Tensor{TensorInfo: info}
		results[i].Shape = make([]int64, t.NumDims())
		for d := range results[i].Shape {
			results[i].Shape[d] = int64(t.Dim(d))
		}
		switch t.Type() {
		case gotflite.Float32:
			results[i].Data = append([]float32(nil), t.Float32s()...)
		case gotflite.UInt8:
			results[i].Data = append([]uint8(nil), t.UInt8s()...)
		case gotflite.Int8:
			results[i].Data = append([]int8(nil), t.Int8s()...)
		case gotflite.Int32:
			results[i].Data = append([]int32(nil), t.Int32s()...)
		default:
			return nil, fmt.Errorf("output %q has unsupported type %v", info.Name, t.Type())
		}
	}
	return results, nil
}

func (r *tfliteRuntime) close() error {
	if r.interp != nil {
		r.interp.Delete()
	}
	if r.options != nil {
		r.options.Delete()
	}
	if r.model != nil {
		r.model.Delete()
	}
	return nil
}

func dynamic(shape []int64) bool {
	for _, d := range shape {
		if d < 0 {
			return true
		}
	}
	return false
}

func int32Dims(shape []int64) []int32 {
	dims := make([]int32, len(shape))
	for i, d := range shape {
		dims[i] = int32(d)
	}
	return dims
}
