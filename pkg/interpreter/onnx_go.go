package interpreter

import (
	"context"
	"fmt"

	"github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"
)

// goRunner executes ONNX models with the pure-Go gonnx runtime. The gonnx
// model is built on first use so that graphs gonnx cannot execute still
// load for inspection.
type goRunner struct {
	data    []byte
	outputs []TensorInfo
	model   *gonnx.Model
}

func (r *goRunner) run(_ context.Context, inputs []Tensor) ([]Tensor, error) {
	if r.model == nil {
		model, err := gonnx.NewModelFromBytes(r.data)
		if err != nil {
			return nil, fmt.Errorf("gonnx cannot execute this model: %w", err)
		}
		r.model = model
	}

	feeds := make(map[string]tensor.Tensor, len(inputs))
	for _, in := range inputs {
		static := StaticShape(in.Shape)
		shape := make([]int, len(static))
		for i, d := range static {
			shape[i] = int(d)
		}
		feeds[in.Name] = tensor.New(tensor.WithShape(shape...), tensor.WithBacking(in.Data))
	}

	outs, err := r.model.Run(feeds)
	if err != nil {
		return nil, err
	}

	results := make([]Tensor, len(r.outputs))
	for i, info := range r.outputs {
		t, ok := outs[info.Name]
		if !ok {
			return nil, fmt.Errorf("gonnx produced no value for output %q", info.Name)
		}
		result := Tensor{TensorInfo: info, Data: t.Data()}
		result.Shape = make([]int64, len(t.Shape()))
		for j, d := range t.Shape() {
			result.Shape[j] = int64(d)
		}
		results[i] = result
	}
	return results, nil
}

func (r *goRunner) close() error {
	r.model = nil
	return nil
}
