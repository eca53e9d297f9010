//go:build ORT || ALL

package interpreter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(library string) error {
	ortEnv.once.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortEnv.err = fmt.Errorf("failed to initialize ONNX Runtime environment: %w", err)
			return
		}
		ortEnv.err = ort.DisableTelemetry()
	})
	return ortEnv.err
}

type ortRunner struct {
	session *ort.DynamicAdvancedSession
	outputs []TensorInfo
}

func newORTRunner(data []byte, inputs, outputs []TensorInfo, library string) (runner, error) {
	if err := initORT(library); err != nil {
		return nil, err
	}
	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	outputNames := make([]string, len(outputs))
	for i, out := range outputs {
		outputNames[i] = out.Name
	}
	session, err := ort.NewDynamicAdvancedSessionWithONNXData(data, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}
	return &ortRunner{session: session, outputs: outputs}, nil
}

func (r *ortRunner) run(_ context.Context, inputs []Tensor) (results []Tensor, err error) {
	values := make([]ort.Value, 0, len(inputs))
	outputs := make([]ort.Value, len(r.outputs))
	defer func() {
		for _, v := range values {
			err = errors.Join(err, v.Destroy())
		}
		for _, v := range outputs {
			if v != nil {
				err = errors.Join(err, v.Destroy())
			}
		}
	}()

	for _, in := range inputs {
		v, err := newORTValue(in)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	// Nil outputs are allocated by the session.
	if err := r.session.Run(values, outputs); err != nil {
		return nil, err
	}

	results = make([]Tensor, len(r.outputs))
	for i, v := range outputs {
		results[i] = Tensor{TensorInfo: r.outputs[i]}
		switch t := v.(type) {
		case *ort.Tensor[float32]:
			results[i].Data, results[i].Shape = append([]float32(nil), t.GetData()...), t.GetShape()
		case *ort.Tensor[float64]:
			results[i].Data, results[i].Shape = append([]float64(nil), t.GetData()...), t.GetShape()
		case *ort.Tensor[uint8]:
			results[i].Data, results[i].Shape = append([]uint8(nil), t.GetData()...), t.GetShape()
		case *ort.Tensor[int8]:
			results[i].Data, results[i].Shape = append([]int8(nil), t.GetData()...), t.GetShape()
		case *ort.Tensor[int32]:
			results[i].Data, results[i].Shape = append([]int32(nil), t.GetData()...), t.GetShape()
		case *ort.Tensor[int64]:
			results[i].Data, results[i].Shape = append([]int64(nil), t.GetData()...), t.GetShape()
		default:
			return nil, fmt.Errorf("output %q has unsupported value type %T", r.outputs[i].Name, v)
		}
	}
	return results, nil
}

func newORTValue(in Tensor) (ort.Value, error) {
	shape := ort.NewShape(StaticShape(in.Shape)...)
	switch data := in.Data.(type) {
	case []float32:
		return ort.NewTensor(shape, data)
	case []float64:
		return ort.NewTensor(shape, data)
	case []uint8:
		return ort.NewTensor(shape, data)
	case []int8:
		return ort.NewTensor(shape, data)
	case []int32:
		return ort.NewTensor(shape, data)
	case []int64:
		return ort.NewTensor(shape, data)
	default:
		return nil, fmt.Errorf("input %q: unsupported data type %T", in.Name, in.Data)
	}
}

func (r *ortRunner) close() error {
	return r.session.Destroy()
}
