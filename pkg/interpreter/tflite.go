package interpreter

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/tflite"
)

func openTFLite(data []byte, opts Options) (Interpreter, error) {
	parsed, err := tflite.Parse(data)
	if err != nil {
		return nil, err
	}
	m := &model{
		meta: Metadata{
			Format:      FormatTFLite,
			Runtime:     "none",
			Description: parsed.Description,
			Operators:   parsed.Operators,
		},
		inputs:  tfliteInfos(parsed.Inputs),
		outputs: tfliteInfos(parsed.Outputs),
	}

	r, err := newTFLiteRuntime(data, m.inputs, m.outputs, opts.Threads)
	switch {
	case err == nil:
		m.runner = r
		m.meta.Runtime = "tflite"
	case isNoRuntime(err):
		m.noRuntime = err
		opts.Logger.Debug("TFLite runtime unavailable", "error", err)
	default:
		return nil, err
	}
	return m, nil
}

func tfliteInfos(tensors []tflite.Tensor) []TensorInfo {
	infos := make([]TensorInfo, len(tensors))
	for i, t := range tensors {
		infos[i] = TensorInfo{
			Index: t.Index,
			Name:  t.Name,
			Shape: t.Shape,
			DType: DTypeFromTFLite(t.Type),
		}
		if q := t.Quantization; q != nil && len(q.Scale) > 0 && q.Scale[0] != 0 {
			info := &Quantization{Scale: q.Scale[0]}
			if len(q.ZeroPoint) > 0 {
				info.ZeroPoint = q.ZeroPoint[0]
			}
			infos[i].Quantization = info
		}
	}
	return infos
}

// noRuntimeError marks runtimes compiled out of this build.
type noRuntimeError struct {
	format Format
	hint   string
}

func (e *noRuntimeError) Error() string {
	return fmt.Sprintf("%s: %s inference is not compiled in; %s", ErrNoRuntime, e.format, e.hint)
}

func (e *noRuntimeError) Unwrap() error { return ErrNoRuntime }

func isNoRuntime(err error) bool {
	_, ok := err.(*noRuntimeError)
	return ok
}
