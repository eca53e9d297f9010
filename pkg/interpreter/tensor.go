package interpreter

import "fmt"

// Quantization is a per-tensor affine mapping real = Scale * (q - ZeroPoint).
type Quantization struct {
	Scale     float32 `json:"scale"`
	ZeroPoint int64   `json:"zero_point"`
}

// TensorInfo describes a model input or output.
type TensorInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	// Shape holds -1 for dynamic dimensions.
	Shape        []int64       `json:"shape"`
	DType        DType         `json:"dtype"`
	Quantization *Quantization `json:"quantization,omitempty"`
}

// Tensor is a tensor value. Data is a slice of the Go type matching DType:
// []float32, []float64, []uint8, []int8, []int16, []int32, []int64 or []bool.
type Tensor struct {
	TensorInfo
	Data any
}

// Float64s widens the numeric payload of t.
func (t Tensor) Float64s() ([]float64, error) {
	switch data := t.Data.(type) {
	case []float32:
		return widen(data), nil
	case []float64:
		return append([]float64(nil), data...), nil
	case []uint8:
		return widen(data), nil
	case []int8:
		return widen(data), nil
	case []int16:
		return widen(data), nil
	case []uint16:
		return widen(data), nil
	case []int32:
		return widen(data), nil
	case []uint32:
		return widen(data), nil
	case []int64:
		return widen(data), nil
	case []uint64:
		return widen(data), nil
	case []bool:
		out := make([]float64, len(data))
		for i, b := range data {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tensor %q: unsupported data type %T", t.Name, t.Data)
	}
}

type number interface {
	~float32 | ~float64 | ~uint8 | ~int8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

func widen[T number](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// Elements returns the element count of shape, treating dynamic dimensions
// as 1.
func Elements(shape []int64) int {
	n := 1
	for _, d := range shape {
		if d >= 0 {
			n *= int(d)
		}
	}
	return n
}

// StaticShape replaces dynamic dimensions with 1.
func StaticShape(shape []int64) []int64 {
	out := make([]int64, len(shape))
	for i, d := range shape {
		if d < 0 {
			d = 1
		}
		out[i] = d
	}
	return out
}
