package inspector

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/zerfoo/zmodel/pkg/interpreter"
)

// ErrUnsupportedDtype is returned for inputs SynthesizeInput cannot fill.
var ErrUnsupportedDtype = errors.New("unsupported input dtype")

// SynthesizeInput builds a random tensor for info: uint8 values uniform in
// [0, 256), float32 values uniform in [0, 1). Dynamic dimensions are 1.
func SynthesizeInput(info interpreter.TensorInfo, rng *rand.Rand) (interpreter.Tensor, error) {
	shape := interpreter.StaticShape(info.Shape)
	n := interpreter.Elements(shape)
	t := interpreter.Tensor{TensorInfo: info}
	t.Shape = shape

	switch info.DType {
	case interpreter.UInt8:
		data := make([]uint8, n)
		for i := range data {
			data[i] = uint8(rng.IntN(256))
		}
		t.Data = data
	case interpreter.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = rng.Float32()
		}
		t.Data = data
	default:
		return t, fmt.Errorf("%w: %s", ErrUnsupportedDtype, info.DType)
	}
	return t, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
