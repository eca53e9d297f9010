package interpreter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zmf"
	"google.golang.org/protobuf/proto"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/onnx/onnxtest"
	"github.com/zerfoo/zmodel/internal/tflite"
	"github.com/zerfoo/zmodel/internal/tflite/tflitetest"
)

func TestDetectFormat(t *testing.T) {
	tfl := tflitetest.Build([]tflitetest.Tensor{{Name: "x", Shape: []int32{1}}}, nil)
	tests := []struct {
		path    string
		data    []byte
		want    Format
		wantErr bool
	}{
		{"model.bin", tfl, FormatTFLite, false},
		{"model.tflite", []byte("garbage"), FormatTFLite, false},
		{"model.ONNX", []byte{0x08, 0x0a}, FormatONNX, false},
		{"model.zmf", nil, FormatZMF, false},
		{"model.bin", []byte("garbage"), "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path, tt.data)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestOpenTFLiteDescriptors(t *testing.T) {
	path := tflitetest.Write(t, t.TempDir(), "die_classifier.tflite",
		[]tflitetest.Tensor{{Name: "input", Shape: []int32{1, 224, 224, 3}, Type: tflite.UInt8, Scale: 0.5, ZeroPoint: 3}},
		[]tflitetest.Tensor{{Name: "probs", Shape: []int32{1, 6}, Type: tflite.Float32}},
	)

	interp, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer interp.Close()

	assert.Equal(t, FormatTFLite, interp.Metadata().Format)
	require.Len(t, interp.Inputs(), 1)
	in := interp.Inputs()[0]
	assert.Equal(t, "input", in.Name)
	assert.Equal(t, []int64{1, 224, 224, 3}, in.Shape)
	assert.Equal(t, UInt8, in.DType)
	require.NotNil(t, in.Quantization)
	assert.Equal(t, float32(0.5), in.Quantization.Scale)
	assert.Equal(t, int64(3), in.Quantization.ZeroPoint)

	require.Len(t, interp.Outputs(), 1)
	out := interp.Outputs()[0]
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, Float32, out.DType)
	assert.Nil(t, out.Quantization)
}

func TestOpenONNXDescriptors(t *testing.T) {
	model := onnxtest.Model(13, onnxtest.Graph("g",
		[]*onnx.NodeProto{onnxtest.Node("Add", []string{"x", "bias"}, []string{"y"})},
		[]*onnx.ValueInfoProto{
			onnxtest.Value("x", onnx.DataTypeFloat, -1, 4),
			onnxtest.Value("bias", onnx.DataTypeFloat, 4),
		},
		[]*onnx.ValueInfoProto{onnxtest.Value("y", onnx.DataTypeFloat, -1, 4)},
		&onnx.TensorProto{Name: "bias", DataType: onnx.DataTypeFloat, Dims: []int64{4}, FloatData: []float32{1, 1, 1, 1}},
	))
	path := onnxtest.Write(t, t.TempDir(), "m.onnx", model)

	interp, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer interp.Close()

	meta := interp.Metadata()
	assert.Equal(t, FormatONNX, meta.Format)
	assert.Equal(t, int64(10), meta.IRVersion)
	assert.Equal(t, int64(13), meta.Opset)
	assert.Equal(t, "gonnx", meta.Runtime)

	require.Len(t, interp.Inputs(), 1, "initializers are not inputs")
	assert.Equal(t, []int64{-1, 4}, interp.Inputs()[0].Shape)
	assert.Equal(t, Float32, interp.Inputs()[0].DType)
}

func TestOpenONNXUnknownBackend(t *testing.T) {
	path := onnxtest.Write(t, t.TempDir(), "m.onnx", onnxtest.ReluModel(13))
	_, err := Open(context.Background(), path, Options{Backend: "tpu"})
	assert.ErrorContains(t, err, "unknown ONNX backend")
}

func TestGoRunnerRelu(t *testing.T) {
	path := onnxtest.Write(t, t.TempDir(), "relu.onnx", onnxtest.ReluModel(13))
	interp, err := Open(context.Background(), path, Options{Backend: BackendGo})
	require.NoError(t, err)
	defer interp.Close()

	in := Tensor{TensorInfo: interp.Inputs()[0], Data: []float32{-1, 2, -3, 4}}
	out, err := interp.Invoke(context.Background(), []Tensor{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float32{0, 2, 0, 4}, out[0].Data)
	assert.Equal(t, []int64{1, 4}, out[0].Shape)
}

func TestInvokeChecksInputCount(t *testing.T) {
	path := onnxtest.Write(t, t.TempDir(), "relu.onnx", onnxtest.ReluModel(13))
	interp, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	_, err = interp.Invoke(context.Background(), nil)
	assert.ErrorContains(t, err, "has 1 inputs")
}

func TestOpenZMF(t *testing.T) {
	zm := &zmf.Model{
		Graph: &zmf.Graph{
			Inputs:  []*zmf.ValueInfo{{Name: "images", Shape: []int64{0, 3, 640, 640}}},
			Outputs: []*zmf.ValueInfo{{Name: "output", Shape: []int64{1, 84, 8400}}},
		},
		Metadata: &zmf.Metadata{ProducerName: "zonnx", OpsetVersion: 21},
	}
	data, err := proto.Marshal(zm)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.zmf")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	interp, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatZMF, interp.Metadata().Format)
	assert.Equal(t, int64(21), interp.Metadata().Opset)
	assert.Equal(t, []int64{-1, 3, 640, 640}, interp.Inputs()[0].Shape)
	assert.Equal(t, Unknown, interp.Outputs()[0].DType)

	_, err = interp.Invoke(context.Background(), []Tensor{{}})
	assert.ErrorIs(t, err, ErrNoRuntime)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.tflite"), Options{})
	assert.Error(t, err)
}

func TestFloat64s(t *testing.T) {
	got, err := Tensor{Data: []uint8{0, 255}}.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 255}, got)

	got, err = Tensor{Data: []bool{true, false}}.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got)

	_, err = Tensor{Data: "text"}.Float64s()
	assert.Error(t, err)
}

func TestShapes(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 1}, StaticShape([]int64{-1, 3, -1}))
	assert.Equal(t, 12, Elements([]int64{-1, 3, 4}))
	assert.Equal(t, 0, Elements([]int64{2, 0}))
}

func TestDTypeNames(t *testing.T) {
	assert.Equal(t, "uint8", UInt8.String())
	assert.Equal(t, "float32", DTypeFromTFLite(tflite.Float32).String())
	assert.Equal(t, "int64", DTypeFromONNX(onnx.DataTypeInt64).String())
	assert.Equal(t, Unknown, DTypeFromONNX(onnx.DataTypeFloat8E5M2))
	text, err := Int8.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "int8", string(text))
}
