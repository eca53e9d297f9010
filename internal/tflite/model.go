// Package tflite reads tensor metadata from TFLite flatbuffer models without
// the TFLite runtime.
package tflite

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// FileIdentifier is the flatbuffer file identifier of TFLite models.
const FileIdentifier = "TFL3"

// ErrNotTFLite is returned for buffers that are not TFLite flatbuffers.
var ErrNotTFLite = errors.New("not a TFLite flatbuffer")

// TensorType mirrors the TensorType enum of the TFLite schema.
type TensorType int8

const (
	Float32    TensorType = 0
	Float16    TensorType = 1
	Int32      TensorType = 2
	UInt8      TensorType = 3
	Int64      TensorType = 4
	String     TensorType = 5
	Bool       TensorType = 6
	Int16      TensorType = 7
	Complex64  TensorType = 8
	Int8       TensorType = 9
	Float64    TensorType = 10
	Complex128 TensorType = 11
	UInt64     TensorType = 12
	Resource   TensorType = 13
	Variant    TensorType = 14
	UInt32     TensorType = 15
	UInt16     TensorType = 16
	Int4       TensorType = 17
	BFloat16   TensorType = 18
)

var tensorTypeNames = map[TensorType]string{
	Float32: "FLOAT32", Float16: "FLOAT16", Int32: "INT32", UInt8: "UINT8", Int64: "INT64",
	String: "STRING", Bool: "BOOL", Int16: "INT16", Complex64: "COMPLEX64", Int8: "INT8",
	Float64: "FLOAT64", Complex128: "COMPLEX128", UInt64: "UINT64", Resource: "RESOURCE",
	Variant: "VARIANT", UInt32: "UINT32", UInt16: "UINT16", Int4: "INT4", BFloat16: "BFLOAT16",
}

func (t TensorType) String() string {
	if name, ok := tensorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TensorType(%d)", int8(t))
}

// Quantization holds per-tensor or per-channel affine parameters.
type Quantization struct {
	Scale     []float32
	ZeroPoint []int64
}

// Tensor describes one tensor of the primary subgraph.
type Tensor struct {
	Index int
	Name  string
	// Shape uses -1 for dimensions the shape signature marks as dynamic.
	Shape        []int64
	Type         TensorType
	Quantization *Quantization
}

// Model is the tensor-level view of a TFLite model.
type Model struct {
	Version     uint32
	Description string
	Subgraphs   int
	Operators   int
	Tensors     int
	Inputs      []Tensor
	Outputs     []Tensor
}

// IsModel reports whether buf carries the TFLite file identifier.
func IsModel(buf []byte) bool {
	return len(buf) >= 8 && flatbuffers.BufferHasIdentifier(buf, FileIdentifier)
}

// Parse decodes the primary subgraph's input and output tensors.
func Parse(buf []byte) (m *Model, err error) {
	if !IsModel(buf) {
		return nil, ErrNotTFLite
	}
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed TFLite flatbuffer: %v", r)
		}
	}()

	var root table
	root.init(buf, flatbuffers.GetUOffsetT(buf))

	m = &Model{
		Version:     root.t.GetUint32Slot(modelVersion, 0),
		Description: root.str(modelDescription),
		Subgraphs:   root.vectorLen(modelSubgraphs),
	}
	var sg table
	if m.Subgraphs == 0 || !root.table(modelSubgraphs, 0, &sg) {
		return nil, errors.New("model has no subgraph")
	}
	m.Tensors = sg.vectorLen(subgraphTensors)
	m.Operators = sg.vectorLen(subgraphOperators)

	if m.Inputs, err = tensorsAt(&sg, sg.int32s(subgraphInputs), m.Tensors); err != nil {
		return nil, err
	}
	if m.Outputs, err = tensorsAt(&sg, sg.int32s(subgraphOutputs), m.Tensors); err != nil {
		return nil, err
	}
	return m, nil
}

func tensorsAt(sg *table, indices []int32, count int) ([]Tensor, error) {
	tensors := make([]Tensor, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || int(idx) >= count {
			return nil, fmt.Errorf("tensor index %d out of range (%d tensors)", idx, count)
		}
		var t table
		sg.table(subgraphTensors, int(idx), &t)
		tensors = append(tensors, readTensor(&t, int(idx)))
	}
	return tensors, nil
}

func readTensor(t *table, index int) Tensor {
	shape := t.int32s(tensorShape)
	signature := t.int32s(tensorShapeSignature)
	dims := make([]int64, len(shape))
	for i, d := range shape {
		dims[i] = int64(d)
		if len(signature) == len(shape) && signature[i] < 0 {
			dims[i] = -1
		}
	}

	out := Tensor{
		Index: index,
		Name:  t.str(tensorName),
		Shape: dims,
		Type:  TensorType(t.t.GetInt8Slot(tensorType, 0)),
	}
	var q table
	if t.child(tensorQuantization, &q) {
		scale := q.float32s(quantScale)
		if len(scale) > 0 {
			out.Quantization = &Quantization{Scale: scale, ZeroPoint: q.int64s(quantZeroPoint)}
		}
	}
	return out
}
