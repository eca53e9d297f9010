// Package tflitetest builds minimal TFLite flatbuffers for tests.
package tflitetest

import (
	"os"
	"path/filepath"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/zerfoo/zmodel/internal/tflite"
)

// Tensor describes a tensor to serialise. A zero Scale writes no
// quantization table; a non-nil Signature is written as shape_signature.
type Tensor struct {
	Name      string
	Shape     []int32
	Signature []int32
	Type      tflite.TensorType
	Scale     float32
	ZeroPoint int64
}

// Build returns a TFLite model with one subgraph whose tensors are inputs
// followed by outputs.
func Build(inputs, outputs []Tensor) []byte {
	all := append(append([]Tensor(nil), inputs...), outputs...)
	inIdx := make([]int32, len(inputs))
	for i := range inputs {
		inIdx[i] = int32(i)
	}
	outIdx := make([]int32, len(outputs))
	for i := range outputs {
		outIdx[i] = int32(len(inputs) + i)
	}
	return build(all, inIdx, outIdx)
}

// BuildPassthrough returns an operator-free model whose single tensor is both
// the input and the output, so invoking it echoes the input back.
func BuildPassthrough(t Tensor) []byte {
	return build([]Tensor{t}, []int32{0}, []int32{0})
}

func build(all []Tensor, inIdx, outIdx []int32) []byte {
	b := flatbuffers.NewBuilder(1024)

	offsets := make([]flatbuffers.UOffsetT, len(all))
	for i, t := range all {
		offsets[i] = buildTensor(b, t)
	}
	tensors := b.CreateVectorOfTables(offsets)
	inVec := int32Vector(b, inIdx)
	outVec := int32Vector(b, outIdx)
	operators := b.CreateVectorOfTables(nil)
	name := b.CreateString("main")

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, tensors, 0)
	b.PrependUOffsetTSlot(1, inVec, 0)
	b.PrependUOffsetTSlot(2, outVec, 0)
	b.PrependUOffsetTSlot(3, operators, 0)
	b.PrependUOffsetTSlot(4, name, 0)
	subgraph := b.EndObject()
	subgraphs := b.CreateVectorOfTables([]flatbuffers.UOffsetT{subgraph})
	opcodes := b.CreateVectorOfTables(nil)
	desc := b.CreateString("tflitetest")

	// Buffer 0 is the empty sentinel every tensor without data points at.
	b.StartObject(1)
	buffer := b.EndObject()
	buffers := b.CreateVectorOfTables([]flatbuffers.UOffsetT{buffer})

	b.StartObject(5)
	b.PrependUint32Slot(0, 3, 0)
	b.PrependUOffsetTSlot(1, opcodes, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	b.PrependUOffsetTSlot(3, desc, 0)
	b.PrependUOffsetTSlot(4, buffers, 0)
	model := b.EndObject()
	b.FinishWithFileIdentifier(model, []byte(tflite.FileIdentifier))
	return b.FinishedBytes()
}

// Write builds a model into dir/name and returns its path.
func Write(t testing.TB, dir, name string, inputs, outputs []Tensor) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(inputs, outputs), 0o644); err != nil {
		t.Fatalf("failed to write TFLite model: %v", err)
	}
	return path
}

func buildTensor(b *flatbuffers.Builder, t Tensor) flatbuffers.UOffsetT {
	name := b.CreateString(t.Name)
	shape := int32Vector(b, t.Shape)
	var signature, quant flatbuffers.UOffsetT
	if t.Signature != nil {
		signature = int32Vector(b, t.Signature)
	}
	if t.Scale != 0 {
		b.StartVector(4, 1, 4)
		b.PrependFloat32(t.Scale)
		scale := b.EndVector(1)
		b.StartVector(8, 1, 8)
		b.PrependInt64(t.ZeroPoint)
		zeroPoint := b.EndVector(1)

		b.StartObject(4)
		b.PrependUOffsetTSlot(2, scale, 0)
		b.PrependUOffsetTSlot(3, zeroPoint, 0)
		quant = b.EndObject()
	}

	b.StartObject(8)
	b.PrependUOffsetTSlot(0, shape, 0)
	b.PrependInt8Slot(1, int8(t.Type), 0)
	b.PrependUOffsetTSlot(3, name, 0)
	if quant != 0 {
		b.PrependUOffsetTSlot(4, quant, 0)
	}
	if signature != 0 {
		b.PrependUOffsetTSlot(7, signature, 0)
	}
	return b.EndObject()
}

func int32Vector(b *flatbuffers.Builder, v []int32) flatbuffers.UOffsetT {
	b.StartVector(4, len(v), 4)
	for i := len(v) - 1; i >= 0; i-- {
		b.PrependInt32(v[i])
	}
	return b.EndVector(len(v))
}
