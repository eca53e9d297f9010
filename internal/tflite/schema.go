package tflite

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Readers for the subset of the TFLite flatbuffer schema (schema.fbs) that
// describes a model's tensors. Field offsets are vtable slots: 4 + 2*id.

const (
	modelVersion     = 4
	modelSubgraphs   = 8
	modelDescription = 10

	subgraphTensors   = 4
	subgraphInputs    = 6
	subgraphOutputs   = 8
	subgraphOperators = 10
	subgraphName      = 12

	tensorShape          = 4
	tensorType           = 6
	tensorName           = 10
	tensorQuantization   = 12
	tensorShapeSignature = 18

	quantScale     = 8
	quantZeroPoint = 10
)

type table struct {
	t flatbuffers.Table
}

func (r *table) init(buf []byte, pos flatbuffers.UOffsetT) {
	r.t.Bytes = buf
	r.t.Pos = pos
}

func (r *table) vectorLen(slot flatbuffers.VOffsetT) int {
	if o := flatbuffers.UOffsetT(r.t.Offset(slot)); o != 0 {
		return r.t.VectorLen(o)
	}
	return 0
}

func (r *table) table(slot flatbuffers.VOffsetT, j int, obj *table) bool {
	o := flatbuffers.UOffsetT(r.t.Offset(slot))
	if o == 0 {
		return false
	}
	x := r.t.Vector(o) + flatbuffers.UOffsetT(j)*4
	obj.init(r.t.Bytes, r.t.Indirect(x))
	return true
}

func (r *table) child(slot flatbuffers.VOffsetT, obj *table) bool {
	o := flatbuffers.UOffsetT(r.t.Offset(slot))
	if o == 0 {
		return false
	}
	obj.init(r.t.Bytes, r.t.Indirect(o+r.t.Pos))
	return true
}

func (r *table) str(slot flatbuffers.VOffsetT) string {
	if o := flatbuffers.UOffsetT(r.t.Offset(slot)); o != 0 {
		return string(r.t.ByteVector(o + r.t.Pos))
	}
	return ""
}

func (r *table) int32s(slot flatbuffers.VOffsetT) []int32 {
	o := flatbuffers.UOffsetT(r.t.Offset(slot))
	if o == 0 {
		return nil
	}
	n := r.t.VectorLen(o)
	a := r.t.Vector(o)
	out := make([]int32, n)
	for j := range out {
		out[j] = r.t.GetInt32(a + flatbuffers.UOffsetT(j*4))
	}
	return out
}

func (r *table) int64s(slot flatbuffers.VOffsetT) []int64 {
	o := flatbuffers.UOffsetT(r.t.Offset(slot))
	if o == 0 {
		return nil
	}
	n := r.t.VectorLen(o)
	a := r.t.Vector(o)
	out := make([]int64, n)
	for j := range out {
		out[j] = r.t.GetInt64(a + flatbuffers.UOffsetT(j*8))
	}
	return out
}

func (r *table) float32s(slot flatbuffers.VOffsetT) []float32 {
	o := flatbuffers.UOffsetT(r.t.Offset(slot))
	if o == 0 {
		return nil
	}
	n := r.t.VectorLen(o)
	a := r.t.Vector(o)
	out := make([]float32, n)
	for j := range out {
		out[j] = r.t.GetFloat32(a + flatbuffers.UOffsetT(j*4))
	}
	return out
}
