package onnx_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/onnx/onnxtest"
)

func TestDefaultOpsetVersion(t *testing.T) {
	model := onnxtest.ReluModel(22)
	model.OpsetImport = append([]*onnx.OperatorSetIdProto{{Domain: "com.microsoft", Version: 1}}, model.OpsetImport...)

	v, ok := onnx.DefaultOpsetVersion(model)
	require.True(t, ok)
	assert.Equal(t, int64(22), v)

	onnx.SetDefaultOpsetVersion(model, 21)
	v, _ = onnx.DefaultOpsetVersion(model)
	assert.Equal(t, int64(21), v)
	assert.Len(t, model.GetOpsetImport(), 2)

	_, ok = onnx.DefaultOpsetVersion(&onnx.ModelProto{})
	assert.False(t, ok)
}

func TestInt64Data(t *testing.T) {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw[0:], 3)
	binary.LittleEndian.PutUint64(raw[8:], uint64(0xFFFFFFFFFFFFFFFF))

	tests := []struct {
		name    string
		tensor  *onnx.TensorProto
		want    []int64
		wantErr bool
	}{
		{"int64 field", onnx.NewInt64Initializer("a", []int64{1, 2}), []int64{1, 2}, false},
		{"int32 field", &onnx.TensorProto{DataType: onnx.DataTypeInt32, Int32Data: []int32{-1, 5}}, []int64{-1, 5}, false},
		{"raw int64", &onnx.TensorProto{DataType: onnx.DataTypeInt64, RawData: raw}, []int64{3, -1}, false},
		{"raw bad length", &onnx.TensorProto{DataType: onnx.DataTypeInt64, RawData: raw[:5]}, nil, true},
		{"float tensor", &onnx.TensorProto{DataType: onnx.DataTypeFloat}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := onnx.Int64Data(tt.tensor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributes(t *testing.T) {
	node := onnxtest.Node("Squeeze", []string{"x"}, []string{"y"}, onnxtest.Ints("axes", 0))

	onnx.SetIntAttribute(node, "keepdims", 1)
	require.NotNil(t, onnx.Attribute(node, "keepdims"))
	assert.Equal(t, int64(1), onnx.Attribute(node, "keepdims").GetI())

	removed := onnx.RemoveAttribute(node, "axes")
	require.NotNil(t, removed)
	assert.Equal(t, []int64{0}, removed.GetInts())
	assert.Nil(t, onnx.Attribute(node, "axes"))
	assert.Nil(t, onnx.RemoveAttribute(node, "axes"))
}

func TestValueTypesAndShapes(t *testing.T) {
	g := onnxtest.Graph("g",
		nil,
		[]*onnx.ValueInfoProto{onnxtest.Value("x", onnx.DataTypeUint8, -1, 224, 224, 3)},
		[]*onnx.ValueInfoProto{onnxtest.Value("y", onnx.DataTypeFloat, 1, 1000)},
		onnx.NewInt64Initializer("axes", []int64{0}),
	)

	types := onnx.ValueTypes(g)
	assert.Equal(t, onnx.DataTypeUint8, types["x"])
	assert.Equal(t, onnx.DataTypeInt64, types["axes"])

	shapes := onnx.ValueShapes(g)
	assert.Equal(t, []int64{-1, 224, 224, 3}, shapes["x"])
	assert.Equal(t, []int64{1}, shapes["axes"])
}

func TestWalkGraphs(t *testing.T) {
	body := onnxtest.Graph("body", []*onnx.NodeProto{onnxtest.Node("Relu", []string{"a"}, []string{"b"})}, nil, nil)
	ifNode := onnxtest.Node("If", []string{"cond"}, []string{"out"},
		&onnx.AttributeProto{Name: "then_branch", Type: onnx.AttributeProto_GRAPH, G: body})
	root := onnxtest.Graph("root", []*onnx.NodeProto{ifNode}, nil, nil)

	var names []string
	err := onnx.WalkGraphs(root, func(g *onnx.GraphProto) error {
		names = append(names, g.GetName())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "body"}, names)
}
