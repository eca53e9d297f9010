package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/onnx/onnxtest"
)

func TestGetPrefersSpecificAdapter(t *testing.T) {
	var called string
	Register("TestOpA", 5, 4, func(*onnx.NodeProto, *ConversionContext) error { called = "specific"; return nil })
	Register(AnyOp, 5, 4, func(*onnx.NodeProto, *ConversionContext) error { called = "generic"; return nil })
	t.Cleanup(func() {
		delete(registry, Key{"TestOpA", 5, 4})
		delete(registry, Key{AnyOp, 5, 4})
	})

	adapter, ok := Get("TestOpA", 5, 4)
	require.True(t, ok)
	require.NoError(t, adapter(nil, nil))
	assert.Equal(t, "specific", called)

	adapter, ok = Get("TestOpB", 5, 4)
	require.True(t, ok)
	require.NoError(t, adapter(nil, nil))
	assert.Equal(t, "generic", called)

	_, ok = Get("TestOpB", 4, 5)
	assert.False(t, ok)
}

func TestAddInitializerUsesFreshNames(t *testing.T) {
	g := onnxtest.Graph("g", nil, nil, nil, onnx.NewInt64Initializer("axes", []int64{0}))
	ctx := NewConversionContext(g, 12, 13)

	name := ctx.AddInitializer("axes", onnx.NewInt64Initializer("", []int64{1, 2}))
	assert.Equal(t, "axes_1", name)
	assert.Len(t, g.GetInitializer(), 2)
	assert.Equal(t, onnx.DataTypeInt64, ctx.ValueTypes["axes_1"])
	assert.Equal(t, []int64{2}, ctx.ValueShapes["axes_1"])
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Squeeze 12->13", Key{"Squeeze", 12, 13}.String())
}

func TestDropInitializerIfUnused(t *testing.T) {
	g := onnxtest.Graph("g",
		[]*onnx.NodeProto{onnxtest.Node("Squeeze", []string{"x", "shared"}, []string{"y"})},
		nil, nil,
		onnx.NewInt64Initializer("shared", []int64{0}),
		onnx.NewInt64Initializer("orphan", []int64{1}),
	)
	ctx := NewConversionContext(g, 13, 12)

	ctx.DropInitializerIfUnused("shared")
	ctx.DropInitializerIfUnused("orphan")

	require.Len(t, g.GetInitializer(), 1)
	assert.Equal(t, "shared", g.GetInitializer()[0].GetName())
	assert.NotContains(t, ctx.ValueTypes, "orphan")
}
