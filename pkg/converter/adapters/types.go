package adapters

import (
	"fmt"
	"slices"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

var (
	bfloat16Types = []int32{onnx.DataTypeBFloat16}
	int4Types     = []int32{onnx.DataTypeInt4, onnx.DataTypeUint4}
	float8Types   = []int32{
		onnx.DataTypeFloat8E4M3FN, onnx.DataTypeFloat8E4M3FNUZ,
		onnx.DataTypeFloat8E5M2, onnx.DataTypeFloat8E5M2FNUZ,
	}
	smallIntTypes  = []int32{onnx.DataTypeUint8, onnx.DataTypeInt8, onnx.DataTypeUint16, onnx.DataTypeInt16}
	signedIntTypes = []int32{onnx.DataTypeInt8, onnx.DataTypeInt16, onnx.DataTypeInt32, onnx.DataTypeInt64}
	intTypes       = []int32{
		onnx.DataTypeInt8, onnx.DataTypeInt16, onnx.DataTypeInt32, onnx.DataTypeInt64,
		onnx.DataTypeUint8, onnx.DataTypeUint16, onnx.DataTypeUint32, onnx.DataTypeUint64,
	}
)

func init() {
	// Boundaries at which most schema changes only added element types.
	registry.Register(registry.AnyOp, 22, 21, RestrictTypes(bfloat16Types...))
	registry.Register(registry.AnyOp, 21, 20, RestrictTypes(int4Types...))
	registry.Register(registry.AnyOp, 19, 18, RestrictTypes(float8Types...))
	registry.Register(registry.AnyOp, 13, 12, RestrictTypes(bfloat16Types...))

	for _, op := range []string{"Add", "Sub", "Mul", "Div"} {
		registry.Register(op, 14, 13, RestrictTypes(smallIntTypes...))
	}
	registry.Register("Relu", 14, 13, RestrictTypes(signedIntTypes...))
	registry.Register("Clip", 12, 11, RestrictTypes(intTypes...))
	registry.Register("ReduceMax", 20, 19, RestrictTypes(onnx.DataTypeBool))
	registry.Register("ReduceMin", 20, 19, RestrictTypes(onnx.DataTypeBool))
	for _, op := range []string{"IsNaN", "IsInf"} {
		registry.Register(op, 20, 19, RestrictTypes(float8Types...))
	}
	registry.Register("ConstantOfShape", 20, 19, RestrictTypes(append(slices.Clone(float8Types), onnx.DataTypeBFloat16)...))

	for _, op := range []string{"Cast", "CastLike"} {
		registry.Register(op, 19, 18, Chain(RestrictTypes(float8Types...), RemoveAttributes("saturate")))
	}
	for _, op := range []string{"QuantizeLinear", "DequantizeLinear"} {
		registry.Register(op, 21, 20, Chain(
			RestrictTypes(int4Types...),
			RejectAttribute("block_size", intIs(0)),
			RejectAttribute("output_dtype", intIs(0)),
		))
	}
	registry.Register("QuantizeLinear", 19, 18, Chain(RestrictTypes(float8Types...), RemoveAttributes("saturate")))
}

// RestrictTypes fails when any value the node reads or writes, or any type
// the node is asked to produce, has one of the element types removed by the
// step. Values without a declared type are assumed to be supported.
func RestrictTypes(removed ...int32) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		for _, names := range [][]string{node.GetInput(), node.GetOutput()} {
			for _, name := range names {
				if name == "" {
					continue
				}
				if t, ok := ctx.ValueTypes[name]; ok && slices.Contains(removed, t) {
					return fmt.Errorf("value %q has element type %s, which opset %d does not support",
						name, onnx.DataTypeName(t), ctx.To)
				}
			}
		}
		for _, name := range []string{"to", "output_dtype"} {
			if attr := onnx.Attribute(node, name); attr != nil && slices.Contains(removed, int32(attr.GetI())) {
				return fmt.Errorf("attribute %s=%s is not supported at opset %d",
					name, onnx.DataTypeName(int32(attr.GetI())), ctx.To)
			}
		}
		if attr := onnx.Attribute(node, "value"); attr != nil && attr.GetT() != nil &&
			slices.Contains(removed, attr.GetT().GetDataType()) {
			return fmt.Errorf("constant value has element type %s, which opset %d does not support",
				onnx.DataTypeName(attr.GetT().GetDataType()), ctx.To)
		}
		return nil
	}
}
