package adapters

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

func init() {
	for _, op := range []string{"Softmax", "LogSoftmax", "Hardmax"} {
		registry.Register(op, 12, 13, SoftmaxAxis(1))
		registry.Register(op, 13, 12, Chain(RestrictTypes(bfloat16Types...), SoftmaxAxis(-1)))
	}
}

// SoftmaxAxis converts between the coerced-2D semantics of opset 12 and the
// single-axis semantics of opset 13. The two agree only when the axis is the
// last one, so the node is rewritten to name -1 explicitly. defaultAxis is
// the axis the source schema assumes when the attribute is absent.
func SoftmaxAxis(defaultAxis int64) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		axis := defaultAxis
		if attr := onnx.Attribute(node, "axis"); attr != nil {
			axis = attr.GetI()
		}
		if axis != -1 {
			if len(node.GetInput()) == 0 {
				return fmt.Errorf("node has no data input")
			}
			shape, ok := ctx.ValueShapes[node.GetInput()[0]]
			if !ok {
				return fmt.Errorf("axis %d needs a known input rank to convert", axis)
			}
			if axis != int64(len(shape))-1 {
				return fmt.Errorf("only softmax over the last axis is convertible, got axis %d of rank %d", axis, len(shape))
			}
		}
		onnx.SetIntAttribute(node, "axis", -1)
		return nil
	}
}
