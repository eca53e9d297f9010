package adapters

import (
	"errors"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

func init() {
	for _, op := range []string{"Squeeze", "Unsqueeze", "ReduceSum"} {
		registry.Register(op, 12, 13, AxesToInput)
		registry.Register(op, 13, 12, Chain(RestrictTypes(bfloat16Types...), AxesToAttribute))
	}
	for _, op := range []string{
		"ReduceL1", "ReduceL2", "ReduceLogSum", "ReduceLogSumExp", "ReduceMax",
		"ReduceMean", "ReduceMin", "ReduceProd", "ReduceSumSquare",
	} {
		registry.Register(op, 17, 18, AxesToInput)
		registry.Register(op, 18, 17, AxesToAttribute)
	}
}

// AxesToInput moves the axes attribute into an INT64 initializer passed as
// the second input.
func AxesToInput(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	attr := onnx.RemoveAttribute(node, "axes")
	if attr == nil {
		return nil
	}
	if len(node.GetInput()) == 0 {
		return errors.New("node has no data input")
	}
	name := ctx.AddInitializer(baseName(node)+"_axes", onnx.NewInt64Initializer("", attr.GetInts()))
	node.Input = append(node.Input[:1], name)
	return nil
}

// AxesToAttribute folds a constant axes input back into the axes attribute.
func AxesToAttribute(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	noop := onnx.RemoveAttribute(node, "noop_with_empty_axes")
	keepEmpty := noop != nil && noop.GetI() != 0

	if len(node.GetInput()) < 2 || node.GetInput()[1] == "" {
		if keepEmpty {
			return errors.New("noop_with_empty_axes=1 without axes has no equivalent")
		}
		if len(node.GetInput()) > 1 {
			node.Input = node.Input[:1]
		}
		return nil
	}

	name := node.GetInput()[1]
	axes, err := constantInts(ctx, name)
	if err != nil {
		return err
	}
	if len(axes) == 0 && keepEmpty {
		return errors.New("noop_with_empty_axes=1 with empty axes has no equivalent")
	}
	node.Input = node.Input[:1]
	if len(axes) > 0 {
		onnx.SetIntsAttribute(node, "axes", axes)
	}
	ctx.DropInitializerIfUnused(name)
	return nil
}
