package adapters

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

func init() {
	registry.Register("Split", 12, 13, SplitToInput)
	registry.Register("Split", 13, 12, Chain(RestrictTypes(bfloat16Types...), SplitToAttribute))
	registry.Register("Split", 17, 18, AddNumOutputs)
	registry.Register("Split", 18, 17, RemoveNumOutputs)
}

// SplitToInput moves the split attribute into the optional second input.
func SplitToInput(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	attr := onnx.RemoveAttribute(node, "split")
	if attr == nil {
		return nil
	}
	name := ctx.AddInitializer(baseName(node)+"_split", onnx.NewInt64Initializer("", attr.GetInts()))
	node.Input = append(node.Input[:1], name)
	return nil
}

// SplitToAttribute folds a constant split input into the split attribute.
func SplitToAttribute(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	if len(node.GetInput()) < 2 || node.GetInput()[1] == "" {
		if len(node.GetInput()) > 1 {
			node.Input = node.Input[:1]
		}
		return nil
	}
	name := node.GetInput()[1]
	split, err := constantInts(ctx, name)
	if err != nil {
		return err
	}
	node.Input = node.Input[:1]
	onnx.SetIntsAttribute(node, "split", split)
	ctx.DropInitializerIfUnused(name)
	return nil
}

// AddNumOutputs sets num_outputs on an equal split, which opset 18 requires
// when the split sizes are not given.
func AddNumOutputs(node *onnx.NodeProto, _ *registry.ConversionContext) error {
	if len(node.GetInput()) > 1 && node.GetInput()[1] != "" {
		return nil
	}
	onnx.SetIntAttribute(node, "num_outputs", int64(len(node.GetOutput())))
	return nil
}

// RemoveNumOutputs drops num_outputs. Opset 17 splits into equal parts, so a
// known dimension that does not divide evenly cannot be converted.
func RemoveNumOutputs(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	attr := onnx.RemoveAttribute(node, "num_outputs")
	if attr == nil || (len(node.GetInput()) > 1 && node.GetInput()[1] != "") {
		return nil
	}
	parts := attr.GetI()
	if parts != int64(len(node.GetOutput())) {
		return fmt.Errorf("num_outputs=%d does not match %d outputs", parts, len(node.GetOutput()))
	}
	shape, ok := ctx.ValueShapes[node.GetInput()[0]]
	if !ok || len(shape) == 0 {
		return nil
	}
	axis := int64(0)
	if a := onnx.Attribute(node, "axis"); a != nil {
		axis = a.GetI()
	}
	if axis < 0 {
		axis += int64(len(shape))
	}
	if axis < 0 || axis >= int64(len(shape)) {
		return fmt.Errorf("axis %d is out of range for rank %d", axis, len(shape))
	}
	if dim := shape[axis]; dim > 0 && dim%parts != 0 {
		return fmt.Errorf("dimension %d does not split evenly into %d outputs", dim, parts)
	}
	return nil
}
