package adapters

import (
	"errors"
	"fmt"
	"math"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

func init() {
	registry.Register("Clip", 10, 11, ClipToInputs)
	registry.Register("Clip", 11, 10, ClipToAttributes)
	registry.Register("Dropout", 11, 12, DropoutRatioToInput)
	registry.Register("Dropout", 12, 11, DropoutRatioToAttribute)
}

// ClipToInputs moves the min and max attributes into scalar inputs.
func ClipToInputs(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	if len(node.GetInput()) == 0 {
		return errors.New("node has no data input")
	}
	if t, ok := ctx.ValueTypes[node.GetInput()[0]]; ok && t != onnx.DataTypeFloat {
		return fmt.Errorf("min/max inputs for element type %s are not supported", onnx.DataTypeName(t))
	}
	lo := onnx.RemoveAttribute(node, "min")
	hi := onnx.RemoveAttribute(node, "max")
	inputs := []string{node.GetInput()[0], "", ""}
	if lo != nil {
		inputs[1] = ctx.AddInitializer(baseName(node)+"_min", onnx.NewFloatInitializer("", lo.GetF()))
	}
	if hi != nil {
		inputs[2] = ctx.AddInitializer(baseName(node)+"_max", onnx.NewFloatInitializer("", hi.GetF()))
	}
	for len(inputs) > 1 && inputs[len(inputs)-1] == "" {
		inputs = inputs[:len(inputs)-1]
	}
	node.Input = inputs
	return nil
}

// ClipToAttributes folds constant min and max inputs into attributes.
func ClipToAttributes(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	bounds := []struct {
		attr     string
		fallback float32
	}{{"min", -math.MaxFloat32}, {"max", math.MaxFloat32}}

	var consumed []string
	for i, bound := range bounds {
		if len(node.GetInput()) <= i+1 || node.GetInput()[i+1] == "" {
			continue
		}
		name := node.GetInput()[i+1]
		v, err := constantFloat(ctx, name)
		if err != nil {
			return err
		}
		if v != bound.fallback {
			node.Attribute = append(node.Attribute, &onnx.AttributeProto{Name: bound.attr, Type: onnx.AttributeProto_FLOAT, F: v})
		}
		consumed = append(consumed, name)
	}
	node.Input = node.Input[:1]
	for _, name := range consumed {
		ctx.DropInitializerIfUnused(name)
	}
	return nil
}

// DropoutRatioToInput moves the ratio attribute into the optional second
// input.
func DropoutRatioToInput(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	attr := onnx.RemoveAttribute(node, "ratio")
	if attr == nil {
		return nil
	}
	name := ctx.AddInitializer(baseName(node)+"_ratio", onnx.NewFloatInitializer("", attr.GetF()))
	node.Input = append(node.Input[:1], name)
	return nil
}

// DropoutRatioToAttribute folds a constant ratio input into the attribute.
// Opset 11 has no training_mode input, so a node that sets it is rejected.
func DropoutRatioToAttribute(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
	if len(node.GetInput()) > 2 && node.GetInput()[2] != "" {
		return errors.New("training_mode input is not supported at opset 11")
	}
	onnx.RemoveAttribute(node, "seed")
	if len(node.GetInput()) < 2 || node.GetInput()[1] == "" {
		node.Input = node.Input[:1]
		return nil
	}
	name := node.GetInput()[1]
	ratio, err := constantFloat(ctx, name)
	if err != nil {
		return err
	}
	node.Input = node.Input[:1]
	node.Attribute = append(node.Attribute, &onnx.AttributeProto{Name: "ratio", Type: onnx.AttributeProto_FLOAT, F: ratio})
	ctx.DropInitializerIfUnused(name)
	return nil
}
