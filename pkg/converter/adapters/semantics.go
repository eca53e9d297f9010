package adapters

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

// gridSampleModes maps the opset 16 interpolation names to their opset 20
// spelling.
var gridSampleModes = map[string]string{"bilinear": "linear", "bicubic": "cubic"}

func init() {
	registry.Register("GridSample", 19, 20, RenameMode(gridSampleModes))
	registry.Register("GridSample", 20, 19, Chain(RequireRank(0, 4), RenameMode(invert(gridSampleModes))))

	// RoiAlign 16 added coordinate_transformation_mode with a new default.
	registry.Register("RoiAlign", 15, 16, func(node *onnx.NodeProto, _ *registry.ConversionContext) error {
		if onnx.Attribute(node, "coordinate_transformation_mode") == nil {
			onnx.SetStringAttribute(node, "coordinate_transformation_mode", "output_half_pixel")
		}
		return nil
	})
	registry.Register("RoiAlign", 16, 15, func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		attr := onnx.RemoveAttribute(node, "coordinate_transformation_mode")
		if attr == nil || string(attr.GetS()) != "output_half_pixel" {
			return fmt.Errorf("coordinate_transformation_mode half_pixel is not supported at opset %d", ctx.To)
		}
		return nil
	})

	registry.Register("LpPool", 18, 17, Chain(
		RejectAttribute("ceil_mode", intIs(0)),
		RejectAttribute("dilations", intsAll(1)),
	))

	// Scale and bias are per group before opset 21 and per channel from 21.
	registry.Register("GroupNormalization", 20, 21, Unsupported("scale and bias change from per-group to per-channel"))
	registry.Register("GroupNormalization", 21, 20, Unsupported("scale and bias change from per-channel to per-group"))
	// DFT 20 moved axis from an attribute to an input with a new default.
	registry.Register("DFT", 19, 20, Unsupported("axis moves from an attribute to an input"))
	registry.Register("DFT", 20, 19, Unsupported("axis moves from an input to an attribute"))
}

// Unsupported fails every node of the operator with reason.
func Unsupported(reason string) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		return fmt.Errorf("%s between opsets %d and %d", reason, ctx.From, ctx.To)
	}
}

// RenameMode rewrites the node's mode attribute through names.
func RenameMode(names map[string]string) registry.Adapter {
	return func(node *onnx.NodeProto, _ *registry.ConversionContext) error {
		attr := onnx.Attribute(node, "mode")
		if attr == nil {
			// Both defaults are linear interpolation.
			return nil
		}
		if renamed, ok := names[string(attr.GetS())]; ok {
			attr.S = []byte(renamed)
		}
		return nil
	}
}

// RequireRank fails unless input index has the given rank. An unknown rank
// is accepted.
func RequireRank(index, rank int) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		if len(node.GetInput()) <= index {
			return nil
		}
		shape, ok := ctx.ValueShapes[node.GetInput()[index]]
		if ok && len(shape) != rank {
			return fmt.Errorf("input %d has rank %d, opset %d requires %d", index, len(shape), ctx.To, rank)
		}
		return nil
	}
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
