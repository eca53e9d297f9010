package adapters

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/registry"
)

func init() {
	registry.Register("AveragePool", 19, 18, RejectAttribute("dilations", intsAll(1)))
	registry.Register("Resize", 19, 18, RejectCoordinateMode("half_pixel_symmetric"))
	registry.Register("Resize", 18, 17, Chain(
		RejectAttribute("antialias", intIs(0)),
		RejectAttribute("axes", func(*onnx.AttributeProto) bool { return false }),
		RejectAttribute("keep_aspect_ratio_policy", stringIs("stretch")),
	))
	registry.Register("Equal", 19, 18, RestrictTypes(onnx.DataTypeString))
	registry.Register("Pad", 19, 18, CheckAttribute("mode", func(attr *onnx.AttributeProto) bool {
		return string(attr.GetS()) != "wrap"
	}))
	registry.Register("Pad", 18, 17, RejectInput(3, "axes"))
	for _, op := range []string{"ScatterElements", "ScatterND"} {
		registry.Register(op, 18, 17, CheckAttribute("reduction", func(attr *onnx.AttributeProto) bool {
			r := string(attr.GetS())
			return r != "max" && r != "min"
		}))
	}
	for _, op := range []string{"ArgMax", "ArgMin"} {
		registry.Register(op, 12, 11, RejectAttribute("select_last_index", intIs(0)))
	}
}

// RejectCoordinateMode fails when the node's coordinate_transformation_mode is
// mode, which the target opset does not define.
func RejectCoordinateMode(mode string) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		if attr := onnx.Attribute(node, "coordinate_transformation_mode"); attr != nil && string(attr.GetS()) == mode {
			return fmt.Errorf("coordinate_transformation_mode %q is not supported at opset %d", mode, ctx.To)
		}
		return nil
	}
}
