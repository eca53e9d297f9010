// Package adapters registers the per-operator rewrites the version converter
// applies when an operator's schema changes between adjacent opsets.
package adapters

import (
	"fmt"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/opset"
	"github.com/zerfoo/zmodel/pkg/registry"
)

// Opsets 10 and 11 changed these operators only by widening accepted inputs
// or adding attributes whose defaults keep the old behaviour.
var (
	compatibleAt10 = []string{"AveragePool", "Dropout", "MaxPool"}
	compatibleAt11 = []string{
		"ArgMax", "ArgMin", "AveragePool", "Concat", "Constant", "Conv", "ConvTranspose",
		"DepthToSpace", "Equal", "Flatten", "Gather", "Gemm", "Hardmax", "If", "LogSoftmax",
		"Loop", "MaxPool", "NonMaxSuppression", "ReduceL1", "ReduceL2", "ReduceLogSum",
		"ReduceLogSumExp", "ReduceMax", "ReduceMean", "ReduceMin", "ReduceProd", "ReduceSum",
		"ReduceSumSquare", "Slice", "Softmax", "Split", "Squeeze", "TopK", "Unsqueeze",
	}
)

func init() {
	// From opset 12 on, schema changes are backward compatible upgrades
	// except where an operator registers its own adapter.
	for from := int64(11); from < opset.MaxVersion; from++ {
		registry.Register(registry.AnyOp, from, from+1, Compatible)
	}
	for _, op := range compatibleAt10 {
		registry.Register(op, 9, 10, Compatible)
	}
	for _, op := range compatibleAt11 {
		registry.Register(op, 10, 11, Compatible)
	}
}

// Compatible leaves the node unchanged.
func Compatible(*onnx.NodeProto, *registry.ConversionContext) error {
	return nil
}

// Chain runs adapters in order and stops at the first error.
func Chain(adapters ...registry.Adapter) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		for _, adapter := range adapters {
			if err := adapter(node, ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// RemoveAttributes drops attributes the target schema does not define.
func RemoveAttributes(names ...string) registry.Adapter {
	return func(node *onnx.NodeProto, _ *registry.ConversionContext) error {
		for _, name := range names {
			onnx.RemoveAttribute(node, name)
		}
		return nil
	}
}

// CheckAttribute fails when the node sets name to a value the target opset
// does not accept.
func CheckAttribute(name string, accepted func(*onnx.AttributeProto) bool) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		if attr := onnx.Attribute(node, name); attr != nil && !accepted(attr) {
			return fmt.Errorf("attribute %s is not supported at opset %d", name, ctx.To)
		}
		return nil
	}
}

// RejectAttribute fails when the node sets name to anything other than its
// default, then removes it.
func RejectAttribute(name string, isDefault func(*onnx.AttributeProto) bool) registry.Adapter {
	return Chain(CheckAttribute(name, isDefault), RemoveAttributes(name))
}

// RejectInput fails when the node feeds its input at position index.
func RejectInput(index int, what string) registry.Adapter {
	return func(node *onnx.NodeProto, ctx *registry.ConversionContext) error {
		if len(node.GetInput()) > index && node.GetInput()[index] != "" {
			return fmt.Errorf("input %s is not supported at opset %d", what, ctx.To)
		}
		if len(node.GetInput()) > index {
			node.Input = node.Input[:index]
		}
		return nil
	}
}

func intIs(v int64) func(*onnx.AttributeProto) bool {
	return func(attr *onnx.AttributeProto) bool { return attr.GetI() == v }
}

func stringIs(v string) func(*onnx.AttributeProto) bool {
	return func(attr *onnx.AttributeProto) bool { return string(attr.GetS()) == v }
}

func intsAll(v int64) func(*onnx.AttributeProto) bool {
	return func(attr *onnx.AttributeProto) bool {
		for _, i := range attr.GetInts() {
			if i != v {
				return false
			}
		}
		return true
	}
}

// baseName is the prefix for initializers an adapter creates for node.
func baseName(node *onnx.NodeProto) string {
	if node.GetName() != "" {
		return node.GetName()
	}
	if len(node.GetOutput()) > 0 {
		return node.GetOutput()[0]
	}
	return node.GetOpType()
}

// constantInts returns the value of an INT64 input that must be an
// initializer.
func constantInts(ctx *registry.ConversionContext, name string) ([]int64, error) {
	init := onnx.Initializer(ctx.Graph, name)
	if init == nil {
		return nil, fmt.Errorf("input %q must be a constant initializer", name)
	}
	return onnx.Int64Data(init)
}

// constantFloat returns the value of a FLOAT scalar input that must be an
// initializer.
func constantFloat(ctx *registry.ConversionContext, name string) (float32, error) {
	init := onnx.Initializer(ctx.Graph, name)
	if init == nil {
		return 0, fmt.Errorf("input %q must be a constant initializer", name)
	}
	data, err := onnx.FloatData(init)
	if err != nil {
		return 0, err
	}
	if len(data) != 1 {
		return 0, fmt.Errorf("input %q must be a scalar, has %d elements", name, len(data))
	}
	return data[0], nil
}
