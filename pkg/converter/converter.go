package converter

import (
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/proto"

	"github.com/zerfoo/zmodel/internal/onnx"
	_ "github.com/zerfoo/zmodel/pkg/converter/adapters" // registers the opset adapters
	"github.com/zerfoo/zmodel/pkg/opset"
	"github.com/zerfoo/zmodel/pkg/registry"
)

// ErrConversion is returned when a model cannot be expressed at the target
// opset.
var ErrConversion = errors.New("opset conversion failed")

// Option configures ConvertVersion.
type Option func(*conversion)

// WithLogger sets the logger that receives conversion warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *conversion) {
		c.logger = logger
	}
}

type conversion struct {
	logger  *slog.Logger
	// unknown records the operators already reported as missing from the
	// schema table.
	unknown map[string]bool
}

// ConvertVersion returns a copy of model whose default-domain operators
// conform to opset target. The input model is not modified.
//
// The conversion moves one opset at a time. For each step, every node whose
// schema differs between the two versions is rewritten by the adapter
// registered for that transition. Operators absent from the schema table are
// left unchanged and reported through the logger.
func ConvertVersion(model *onnx.ModelProto, target int64, opts ...Option) (*onnx.ModelProto, error) {
	if model.GetGraph() == nil {
		return nil, fmt.Errorf("%w: model graph is nil", ErrConversion)
	}
	if target < opset.MinVersion || target > opset.MaxVersion {
		return nil, fmt.Errorf("%w: target opset %d is outside the supported range %d-%d",
			ErrConversion, target, opset.MinVersion, opset.MaxVersion)
	}
	current, ok := onnx.DefaultOpsetVersion(model)
	if !ok {
		return nil, fmt.Errorf("%w: model does not import the default operator set", ErrConversion)
	}
	if current < opset.MinVersion || current > opset.MaxVersion {
		return nil, fmt.Errorf("%w: source opset %d is outside the supported range %d-%d",
			ErrConversion, current, opset.MinVersion, opset.MaxVersion)
	}

	converted := proto.Clone(model).(*onnx.ModelProto)
	if current == target {
		return converted, nil
	}

	c := &conversion{logger: slog.Default(), unknown: make(map[string]bool)}
	for _, opt := range opts {
		opt(c)
	}

	step := int64(1)
	if target < current {
		step = -1
	}
	for from := current; from != target; from += step {
		to := from + step
		err := onnx.WalkGraphs(converted.GetGraph(), func(g *onnx.GraphProto) error {
			return c.convertGraph(g, from, to)
		})
		if err != nil {
			return nil, err
		}
		onnx.SetDefaultOpsetVersion(converted, to)
	}
	return converted, nil
}

func (c *conversion) convertGraph(g *onnx.GraphProto, from, to int64) error {
	var ctx *registry.ConversionContext
	for _, node := range g.GetNode() {
		if !onnx.IsDefaultDomain(node.GetDomain()) {
			continue
		}
		op := node.GetOpType()
		if !opset.Known(op) {
			if !c.unknown[op] {
				c.unknown[op] = true
				c.logger.Warn("operator not in schema table, left unchanged",
					slog.String("op", op), slog.String("node", node.GetName()))
			}
			continue
		}
		sinceFrom, ok := opset.SinceVersion(op, from)
		if !ok {
			return fmt.Errorf("%w: operator %s is not defined at opset %d (node %q)", ErrConversion, op, from, node.GetName())
		}
		sinceTo, ok := opset.SinceVersion(op, to)
		if !ok {
			return fmt.Errorf("%w: operator %s is not defined at opset %d (node %q)", ErrConversion, op, to, node.GetName())
		}
		if sinceFrom == sinceTo {
			continue
		}
		adapter, ok := registry.Get(op, from, to)
		if !ok {
			return fmt.Errorf("%w: no adapter for %s from opset %d to %d (node %q)", ErrConversion, op, from, to, node.GetName())
		}
		if ctx == nil {
			ctx = registry.NewConversionContext(g, from, to)
		}
		if err := adapter(node, ctx); err != nil {
			return fmt.Errorf("%w: %s from opset %d to %d (node %q): %w", ErrConversion, op, from, to, node.GetName(), err)
		}
	}
	return nil
}
