// Package checker validates the structure of an ONNX model.
package checker

import (
	"fmt"
	"strings"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/pkg/opset"
)

// ValidationError lists every structural problem found in a model.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "model validation failed: " + strings.Join(e.Problems, "; ")
}

// Check validates model and returns a *ValidationError when it is malformed.
func Check(model *onnx.ModelProto) error {
	c := &checker{}
	if model.GetIrVersion() <= 0 {
		c.addf("ir_version is not set")
	}
	version, ok := onnx.DefaultOpsetVersion(model)
	if !ok {
		c.addf("model does not import the default operator set")
	}
	if model.GetGraph() == nil {
		c.addf("model has no graph")
	} else {
		if model.GetGraph().GetName() == "" {
			c.addf("graph has no name")
		}
		c.checkGraph(model.GetGraph(), nil, version, ok)
	}
	if len(c.problems) > 0 {
		return &ValidationError{Problems: c.problems}
	}
	return nil
}

type checker struct {
	problems []string
}

func (c *checker) addf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

// checkGraph validates g. outer holds the names visible from enclosing
// graphs.
func (c *checker) checkGraph(g *onnx.GraphProto, outer map[string]bool, version int64, haveVersion bool) {
	defined := make(map[string]bool, len(outer))
	for name := range outer {
		defined[name] = true
	}
	for _, in := range g.GetInput() {
		defined[in.GetName()] = true
	}
	seenInit := make(map[string]bool)
	for _, init := range g.GetInitializer() {
		if seenInit[init.GetName()] {
			c.addf("duplicate initializer %q in graph %q", init.GetName(), g.GetName())
		}
		seenInit[init.GetName()] = true
		defined[init.GetName()] = true
	}

	produced := make(map[string]bool)
	for i, node := range g.GetNode() {
		label := node.GetName()
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		op := node.GetOpType()
		switch {
		case op == "":
			c.addf("node %s has no op_type", label)
		case haveVersion && onnx.IsDefaultDomain(node.GetDomain()) && opset.Known(op):
			if _, ok := opset.SinceVersion(op, version); !ok {
				c.addf("node %s: operator %s is not defined at opset %d", label, op, version)
			}
		}
		for _, in := range node.GetInput() {
			if in != "" && !defined[in] {
				c.addf("node %s: input %q is used before it is defined", label, in)
			}
		}
		for _, attr := range node.GetAttribute() {
			if sub := attr.GetG(); sub != nil {
				c.checkGraph(sub, defined, version, haveVersion)
			}
			for _, sub := range attr.GetGraphs() {
				c.checkGraph(sub, defined, version, haveVersion)
			}
		}
		for _, out := range node.GetOutput() {
			if out == "" {
				continue
			}
			if produced[out] || seenInit[out] {
				c.addf("node %s: output %q is assigned more than once", label, out)
			}
			produced[out] = true
			defined[out] = true
		}
	}

	for _, out := range g.GetOutput() {
		if !defined[out.GetName()] {
			c.addf("graph output %q of graph %q is never produced", out.GetName(), g.GetName())
		}
	}
}
