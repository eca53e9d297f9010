package registry

import (
	"fmt"
	"sort"

	"github.com/zerfoo/zmodel/internal/onnx"
)

// AnyOp registers an adapter for every operator whose schema changes across
// a given opset boundary. Operator-specific adapters take precedence.
const AnyOp = "*"

// ConversionContext holds the graph-level information an adapter needs while
// rewriting one node across one opset step.
type ConversionContext struct {
	Graph       *onnx.GraphProto
	ValueTypes  map[string]int32
	ValueShapes map[string][]int64
	From, To    int64
}

// NewConversionContext indexes g for a step from -> to.
func NewConversionContext(g *onnx.GraphProto, from, to int64) *ConversionContext {
	return &ConversionContext{
		Graph:       g,
		ValueTypes:  onnx.ValueTypes(g),
		ValueShapes: onnx.ValueShapes(g),
		From:        from,
		To:          to,
	}
}

// AddInitializer appends t to the graph under a name unused so far and
// returns that name.
func (c *ConversionContext) AddInitializer(base string, t *onnx.TensorProto) string {
	name := base
	for i := 1; onnx.Initializer(c.Graph, name) != nil; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	t.Name = name
	c.Graph.Initializer = append(c.Graph.Initializer, t)
	c.ValueTypes[name] = t.GetDataType()
	c.ValueShapes[name] = append([]int64(nil), t.GetDims()...)
	return name
}

// DropInitializerIfUnused removes the initializer called name once no node of
// the graph, or of its subgraphs, reads it and it is not a graph output.
func (c *ConversionContext) DropInitializerIfUnused(name string) {
	used := false
	_ = onnx.WalkGraphs(c.Graph, func(g *onnx.GraphProto) error {
		for _, node := range g.GetNode() {
			for _, in := range node.GetInput() {
				if in == name {
					used = true
				}
			}
		}
		for _, out := range g.GetOutput() {
			if out.GetName() == name {
				used = true
			}
		}
		return nil
	})
	if used {
		return
	}
	for i, t := range c.Graph.GetInitializer() {
		if t.GetName() == name {
			c.Graph.Initializer = append(c.Graph.Initializer[:i], c.Graph.Initializer[i+1:]...)
			delete(c.ValueTypes, name)
			delete(c.ValueShapes, name)
			return
		}
	}
}

// Adapter rewrites node in place so that it conforms to the schema at
// ctx.To, or returns an error when that cannot be expressed.
type Adapter func(node *onnx.NodeProto, ctx *ConversionContext) error

// Key identifies the schema transition an adapter handles.
type Key struct {
	OpType   string
	From, To int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s %d->%d", k.OpType, k.From, k.To)
}

// registry holds the mapping from (op_type, from, to) to adapters.
var registry = make(map[Key]Adapter)

// Register adds an adapter for opType between two adjacent opsets.
func Register(opType string, from, to int64, adapter Adapter) {
	registry[Key{OpType: opType, From: from, To: to}] = adapter
}

// Get returns the adapter for opType between from and to, falling back to an
// AnyOp adapter for the same boundary.
func Get(opType string, from, to int64) (Adapter, bool) {
	if adapter, ok := registry[Key{OpType: opType, From: from, To: to}]; ok {
		return adapter, true
	}
	adapter, ok := registry[Key{OpType: AnyOp, From: from, To: to}]
	return adapter, ok
}

// Keys lists the registered transitions in a stable order.
func Keys() []Key {
	keys := make([]Key, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].OpType != keys[j].OpType {
			return keys[i].OpType < keys[j].OpType
		}
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
	return keys
}
