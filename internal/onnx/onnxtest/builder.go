// Package onnxtest builds small ONNX models for tests.
package onnxtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zerfoo/zmodel/internal/onnx"
	"google.golang.org/protobuf/proto"
)

// Model returns a model importing the default domain at opset with the
// given graph.
func Model(opset int64, graph *onnx.GraphProto) *onnx.ModelProto {
	return &onnx.ModelProto{
		IrVersion:    10,
		ProducerName: "onnxtest",
		OpsetImport:  []*onnx.OperatorSetIdProto{{Domain: "", Version: opset}},
		Graph:        graph,
	}
}

// Graph returns a named graph.
func Graph(name string, nodes []*onnx.NodeProto, inputs, outputs []*onnx.ValueInfoProto, initializers ...*onnx.TensorProto) *onnx.GraphProto {
	return &onnx.GraphProto{
		Name:        name,
		Node:        nodes,
		Input:       inputs,
		Output:      outputs,
		Initializer: initializers,
	}
}

// Node returns a default-domain node.
func Node(opType string, inputs, outputs []string, attrs ...*onnx.AttributeProto) *onnx.NodeProto {
	return &onnx.NodeProto{
		Name:      opType + "_" + outputs[0],
		OpType:    opType,
		Input:     inputs,
		Output:    outputs,
		Attribute: attrs,
	}
}

// Value describes a tensor value; negative dims become symbolic dimensions.
func Value(name string, elemType int32, dims ...int64) *onnx.ValueInfoProto {
	shape := &onnx.TensorShapeProto{}
	for _, d := range dims {
		dim := &onnx.TensorShapeProto_Dimension{}
		if d < 0 {
			dim.Value = &onnx.TensorShapeProto_Dimension_DimParam{DimParam: "batch"}
		} else {
			dim.Value = &onnx.TensorShapeProto_Dimension_DimValue{DimValue: d}
		}
		shape.Dim = append(shape.Dim, dim)
	}
	return &onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{
			Value: &onnx.TypeProto_TensorType{
				TensorType: &onnx.TypeProto_Tensor{ElemType: elemType, Shape: shape},
			},
		},
	}
}

// Ints returns an INTS attribute.
func Ints(name string, v ...int64) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: name, Type: onnx.AttributeProto_INTS, Ints: v}
}

// Int returns an INT attribute.
func Int(name string, v int64) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: name, Type: onnx.AttributeProto_INT, I: v}
}

// Float returns a FLOAT attribute.
func Float(name string, v float32) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: name, Type: onnx.AttributeProto_FLOAT, F: v}
}

// String returns a STRING attribute.
func String(name, v string) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: name, Type: onnx.AttributeProto_STRING, S: []byte(v)}
}

// Write marshals model into dir/name and returns the path.
func Write(t testing.TB, dir, name string, model *onnx.ModelProto) string {
	t.Helper()
	data, err := proto.Marshal(model)
	if err != nil {
		t.Fatalf("failed to marshal ONNX model: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write ONNX model: %v", err)
	}
	return path
}

// ReluModel is a one-node float32 model at the given opset.
func ReluModel(opset int64) *onnx.ModelProto {
	return Model(opset, Graph("relu",
		[]*onnx.NodeProto{Node("Relu", []string{"x"}, []string{"y"})},
		[]*onnx.ValueInfoProto{Value("x", onnx.DataTypeFloat, 1, 4)},
		[]*onnx.ValueInfoProto{Value("y", onnx.DataTypeFloat, 1, 4)},
	))
}
