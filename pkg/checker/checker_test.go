package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/onnx/onnxtest"
)

func TestCheckValidModel(t *testing.T) {
	assert.NoError(t, Check(onnxtest.ReluModel(21)))
}

func TestCheckAcceptsOperatorsOutsideSchemaTable(t *testing.T) {
	model := onnxtest.ReluModel(21)
	model.Graph.Node[0].OpType = "FancyAttention"
	assert.NoError(t, Check(model))

	model.Graph.Node[0].OpType = "CumSum"
	assert.NoError(t, Check(model))
}

func TestCheckProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*onnx.ModelProto)
		want   string
	}{
		{"missing ir version", func(m *onnx.ModelProto) { m.IrVersion = 0 }, "ir_version"},
		{"missing opset import", func(m *onnx.ModelProto) { m.OpsetImport = nil }, "default operator set"},
		{"missing graph", func(m *onnx.ModelProto) { m.Graph = nil }, "no graph"},
		{"unnamed graph", func(m *onnx.ModelProto) { m.Graph.Name = "" }, "no name"},
		{"undefined input", func(m *onnx.ModelProto) { m.Graph.Node[0].Input = []string{"nope"} }, `input "nope"`},
		{"unproduced output", func(m *onnx.ModelProto) { m.Graph.Node[0].Output = []string{"z"} }, `graph output "y"`},
		{"operator too new", func(m *onnx.ModelProto) { m.Graph.Node[0].OpType = "Gelu" }, "not defined at opset 19"},
		{"empty op type", func(m *onnx.ModelProto) { m.Graph.Node[0].OpType = "" }, "no op_type"},
		{"duplicate output", func(m *onnx.ModelProto) {
			m.Graph.Node = append(m.Graph.Node, onnxtest.Node("Relu", []string{"x"}, []string{"y"}))
		}, "more than once"},
		{"duplicate initializer", func(m *onnx.ModelProto) {
			m.Graph.Initializer = []*onnx.TensorProto{
				onnx.NewInt64Initializer("c", []int64{1}),
				onnx.NewInt64Initializer("c", []int64{2}),
			}
		}, `duplicate initializer "c"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := onnxtest.ReluModel(19)
			tt.mutate(model)

			err := Check(model)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckSubgraphSeesOuterScope(t *testing.T) {
	body := onnxtest.Graph("then",
		[]*onnx.NodeProto{onnxtest.Node("Relu", []string{"x"}, []string{"inner"})},
		nil,
		[]*onnx.ValueInfoProto{onnxtest.Value("inner", onnx.DataTypeFloat, 4)},
	)
	ifNode := onnxtest.Node("If", []string{"cond"}, []string{"y"},
		&onnx.AttributeProto{Name: "then_branch", Type: onnx.AttributeProto_GRAPH, G: body})
	model := onnxtest.Model(21, onnxtest.Graph("outer",
		[]*onnx.NodeProto{ifNode},
		[]*onnx.ValueInfoProto{
			onnxtest.Value("x", onnx.DataTypeFloat, 4),
			onnxtest.Value("cond", onnx.DataTypeBool),
		},
		[]*onnx.ValueInfoProto{onnxtest.Value("y", onnx.DataTypeFloat, 4)},
	))
	assert.NoError(t, Check(model))
}
