package interpreter

import (
	"fmt"
	"strings"

	"github.com/zerfoo/zmf"
	"google.golang.org/protobuf/proto"
)

func openZMF(data []byte) (Interpreter, error) {
	zm := &zmf.Model{}
	if err := proto.Unmarshal(data, zm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ZMF model: %w", err)
	}
	meta := zm.GetMetadata()
	graph := zm.GetGraph()
	return &model{
		meta: Metadata{
			Format:    FormatZMF,
			Runtime:   "none",
			Producer:  strings.TrimSpace(meta.GetProducerName() + " " + meta.GetProducerVersion()),
			Opset:     meta.GetOpsetVersion(),
			Operators: len(graph.GetNodes()),
		},
		inputs:    zmfInfos(graph.GetInputs()),
		outputs:   zmfInfos(graph.GetOutputs()),
		noRuntime: &noRuntimeError{format: FormatZMF, hint: "ZMF models are inspected for metadata only"},
	}, nil
}

func zmfInfos(values []*zmf.ValueInfo) []TensorInfo {
	infos := make([]TensorInfo, len(values))
	for i, v := range values {
		shape := make([]int64, len(v.GetShape()))
		for j, d := range v.GetShape() {
			if d <= 0 {
				d = -1
			}
			shape[j] = d
		}
		infos[i] = TensorInfo{Index: i, Name: v.GetName(), Shape: shape, DType: Unknown}
	}
	return infos
}
