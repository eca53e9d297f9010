package interpreter

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"

	"github.com/zerfoo/zmodel/internal/onnx"
)

func openONNX(data []byte, opts Options) (Interpreter, error) {
	mp := &onnx.ModelProto{}
	if err := proto.Unmarshal(data, mp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ONNX protobuf: %w", err)
	}
	g := mp.GetGraph()
	if g == nil {
		return nil, fmt.Errorf("ONNX model has no graph")
	}

	initializers := make(map[string]bool, len(g.GetInitializer()))
	for _, t := range g.GetInitializer() {
		initializers[t.GetName()] = true
	}
	var inputs []TensorInfo
	for _, in := range g.GetInput() {
		if initializers[in.GetName()] {
			continue
		}
		inputs = append(inputs, onnxInfo(len(inputs), in))
	}
	outputs := make([]TensorInfo, len(g.GetOutput()))
	for i, out := range g.GetOutput() {
		outputs[i] = onnxInfo(i, out)
	}

	opset, _ := onnx.DefaultOpsetVersion(mp)
	m := &model{
		meta: Metadata{
			Format:      FormatONNX,
			Description: mp.GetDocString(),
			Producer:    strings.TrimSpace(mp.GetProducerName() + " " + mp.GetProducerVersion()),
			IRVersion:   mp.GetIrVersion(),
			Opset:       opset,
			Operators:   len(g.GetNode()),
		},
		inputs:  inputs,
		outputs: outputs,
	}

	switch opts.Backend {
	case "", BackendGo:
		m.runner = &goRunner{data: data, outputs: outputs}
		m.meta.Runtime = "gonnx"
	case BackendORT:
		r, err := newORTRunner(data, inputs, outputs, opts.ORTLibrary)
		switch {
		case err == nil:
			m.runner = r
			m.meta.Runtime = "onnxruntime"
		case isNoRuntime(err):
			m.noRuntime = err
			m.meta.Runtime = "none"
		default:
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown ONNX backend %q (want %q or %q)", opts.Backend, BackendGo, BackendORT)
	}
	return m, nil
}

func onnxInfo(index int, info *onnx.ValueInfoProto) TensorInfo {
	return TensorInfo{
		Index: index,
		Name:  info.GetName(),
		Shape: onnx.Shape(info),
		DType: DTypeFromONNX(info.GetType().GetTensorType().GetElemType()),
	}
}
