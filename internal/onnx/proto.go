// Package onnx exposes the ONNX protobuf messages used across zmodel together
// with the small set of helpers the converter, checker and interpreter share.
package onnx

import (
	onnxpb "github.com/advancedclimatesystems/gonnx/onnx"
)

type (
	ModelProto                          = onnxpb.ModelProto
	GraphProto                          = onnxpb.GraphProto
	NodeProto                           = onnxpb.NodeProto
	TensorProto                         = onnxpb.TensorProto
	ValueInfoProto                      = onnxpb.ValueInfoProto
	TypeProto                           = onnxpb.TypeProto
	TypeProto_Tensor                    = onnxpb.TypeProto_Tensor
	TypeProto_TensorType                = onnxpb.TypeProto_TensorType
	TensorShapeProto                    = onnxpb.TensorShapeProto
	TensorShapeProto_Dimension          = onnxpb.TensorShapeProto_Dimension
	TensorShapeProto_Dimension_DimValue = onnxpb.TensorShapeProto_Dimension_DimValue
	TensorShapeProto_Dimension_DimParam = onnxpb.TensorShapeProto_Dimension_DimParam
	AttributeProto                      = onnxpb.AttributeProto
	AttributeProto_AttributeType        = onnxpb.AttributeProto_AttributeType
	OperatorSetIdProto                  = onnxpb.OperatorSetIdProto
)

const (
	AttributeProto_FLOAT   = onnxpb.AttributeProto_FLOAT
	AttributeProto_INT     = onnxpb.AttributeProto_INT
	AttributeProto_STRING  = onnxpb.AttributeProto_STRING
	AttributeProto_TENSOR  = onnxpb.AttributeProto_TENSOR
	AttributeProto_GRAPH   = onnxpb.AttributeProto_GRAPH
	AttributeProto_FLOATS  = onnxpb.AttributeProto_FLOATS
	AttributeProto_INTS    = onnxpb.AttributeProto_INTS
	AttributeProto_STRINGS = onnxpb.AttributeProto_STRINGS
	AttributeProto_GRAPHS  = onnxpb.AttributeProto_GRAPHS
)

// Element data types (TensorProto.DataType). Declared here rather than taken
// from the generated enum so that types added in recent IR versions are
// always available.
const (
	DataTypeUndefined      int32 = 0
	DataTypeFloat          int32 = 1
	DataTypeUint8          int32 = 2
	DataTypeInt8           int32 = 3
	DataTypeUint16         int32 = 4
	DataTypeInt16          int32 = 5
	DataTypeInt32          int32 = 6
	DataTypeInt64          int32 = 7
	DataTypeString         int32 = 8
	DataTypeBool           int32 = 9
	DataTypeFloat16        int32 = 10
	DataTypeDouble         int32 = 11
	DataTypeUint32         int32 = 12
	DataTypeUint64         int32 = 13
	DataTypeComplex64      int32 = 14
	DataTypeComplex128     int32 = 15
	DataTypeBFloat16       int32 = 16
	DataTypeFloat8E4M3FN   int32 = 17
	DataTypeFloat8E4M3FNUZ int32 = 18
	DataTypeFloat8E5M2     int32 = 19
	DataTypeFloat8E5M2FNUZ int32 = 20
	DataTypeUint4          int32 = 21
	DataTypeInt4           int32 = 22
	DataTypeFloat4E2M1     int32 = 23
)

var dataTypeNames = map[int32]string{
	DataTypeUndefined:      "UNDEFINED",
	DataTypeFloat:          "FLOAT",
	DataTypeUint8:          "UINT8",
	DataTypeInt8:           "INT8",
	DataTypeUint16:         "UINT16",
	DataTypeInt16:          "INT16",
	DataTypeInt32:          "INT32",
	DataTypeInt64:          "INT64",
	DataTypeString:         "STRING",
	DataTypeBool:           "BOOL",
	DataTypeFloat16:        "FLOAT16",
	DataTypeDouble:         "DOUBLE",
	DataTypeUint32:         "UINT32",
	DataTypeUint64:         "UINT64",
	DataTypeComplex64:      "COMPLEX64",
	DataTypeComplex128:     "COMPLEX128",
	DataTypeBFloat16:       "BFLOAT16",
	DataTypeFloat8E4M3FN:   "FLOAT8E4M3FN",
	DataTypeFloat8E4M3FNUZ: "FLOAT8E4M3FNUZ",
	DataTypeFloat8E5M2:     "FLOAT8E5M2",
	DataTypeFloat8E5M2FNUZ: "FLOAT8E5M2FNUZ",
	DataTypeUint4:          "UINT4",
	DataTypeInt4:           "INT4",
	DataTypeFloat4E2M1:     "FLOAT4E2M1",
}

// DataTypeName returns the ONNX spelling of an element type.
func DataTypeName(dt int32) string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return "UNKNOWN"
}
