package interpreter

import (
	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/tflite"
)

// DType is a tensor element type, named the way numpy names it.
type DType int

const (
	Unknown DType = iota
	Float32
	Float16
	BFloat16
	Float64
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Bool
	String
	Complex64
	Complex128
)

var dtypeNames = [...]string{
	Unknown:    "unknown",
	Float32:    "float32",
	Float16:    "float16",
	BFloat16:   "bfloat16",
	Float64:    "float64",
	Int8:       "int8",
	UInt8:      "uint8",
	Int16:      "int16",
	UInt16:     "uint16",
	Int32:      "int32",
	UInt32:     "uint32",
	Int64:      "int64",
	UInt64:     "uint64",
	Bool:       "bool",
	String:     "string",
	Complex64:  "complex64",
	Complex128: "complex128",
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return dtypeNames[Unknown]
	}
	return dtypeNames[d]
}

// MarshalText encodes the dtype by name.
func (d DType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var fromTFLite = map[tflite.TensorType]DType{
	tflite.Float32:    Float32,
	tflite.Float16:    Float16,
	tflite.BFloat16:   BFloat16,
	tflite.Float64:    Float64,
	tflite.Int8:       Int8,
	tflite.UInt8:      UInt8,
	tflite.Int16:      Int16,
	tflite.UInt16:     UInt16,
	tflite.Int32:      Int32,
	tflite.UInt32:     UInt32,
	tflite.Int64:      Int64,
	tflite.UInt64:     UInt64,
	tflite.Bool:       Bool,
	tflite.String:     String,
	tflite.Complex64:  Complex64,
	tflite.Complex128: Complex128,
}

var fromONNX = map[int32]DType{
	onnx.DataTypeFloat:      Float32,
	onnx.DataTypeFloat16:    Float16,
	onnx.DataTypeBFloat16:   BFloat16,
	onnx.DataTypeDouble:     Float64,
	onnx.DataTypeInt8:       Int8,
	onnx.DataTypeUint8:      UInt8,
	onnx.DataTypeInt16:      Int16,
	onnx.DataTypeUint16:     UInt16,
	onnx.DataTypeInt32:      Int32,
	onnx.DataTypeUint32:     UInt32,
	onnx.DataTypeInt64:      Int64,
	onnx.DataTypeUint64:     UInt64,
	onnx.DataTypeBool:       Bool,
	onnx.DataTypeString:     String,
	onnx.DataTypeComplex64:  Complex64,
	onnx.DataTypeComplex128: Complex128,
}

// DTypeFromTFLite maps a TFLite tensor type; unmapped types are Unknown.
func DTypeFromTFLite(t tflite.TensorType) DType {
	return fromTFLite[t]
}

// DTypeFromONNX maps an ONNX element type; unmapped types are Unknown.
func DTypeFromONNX(t int32) DType {
	return fromONNX[t]
}
