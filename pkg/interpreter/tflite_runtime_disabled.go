//go:build !cgo || !tflite

package interpreter

func newTFLiteRuntime(_ []byte, _, _ []TensorInfo, _ int) (runner, error) {
	return nil, &noRuntimeError{format: FormatTFLite, hint: "run `go build -tags tflite` with cgo and libtensorflowlite_c installed"}
}
