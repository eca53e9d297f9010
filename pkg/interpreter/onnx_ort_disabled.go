//go:build !ORT && !ALL

package interpreter

func newORTRunner(_ []byte, _, _ []TensorInfo, _ string) (runner, error) {
	return nil, &noRuntimeError{format: FormatONNX, hint: "to enable ORT, run `go build -tags ORT` or `go build -tags ALL`"}
}
