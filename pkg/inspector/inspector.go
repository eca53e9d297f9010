// Package inspector reports the tensors of a model, guesses its output
// layout and smoke-tests it with a synthetic forward pass.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pkgerrors "github.com/pkg/errors"

	"github.com/zerfoo/zmodel/pkg/interpreter"
)

var (
	// ErrLoad wraps failures to open a model.
	ErrLoad = errors.New("failed to load model")
	// ErrInference wraps failures of the synthetic forward pass.
	ErrInference = errors.New("inference failed")
)

// Options configures Inspect and Compare.
type Options struct {
	// Open loads models; nil means interpreter.Open.
	Open        interpreter.Opener
	Interpreter interpreter.Options
	Layout      LayoutRules
	// Seed fixes the synthetic input generator; 0 picks a random seed.
	Seed   uint64
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Open == nil {
		o.Open = interpreter.Open
	}
	if o.Layout == (LayoutRules{}) {
		o.Layout = DefaultLayoutRules()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Interpreter.Logger == nil {
		o.Interpreter.Logger = o.Logger
	}
	return o
}

// InferenceStatus is the outcome of the synthetic forward pass.
type InferenceStatus string

const (
	InferenceOK      InferenceStatus = "ok"
	InferenceSkipped InferenceStatus = "skipped"
	InferenceFailed  InferenceStatus = "failed"
)

// OutputStats are the statistics of one inference output. Stats is nil and
// Message says why when the output holds no values.
type OutputStats struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Shape   []int64 `json:"shape"`
	Message string  `json:"message,omitempty"`
	*Stats
}

// Inference records the synthetic forward pass.
type Inference struct {
	Status  InferenceStatus `json:"status"`
	Message string          `json:"message,omitempty"`
	Outputs []OutputStats   `json:"outputs,omitempty"`
	Err     error           `json:"-"`
}

// Report is the result of inspecting one model.
type Report struct {
	Path      string                   `json:"path"`
	Metadata  interpreter.Metadata     `json:"metadata"`
	Inputs    []interpreter.TensorInfo `json:"inputs"`
	Outputs   []interpreter.TensorInfo `json:"outputs"`
	Layout    Layout                   `json:"layout"`
	Inference Inference                `json:"inference"`
}

// Inspect loads the model at path and reports it. Only a load failure is
// returned as an error; a failed forward pass is recorded in the report.
func Inspect(ctx context.Context, path string, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	interp, err := load(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := interp.Close(); cerr != nil {
			opts.Logger.Warn("failed to close model", slog.String("path", path), slog.Any("error", cerr))
		}
	}()

	r := &Report{
		Path:     path,
		Metadata: interp.Metadata(),
		Inputs:   interp.Inputs(),
		Outputs:  interp.Outputs(),
	}
	r.Layout = Classify(r.Outputs, opts.Layout)
	r.Inference = runInference(ctx, interp, opts)
	opts.Logger.Info("inspected model",
		slog.String("path", path),
		slog.String("format", string(r.Metadata.Format)),
		slog.String("layout", string(r.Layout.Kind)),
		slog.String("inference", string(r.Inference.Status)))
	return r, nil
}

func load(ctx context.Context, path string, opts Options) (interpreter.Interpreter, error) {
	interp, err := opts.Open(ctx, path, opts.Interpreter)
	if err != nil {
		return nil, pkgerrors.WithStack(fmt.Errorf("%w %s: %w", ErrLoad, path, err))
	}
	return interp, nil
}

func runInference(ctx context.Context, interp interpreter.Interpreter, opts Options) Inference {
	rng := newRand(opts.Seed)
	infos := interp.Inputs()
	inputs := make([]interpreter.Tensor, 0, len(infos))
	for _, info := range infos {
		t, err := SynthesizeInput(info, rng)
		if err != nil {
			return Inference{Status: InferenceSkipped, Message: err.Error(), Err: err}
		}
		inputs = append(inputs, t)
	}

	outputs, err := interp.Invoke(ctx, inputs)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInference, err)
		return Inference{Status: InferenceFailed, Message: err.Error(), Err: err}
	}

	res := Inference{Status: InferenceOK}
	for i, out := range outputs {
		values, err := out.Float64s()
		if err != nil {
			err = fmt.Errorf("%w: output %d: %w", ErrInference, i, err)
			return Inference{Status: InferenceFailed, Message: err.Error(), Err: err}
		}
		st := OutputStats{Index: i, Name: out.Name, Shape: out.Shape}
		if stats, err := ComputeStats(values); err != nil {
			st.Message = err.Error()
		} else {
			st.Stats = &stats
		}
		res.Outputs = append(res.Outputs, st)
	}
	return res
}
