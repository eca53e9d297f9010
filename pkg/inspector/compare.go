package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/zerfoo/zmodel/pkg/interpreter"
)

// Difference is one structural check between two models.
type Difference struct {
	Subject string `json:"subject"`
	Match   bool   `json:"match"`
	Left    string `json:"left"`
	Right   string `json:"right"`
}

// Summary is the part of a model Compare looks at.
type Summary struct {
	Path    string                   `json:"path"`
	Input   *interpreter.TensorInfo  `json:"input,omitempty"`
	Outputs []interpreter.TensorInfo `json:"outputs"`
}

// Comparison lists the differences between two models. It carries no
// verdict.
type Comparison struct {
	Left        Summary      `json:"left"`
	Right       Summary      `json:"right"`
	Differences []Difference `json:"differences"`
}

// Compare loads both models and compares their first input and outputs.
func Compare(ctx context.Context, leftPath, rightPath string, opts Options) (*Comparison, error) {
	opts = opts.withDefaults()
	left, err := summarize(ctx, leftPath, opts)
	if err != nil {
		return nil, err
	}
	right, err := summarize(ctx, rightPath, opts)
	if err != nil {
		return nil, err
	}
	return CompareSummaries(left, right), nil
}

func summarize(ctx context.Context, path string, opts Options) (Summary, error) {
	interp, err := load(ctx, path, opts)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if cerr := interp.Close(); cerr != nil {
			opts.Logger.Warn("failed to close model", slog.String("path", path), slog.Any("error", cerr))
		}
	}()

	s := Summary{Path: path, Outputs: interp.Outputs()}
	if ins := interp.Inputs(); len(ins) > 0 {
		in := ins[0]
		s.Input = &in
	}
	return s, nil
}

// CompareSummaries runs the structural checks on two loaded models.
func CompareSummaries(left, right Summary) *Comparison {
	c := &Comparison{Left: left, Right: right}

	li, ri := "none", "none"
	lt, rt := "none", "none"
	if left.Input != nil {
		li, lt = formatShape(left.Input.Shape), left.Input.DType.String()
	}
	if right.Input != nil {
		ri, rt = formatShape(right.Input.Shape), right.Input.DType.String()
	}
	c.add("Input shapes", li, ri)
	c.add("Input types", lt, rt)
	c.add("Number of outputs", fmt.Sprint(len(left.Outputs)), fmt.Sprint(len(right.Outputs)))

	for i := range min(len(left.Outputs), len(right.Outputs)) {
		lo, ro := left.Outputs[i], right.Outputs[i]
		c.add(fmt.Sprintf("Output[%d] shapes", i), formatShape(lo.Shape), formatShape(ro.Shape))
		c.add(fmt.Sprintf("Output[%d] types", i), lo.DType.String(), ro.DType.String())
	}
	return c
}

func (c *Comparison) add(subject, left, right string) {
	c.Differences = append(c.Differences, Difference{
		Subject: subject,
		Match:   left == right,
		Left:    left,
		Right:   right,
	})
}

// Mismatches returns the failed checks.
func (c *Comparison) Mismatches() []Difference {
	return slices.DeleteFunc(slices.Clone(c.Differences), func(d Difference) bool { return d.Match })
}

func formatShape(shape []int64) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(dims, ", ") + "]"
}
