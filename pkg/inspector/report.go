package inspector

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/zerfoo/zmodel/internal/term"
	"github.com/zerfoo/zmodel/pkg/interpreter"
)

var rule = strings.Repeat("=", 70)

// WriteReport prints r in the console layout.
func WriteReport(w io.Writer, r *Report, g term.Glyphs) {
	fmt.Fprintf(w, "\n%s\nInspecting: %s\n%s\n", rule, r.Path, rule)

	m := r.Metadata
	fmt.Fprintf(w, "Format: %s", m.Format)
	if m.Format == interpreter.FormatONNX {
		fmt.Fprintf(w, " (IR version %d, opset %d)", m.IRVersion, m.Opset)
	}
	fmt.Fprintf(w, ", runtime: %s, operators: %d\n", m.Runtime, m.Operators)

	fmt.Fprintf(w, "\nINPUT TENSORS (%d):\n", len(r.Inputs))
	writeTensors(w, "Input", r.Inputs)
	fmt.Fprintf(w, "\nOUTPUT TENSORS (%d):\n", len(r.Outputs))
	writeTensors(w, "Output", r.Outputs)

	fmt.Fprintf(w, "\nMODEL FORMAT ANALYSIS:\n")
	writeLayout(w, r.Layout, g)

	fmt.Fprintf(w, "\nTEST INFERENCE:\n")
	inf := r.Inference
	switch inf.Status {
	case InferenceSkipped:
		fmt.Fprintf(w, "  %s %s\n", g.Warn, capitalize(inf.Message))
	case InferenceFailed:
		fmt.Fprintf(w, "  %s Inference failed: %s\n", g.Fail, inf.Message)
	default:
		fmt.Fprintf(w, "  %s Inference successful with dummy input\n", g.OK)
		for _, o := range inf.Outputs {
			if o.Stats == nil {
				fmt.Fprintf(w, "  Output[%d] %s\n", o.Index, o.Message)
				continue
			}
			fmt.Fprintf(w, "  Output[%d] value range: [%.4f, %.4f]\n", o.Index, o.Min, o.Max)
			fmt.Fprintf(w, "  Output[%d] mean: %.4f, std: %.4f\n", o.Index, o.Mean, o.Std)
		}
	}
	fmt.Fprintf(w, "\n%s\n\n", rule)
}

func writeTensors(w io.Writer, label string, infos []interpreter.TensorInfo) {
	for i, info := range infos {
		fmt.Fprintf(w, "  %s[%d]:\n", label, i)
		fmt.Fprintf(w, "    Name: %s\n", info.Name)
		fmt.Fprintf(w, "    Shape: %s\n", formatShape(info.Shape))
		fmt.Fprintf(w, "    Type: %s\n", info.DType)
		if q := info.Quantization; q != nil && q.Scale != 0 {
			fmt.Fprintf(w, "    Quantization: scale=%g, zero_point=%d\n", q.Scale, q.ZeroPoint)
		} else {
			fmt.Fprintf(w, "    Quantization: None (float model)\n")
		}
	}
}

func writeLayout(w io.Writer, l Layout, g term.Glyphs) {
	switch {
	case l.Outputs == 0:
		fmt.Fprintf(w, "  No output tensors\n")
		return
	case l.Kind == LayoutMultiOutput:
		fmt.Fprintf(w, "  Multi-tensor output (legacy format): %d tensors\n", l.Outputs)
		return
	}

	fmt.Fprintf(w, "  Single output tensor detected\n")
	switch l.Kind {
	case LayoutTransposed:
		fmt.Fprintf(w, "  %s YOLO11 TRANSPOSED format: [batch=%d, classes=%d, predictions=%d]\n",
			g.OK, l.Batch, l.Features, l.Predictions)
		fmt.Fprintf(w, "  %s Detected %d classes (first %d channels are bbox coordinates)\n",
			g.OK, l.Classes, l.Features-l.Classes)
	case LayoutStandard:
		fmt.Fprintf(w, "  %s YOLO11 STANDARD format: [batch=%d, predictions=%d, features=%d]\n",
			g.OK, l.Batch, l.Predictions, l.Features)
		fmt.Fprintf(w, "  %s Detected %d classes (last %d features are class scores)\n",
			g.OK, l.Classes, l.Classes)
	case LayoutUnusual:
		fmt.Fprintf(w, "  %s Unusual format: shape=%s\n", g.Warn, formatShape(l.Shape))
	case LayoutClassification:
		fmt.Fprintf(w, "  %s SIMPLE CLASSIFICATION format: [batch=%d, classes=%d]\n", g.OK, l.Batch, l.Classes)
	}
}

// WriteLoadFailure prints a model that could not be loaded, including the
// stack trace of err.
func WriteLoadFailure(w io.Writer, path string, err error, g term.Glyphs) {
	fmt.Fprintf(w, "\n%s\nInspecting: %s\n%s\n", rule, path, rule)
	fmt.Fprintf(w, "\n%s ERROR loading model: %+v\n", g.Fail, err)
}

// WriteComparison prints c in the console layout.
func WriteComparison(w io.Writer, c *Comparison, g term.Glyphs) {
	fmt.Fprintf(w, "\n%s\nMODEL COMPARISON SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nCOMPARISON:\n")
	writeSummary(w, "Model 1 (Current)", c.Left)
	writeSummary(w, "Model 2 (New)", c.Right)

	fmt.Fprintf(w, "\nDIFFERENCES:\n")
	for _, d := range c.Differences {
		if d.Match {
			fmt.Fprintf(w, "  %s %s match: %s\n", g.OK, d.Subject, d.Left)
		} else {
			fmt.Fprintf(w, "  %s %s differ: %s vs %s\n", g.Warn, d.Subject, d.Left, d.Right)
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}

func writeSummary(w io.Writer, label string, s Summary) {
	fmt.Fprintf(w, "\n%s: %s\n", label, s.Path)
	if s.Input != nil {
		fmt.Fprintf(w, "  Input: %s %s\n", formatShape(s.Input.Shape), s.Input.DType)
	} else {
		fmt.Fprintf(w, "  Input: none\n")
	}
	fmt.Fprintf(w, "  Outputs: %d tensors\n", len(s.Outputs))
	for i, o := range s.Outputs {
		fmt.Fprintf(w, "    Output[%d]: %s %s\n", i, formatShape(o.Shape), o.DType)
	}
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
