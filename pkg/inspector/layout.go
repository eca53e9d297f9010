package inspector

import "github.com/zerfoo/zmodel/pkg/interpreter"

// LayoutKind names the output layouts the heuristic recognises.
type LayoutKind string

const (
	LayoutNone           LayoutKind = "none"
	LayoutTransposed     LayoutKind = "transposed"
	LayoutStandard       LayoutKind = "standard"
	LayoutUnusual        LayoutKind = "unusual"
	LayoutClassification LayoutKind = "classification"
	LayoutMultiOutput    LayoutKind = "multi-output"
)

// LayoutRules are the thresholds of the detection-layout heuristic, tuned
// for YOLO-style heads.
type LayoutRules struct {
	// MinPredictions is the size the last axis must exceed for a
	// [batch, channels, predictions] layout.
	MinPredictions int64 `json:"min_predictions"`
	// BoxCoordinates is the number of channels holding box coordinates.
	BoxCoordinates int64 `json:"box_coordinates"`
}

// DefaultLayoutRules returns the YOLO11 thresholds.
func DefaultLayoutRules() LayoutRules {
	return LayoutRules{MinPredictions: 100, BoxCoordinates: 4}
}

// Layout is the result of Classify. Classes is the inferred class count and
// is meaningful for the transposed, standard and classification kinds.
type Layout struct {
	Kind        LayoutKind `json:"kind"`
	Shape       []int64    `json:"shape,omitempty"`
	Batch       int64      `json:"batch,omitempty"`
	Features    int64      `json:"features,omitempty"`
	Predictions int64      `json:"predictions,omitempty"`
	Classes     int64      `json:"classes,omitempty"`
	Outputs     int        `json:"outputs"`
}

// Classify guesses the semantic layout of a model's outputs. Only a single
// output is classified; several outputs are reported as multi-output.
func Classify(outputs []interpreter.TensorInfo, rules LayoutRules) Layout {
	l := Layout{Kind: LayoutNone, Outputs: len(outputs)}
	switch len(outputs) {
	case 0:
		return l
	case 1:
	default:
		l.Kind = LayoutMultiOutput
		return l
	}

	shape := outputs[0].Shape
	l.Shape = shape
	switch len(shape) {
	case 3:
		batch, d1, d2 := shape[0], shape[1], shape[2]
		l.Batch = batch
		switch {
		case d2 > d1 && d2 > rules.MinPredictions:
			l.Kind = LayoutTransposed
			l.Features, l.Predictions = d1, d2
			l.Classes = d1 - rules.BoxCoordinates
		case d1 > d2:
			l.Kind = LayoutStandard
			l.Predictions, l.Features = d1, d2
			l.Classes = d2 - rules.BoxCoordinates
		default:
			l.Kind = LayoutUnusual
		}
	case 2:
		l.Kind = LayoutClassification
		l.Batch, l.Classes = shape[0], shape[1]
	}
	return l
}
