package inspector

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the values of one output tensor. Std is the population
// standard deviation.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// ComputeStats returns the summary statistics of values.
func ComputeStats(values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, errors.New("tensor is empty")
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return Stats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: mean,
		Std:  math.Sqrt(variance),
	}, nil
}
