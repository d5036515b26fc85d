// Package compare scores an estimated signal against its reference.
package compare

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics summarises estimate - reference over all rows.
type Metrics struct {
	N      int
	RMSE   float64
	MAE    float64
	MaxAbs float64
	Bias   float64 // mean signed error
}

// Compare computes Metrics. Both slices must be the same non-zero length.
func Compare(estimate, reference []float64) (Metrics, error) {
	if len(estimate) != len(reference) {
		return Metrics{}, fmt.Errorf("length mismatch: estimate %d, reference %d", len(estimate), len(reference))
	}
	if len(estimate) == 0 {
		return Metrics{}, errors.New("no rows to compare")
	}
	diff := floats.SubTo(make([]float64, len(estimate)), estimate, reference)
	abs := make([]float64, len(diff))
	for i, d := range diff {
		abs[i] = math.Abs(d)
	}
	n := float64(len(diff))
	return Metrics{
		N:      len(diff),
		RMSE:   math.Sqrt(floats.Dot(diff, diff) / n),
		MAE:    stat.Mean(abs, nil),
		MaxAbs: floats.Max(abs),
		Bias:   stat.Mean(diff, nil),
	}, nil
}

func (m Metrics) String() string {
	return fmt.Sprintf("n=%d rmse=%.5f mae=%.5f max_abs=%.5f bias=%+.5f", m.N, m.RMSE, m.MAE, m.MaxAbs, m.Bias)
}
