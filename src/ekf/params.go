package ekf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Params describes one cell as a first-order RC equivalent circuit plus the
// filter tuning. The lookup tables are indexed by SOC breakpoints.
type Params struct {
	SOC  []float64 // breakpoints, ascending, fraction 0..1
	V0   []float64 // open-circuit voltage, V
	R0   []float64 // terminal resistance, ohm
	R1   []float64 // polarization resistance, ohm
	Tau1 []float64 // polarization time constant, s

	CapacityAh float64
	Ts         float64 // sample time, s

	Q    *mat.Dense // process noise covariance, 2x2
	R    float64    // measurement noise variance
	P0   *mat.Dense // initial error covariance, 2x2
	SOC0 float64    // initial SOC estimate
}

// DefaultParams returns the 27 Ah cell characterised at 300 K.
func DefaultParams() Params {
	return Params{
		SOC:  []float64{0, .1, .25, .5, .75, .9, 1},
		V0:   []float64{3.5, 3.57, 3.63, 3.71, 3.93, 4.08, 4.19},
		R0:   []float64{0.0085, 0.0085, 0.0087, 0.0082, 0.0083, 0.0085, 0.0085},
		R1:   []float64{0.0029, 0.0024, 0.0026, 0.0016, 0.0023, 0.0018, 0.0017},
		Tau1: []float64{36, 45, 105, 29, 77, 33, 39},

		CapacityAh: 27,
		Ts:         1,

		Q:    mat.NewDense(2, 2, []float64{0.000005, 0, 0, 0.0004}),
		R:    0.7,
		P0:   mat.NewDense(2, 2, []float64{0.01, 0, 0, 0.0004}),
		SOC0: 0.6,
	}
}

func (p Params) validate() error {
	n := len(p.SOC)
	if n < 2 {
		return errors.New("need at least 2 SOC breakpoints")
	}
	for name, tbl := range map[string][]float64{"V0": p.V0, "R0": p.R0, "R1": p.R1, "Tau1": p.Tau1} {
		if len(tbl) != n {
			return fmt.Errorf("%s has %d entries, want %d", name, len(tbl), n)
		}
	}
	for i := 1; i < n; i++ {
		if p.SOC[i] <= p.SOC[i-1] {
			return fmt.Errorf("SOC breakpoints not ascending at %d", i)
		}
	}
	for _, tau := range p.Tau1 {
		if tau <= 0 {
			return errors.New("Tau1 must be positive")
		}
	}
	if p.CapacityAh <= 0 || p.Ts <= 0 {
		return errors.New("capacity and sample time must be positive")
	}
	for name, m := range map[string]*mat.Dense{"Q": p.Q, "P0": p.P0} {
		if m == nil {
			return fmt.Errorf("%s is nil", name)
		}
		if r, c := m.Dims(); r != 2 || c != 2 {
			return fmt.Errorf("%s is %dx%d, want 2x2", name, r, c)
		}
	}
	return nil
}

// Interpolate looks soc up in tbl over breakpoints xs. The segment is the
// one ending at the first breakpoint above soc (the last segment when none
// is); outside the breakpoints the end segments are extended linearly.
func Interpolate(xs, tbl []float64, soc float64) float64 {
	high := len(xs) - 1
	for i := 1; i < len(xs); i++ {
		if soc < xs[i] {
			high = i
			break
		}
	}
	low := high - 1
	p := (soc - xs[low]) / (xs[high] - xs[low])
	return tbl[low] + p*(tbl[high]-tbl[low])
}

// slopeTable is dV0/dSOC per breakpoint by backward difference, 0 at the
// first breakpoint.
func slopeTable(xs, v0 []float64) []float64 {
	out := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = (v0[i] - v0[i-1]) / (xs[i] - xs[i-1])
	}
	return out
}
