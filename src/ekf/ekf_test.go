package ekf

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestInterpolate(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		soc, want float64
	}{
		{0, 3.5},
		{0.5, 3.71},
		{1, 4.19},
		{0.05, 3.535},
		{0.6, 3.798},
		{-0.1, 3.43},
		{1.1, 4.30},
	}
	for _, c := range cases {
		if got := Interpolate(p.SOC, p.V0, c.soc); !near(got, c.want, 1e-9) {
			t.Fatalf("V0(%.2f): want %.4f got %.6f", c.soc, c.want, got)
		}
	}
}

func TestSlopeTable(t *testing.T) {
	p := DefaultParams()
	want := []float64{0, 0.7, 0.4, 0.32, 0.88, 1.0, 1.1}
	got := slopeTable(p.SOC, p.V0)
	for i := range want {
		if !near(got[i], want[i], 1e-9) {
			t.Fatalf("dV/dSOC[%d]: want %.3f got %.6f", i, want[i], got[i])
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(DefaultParams()); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
	bad := []func(*Params){
		func(p *Params) { p.SOC = p.SOC[:1] },
		func(p *Params) { p.R0 = p.R0[:3] },
		func(p *Params) { p.SOC = []float64{0, .1, .1, .5, .75, .9, 1} },
		func(p *Params) { p.Tau1 = []float64{36, 0, 105, 29, 77, 33, 39} },
		func(p *Params) { p.CapacityAh = 0 },
		func(p *Params) { p.Q = mat.NewDense(1, 1, nil) },
		func(p *Params) { p.P0 = nil },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		if _, err := New(p); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestFilter_InitialState(t *testing.T) {
	f, err := New(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if f.Estimate() != 0.6 || f.Steps() != 0 {
		t.Fatalf("initial estimate %.3f steps %d", f.Estimate(), f.Steps())
	}
	c := f.Covariance()
	if c.At(0, 0) != 0.01 || c.At(1, 1) != 0.0004 {
		t.Fatalf("initial covariance %v", mat.Formatted(c))
	}
	// Covariance hands out a copy.
	c.Set(0, 0, 99)
	if f.Covariance().At(0, 0) != 0.01 {
		t.Fatalf("covariance aliased")
	}
}

func TestFilter_AtRestHoldsEstimate(t *testing.T) {
	p := DefaultParams()
	f, _ := New(p)
	ocv := Interpolate(p.SOC, p.V0, p.SOC0)
	for i := 0; i < 100; i++ {
		f.Step(0, ocv, 300)
	}
	if !near(f.Estimate(), 0.6, 1e-12) {
		t.Fatalf("estimate drifted at rest: %.15f", f.Estimate())
	}
	if f.Steps() != 100 {
		t.Fatalf("steps: %d", f.Steps())
	}
}

func TestFilter_FirstStepIsCoulombCount(t *testing.T) {
	// The first innovation is zero by construction of V1, so the first step
	// is pure coulomb counting. Positive measured current charges.
	f, _ := New(DefaultParams())
	f.Step(27, 3.8, 300)
	if want := 0.6 + 27.0/(3600*27); !near(f.Estimate(), want, 1e-12) {
		t.Fatalf("SOC after 1 s at 27 A: want %.12f got %.12f", want, f.Estimate())
	}
	if !near(f.PolarizationVoltage(), 0.21491058786300626, 1e-9) {
		t.Fatalf("V1 after first step: %.12f", f.PolarizationVoltage())
	}
}

func TestFilter_TemperatureIgnored(t *testing.T) {
	a, _ := New(DefaultParams())
	b, _ := New(DefaultParams())
	for i := 0; i < 50; i++ {
		a.Step(-5, 3.75-0.0005*float64(i), 290)
		b.Step(-5, 3.75-0.0005*float64(i), 310)
	}
	if a.Estimate() != b.Estimate() {
		t.Fatalf("temperature changed the estimate: %v vs %v", a.Estimate(), b.Estimate())
	}
}

// simulate drives the model itself as the "true" cell under constant
// measured current and returns (current, voltage, trueSOC) per step.
func simulate(p Params, soc float64, current float64, n int) [][3]float64 {
	out := make([][3]float64, 0, n)
	v1 := 0.0
	i := -current
	for k := 0; k < n; k++ {
		v := Interpolate(p.SOC, p.V0, soc) - i*Interpolate(p.SOC, p.R0, soc) - v1
		out = append(out, [3]float64{current, v, soc})
		a := math.Exp(-p.Ts / Interpolate(p.SOC, p.Tau1, soc))
		b := Interpolate(p.SOC, p.R1, soc) * (1 - a)
		soc, v1 = soc-i*p.Ts/(3600*p.CapacityAh), a*v1+b*i
	}
	return out
}

func TestFilter_ConvergesFromWrongInitialSOC(t *testing.T) {
	p := DefaultParams()
	f, _ := New(p)
	data := simulate(p, 0.8, -5, 2000)
	for _, d := range data {
		f.Step(d[0], d[1], 300)
	}
	last := data[len(data)-1][2]
	if err := math.Abs(f.Estimate() - last); err > 0.05 {
		t.Fatalf("estimate %.4f vs true %.4f (err %.4f) after 2000 steps", f.Estimate(), last, err)
	}
}
