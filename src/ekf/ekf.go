// Package ekf estimates a cell's state of charge with an Extended Kalman
// Filter over a first-order RC equivalent circuit.
//
// The state is x = (SOC, V1), where V1 is the voltage across the RC pair.
// Each Step takes one (current, voltage) sample:
//
//	f(x) = (SOC - i*Ts/(3600*Ah), a*V1 + R1*(1-a)*i),  a = exp(-Ts/tau1)
//	h(x) = V0(SOC) - i*R0(SOC) - V1
//
// with i the discharge current (the measured current negated) and all
// circuit parameters looked up at the current SOC.
package ekf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Filter is a running estimator. Not safe for concurrent use.
type Filter struct {
	p      Params
	dVdSOC []float64

	x    *mat.VecDense // (SOC, V1)
	pCov *mat.Dense

	current float64 // discharge-positive, A
	voltage float64 // V
	k       int
}

// New returns a filter initialised at p.SOC0 with covariance p.P0.
func New(p Params) (*Filter, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	f := &Filter{
		p:      p,
		dVdSOC: slopeTable(p.SOC, p.V0),
		x:      mat.NewVecDense(2, []float64{p.SOC0, 0}),
		pCov:   mat.DenseCopyOf(p.P0),
	}
	return f, nil
}

// Estimate is the current SOC estimate.
func (f *Filter) Estimate() float64 { return f.x.AtVec(0) }

// PolarizationVoltage is the current V1 estimate.
func (f *Filter) PolarizationVoltage() float64 { return f.x.AtVec(1) }

// Covariance returns a copy of the error covariance.
func (f *Filter) Covariance() *mat.Dense { return mat.DenseCopyOf(f.pCov) }

// Steps is the number of samples consumed.
func (f *Filter) Steps() int { return f.k }

// Step consumes one sample. temperature is accepted for interface parity
// with the logged signals and is not used by the model.
func (f *Filter) Step(current, voltage, temperature float64) {
	f.input(current, voltage)
	xPred, pPred := f.predict()
	f.correct(xPred, pPred)
	f.k++
}

func (f *Filter) input(current, voltage float64) {
	f.current = -current
	f.voltage = voltage
	if f.k == 0 {
		soc0 := f.p.SOC0
		v1 := f.lookup(f.p.V0, soc0) - voltage - f.current*f.lookup(f.p.R0, soc0)
		f.x.SetVec(1, v1)
	}
}

func (f *Filter) predict() (*mat.VecDense, *mat.Dense) {
	xPred := f.transition()
	jf := f.transitionJacobian()

	var fp, pPred mat.Dense
	fp.Mul(jf, f.pCov)
	pPred.Mul(&fp, jf.T())
	pPred.Add(&pPred, f.p.Q)
	return xPred, &pPred
}

// correct updates the state. h and H are evaluated at the state before this
// step's update, not at the prediction.
func (f *Filter) correct(xPred *mat.VecDense, pPred *mat.Dense) {
	jh := f.measurementJacobian()

	var hp, s mat.Dense
	hp.Mul(jh, pPred)
	s.Mul(&hp, jh.T())

	var gain mat.Dense
	gain.Mul(pPred, jh.T())
	gain.Scale(1/(s.At(0, 0)+f.p.R), &gain)

	innovation := f.voltage - f.measurement()
	x := mat.NewVecDense(2, nil)
	x.AddScaledVec(xPred, innovation, gain.ColView(0))

	var kh, ikh mat.Dense
	kh.Mul(&gain, jh)
	ikh.Sub(mat.NewDiagDense(2, []float64{1, 1}), &kh)
	var pNew mat.Dense
	pNew.Mul(&ikh, pPred)

	f.x = x
	f.pCov = &pNew
}

func (f *Filter) lookup(tbl []float64, soc float64) float64 {
	return Interpolate(f.p.SOC, tbl, soc)
}

func (f *Filter) decay() float64 {
	return math.Exp(-f.p.Ts / f.lookup(f.p.Tau1, f.Estimate()))
}

func (f *Filter) transition() *mat.VecDense {
	soc := f.Estimate()
	a := f.decay()
	b := f.lookup(f.p.R1, soc) * (1 - a)
	return mat.NewVecDense(2, []float64{
		soc - f.current*f.p.Ts/(3600*f.p.CapacityAh),
		a*f.PolarizationVoltage() + b*f.current,
	})
}

func (f *Filter) transitionJacobian() *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, 0, f.decay()})
}

func (f *Filter) measurement() float64 {
	soc := f.Estimate()
	return f.lookup(f.p.V0, soc) - f.current*f.lookup(f.p.R0, soc) - f.PolarizationVoltage()
}

func (f *Filter) measurementJacobian() *mat.Dense {
	return mat.NewDense(1, 2, []float64{f.lookup(f.dVdSOC, f.Estimate()), -1})
}
