package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/mlarima/numerr"
)

var log2Pi = math.Log(2 * math.Pi)

// Result holds the one-step prediction errors of a filter run.
type Result struct {
	// Innovations holds v_t = y_t - Z·a_{t|t-1}; NaN for missing observations.
	Innovations []float64
	// Variances holds F_t = Z·P_{t|t-1}·Zᵀ.
	Variances []float64
	// SumLogF is Σ log F_t over observed t.
	SumLogF float64
	// SumSquares is Σ v_t²/F_t over observed t.
	SumSquares float64
	// N is the number of observed (non-NaN) values.
	N int
}

// Sigma2 returns the profiled innovation variance SumSquares/N.
func (r *Result) Sigma2() float64 {
	return r.SumSquares / float64(r.N)
}

// LogLikelihood returns the Gaussian log-likelihood with σ² concentrated out:
//
//	-½·(n·log 2π + Σ log F_t + n·log(Σ(v_t²/F_t)/n) + n)
func (r *Result) LogLikelihood() float64 {
	n := float64(r.N)
	return -0.5 * (n*log2Pi + r.SumLogF + n*math.Log(r.SumSquares/n) + n)
}

// LogLikelihoodAt returns the Gaussian log-likelihood for a given σ².
func (r *Result) LogLikelihoodAt(sigma2 float64) float64 {
	n := float64(r.N)
	return -0.5 * (n*log2Pi + n*math.Log(sigma2) + r.SumLogF + r.SumSquares/sigma2)
}

// StandardizedResiduals returns v_t/√F_t.
func (r *Result) StandardizedResiduals() []float64 {
	out := make([]float64, len(r.Innovations))
	for i, v := range r.Innovations {
		out[i] = v / math.Sqrt(r.Variances[i])
	}
	return out
}

// Run filters series through the state-space model, starting from a zero
// state mean and the stationary covariance. NaN values are treated as
// missing: the state is propagated without an update.
//
// A non-positive or non-finite F_t stops the run with an error wrapping
// numerr.ErrNumericDegeneracy. So does a run whose prediction errors are all
// zero, since σ² is then zero and the concentrated likelihood is undefined.
func Run(ss *StateSpace, series []float64) (*Result, error) {
	if len(series) == 0 {
		return nil, numerr.InvalidArgument("kalman: empty series")
	}
	p, err := InitialCovariance(ss)
	if err != nil {
		return nil, err
	}

	r := ss.Dim()
	q := ss.disturbance()
	a := mat.NewVecDense(r, nil)
	res := &Result{
		Innovations: make([]float64, len(series)),
		Variances:   make([]float64, len(series)),
	}

	var (
		ap mat.VecDense
		pz mat.VecDense
	)
	for t, y := range series {
		// Predict.
		ap.MulVec(ss.T, a)
		pp := ss.predict(p, q)

		pz.MulVec(pp, ss.Z)
		f := mat.Dot(ss.Z, &pz)
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, numerr.Degenerate("kalman: innovation variance F[%d] = %v", t, f)
		}
		res.Variances[t] = f

		if math.IsNaN(y) {
			res.Innovations[t] = math.NaN()
			a.CopyVec(&ap)
			p = pp
			continue
		}

		// Update.
		v := y - mat.Dot(ss.Z, &ap)
		res.Innovations[t] = v
		res.SumLogF += math.Log(f)
		res.SumSquares += v * v / f
		res.N++

		a.AddScaledVec(&ap, v/f, &pz)
		pp.SymRankOne(pp, -1/f, &pz)
		p = pp
	}

	switch {
	case res.N == 0:
		return nil, numerr.Degenerate("kalman: no observed values")
	case res.SumSquares == 0:
		return nil, numerr.Degenerate("kalman: all %d prediction errors are zero", res.N)
	}
	return res, nil
}

// LogLikelihood returns the concentrated Gaussian log-likelihood of series
// under the ARMA process with the given coefficients.
func LogLikelihood(ar, ma, series []float64) (float64, error) {
	res, err := Run(NewARMA(ar, ma), series)
	if err != nil {
		return math.NaN(), err
	}
	return res.LogLikelihood(), nil
}
