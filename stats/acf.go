package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/mlarima/timeseries"
)

// ACF returns the sample autocorrelations at lags 0..maxLag, using the
// biased (divide by n) autocovariance. maxLag is clipped to n-1. Missing
// values are skipped pairwise: lag k sums only over t where both x_t and
// x_{t+k} are observed, and n counts observed values. Without gaps the
// result is positive semi-definite. A constant or empty series returns nil.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := len(series.Values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	observed := series.Observed()
	if len(observed) == 0 {
		return nil
	}
	centered := append([]float64(nil), series.Values...)
	floats.AddConst(-stat.Mean(observed, nil), centered)

	acf := make([]float64, maxLag+1)
	for k := range acf {
		for t := k; t < n; t++ {
			if a, b := centered[t], centered[t-k]; !math.IsNaN(a) && !math.IsNaN(b) {
				acf[k] += a * b
			}
		}
	}
	c0 := acf[0]
	if c0 == 0 {
		return nil
	}
	for k := range acf {
		acf[k] /= c0
	}
	return acf
}

// PACF returns the partial autocorrelations at lags 0..maxLag; lag 0 is 1.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	acf := ACF(series, maxLag)
	if len(acf) < 2 {
		return nil
	}
	pacf := make([]float64, len(acf))
	pacf[0] = 1
	levinson(acf, len(acf)-1, func(k int, phi []float64) {
		pacf[k] = phi[k-1]
	})
	return pacf
}

// YuleWalker solves the Yule-Walker equations for an AR(order) model given
// autocorrelations at lags 0..order. It returns the coefficients and the
// innovation variance as a fraction of the series variance.
func YuleWalker(acf []float64, order int) ([]float64, float64, error) {
	switch {
	case order < 1:
		return nil, 0, errors.Errorf("stats: yule-walker order %d", order)
	case len(acf) <= order:
		return nil, 0, errors.Errorf("stats: yule-walker order %d needs %d autocorrelations, got %d", order, order+1, len(acf))
	case acf[0] != 1:
		return nil, 0, errors.Errorf("stats: autocorrelation at lag 0 is %v", acf[0])
	}
	var phi []float64
	ok := levinson(acf, order, func(k int, coef []float64) {
		phi = append(phi[:0], coef...)
	})
	if !ok {
		return nil, 0, errors.New("stats: autocorrelations are not positive definite")
	}
	v := 1.0
	for i, c := range phi {
		v -= c * acf[i+1]
	}
	return phi, v, nil
}

// levinson runs the Durbin-Levinson recursion up to order, calling visit
// with the AR(k) coefficients after each step. It stops early and returns
// false if the prediction error variance stops being positive.
func levinson(acf []float64, order int, visit func(k int, phi []float64)) bool {
	phi := make([]float64, 0, order)
	prev := make([]float64, 0, order)
	v := 1.0
	for k := 1; k <= order; k++ {
		num := acf[k]
		for j, c := range phi {
			num -= c * acf[k-1-j]
		}
		kappa := num / v

		prev = append(prev[:0], phi...)
		for j := range phi {
			phi[j] = prev[j] - kappa*prev[len(prev)-1-j]
		}
		phi = append(phi, kappa)

		v *= 1 - kappa*kappa
		visit(k, phi)
		if !(v > 0) {
			return false
		}
	}
	return true
}
