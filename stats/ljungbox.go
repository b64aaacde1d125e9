package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/mlarima/timeseries"
)

// LjungBoxResult is the outcome of a portmanteau test.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// LjungBox tests the null hypothesis that series has no autocorrelation up
// to lag lags. fitdf is the number of estimated ARMA coefficients, which is
// subtracted from the degrees of freedom (floored at 1). It returns nil for
// fewer than 10 observations, lags < 1 or a constant series.
func LjungBox(series *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	n := len(series.Observed())
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}
	acf := ACF(series, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := max(lags-fitdf, 1)
	chi := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatson returns Σ(e_t - e_{t-1})² / Σe_t² over the observed
// residuals: about 2 for no first-order autocorrelation, below 2 for
// positive and above 2 for negative. It returns NaN when undefined.
func DurbinWatson(residuals []float64) float64 {
	e := timeseries.New(residuals).Observed()
	if len(e) < 2 {
		return math.NaN()
	}
	den := floats.Dot(e, e)
	if den == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(e)-1)
	floats.SubTo(diff, e[1:], e[:len(e)-1])
	return floats.Dot(diff, diff) / den
}
