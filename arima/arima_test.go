package arima

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/mlarima/kalman"
	"github.com/sartorproj/mlarima/likelihood"
	"github.com/sartorproj/mlarima/numerr"
	"github.com/sartorproj/mlarima/stats"
	"github.com/sartorproj/mlarima/timeseries"
)

// simulate draws n values of (1 - Σφ Bⁱ) y_t = (1 + Σθ Bⁱ) e_t with unit
// innovation variance, after a burn-in.
func simulate(n int, ar, ma []float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	const burn = 200
	y := make([]float64, n+burn)
	e := make([]float64, n+burn)
	for t := range y {
		e[t] = rng.NormFloat64()
		v := e[t]
		for i, phi := range ar {
			if t-i-1 >= 0 {
				v += phi * y[t-i-1]
			}
		}
		for i, theta := range ma {
			if t-i-1 >= 0 {
				v += theta * e[t-i-1]
			}
		}
		y[t] = v
	}
	return y[burn:]
}

func testOptions(t *testing.T) *Options {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)
	return opts
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)
	assert.Equal(t, Order{P: 2, D: 1, Q: 1}, model.Order)
	assert.True(t, New(1, 0, 0).Order.IncludeMean)
	assert.False(t, model.Fitted())
	assert.Nil(t, model.Summary())
	assert.Nil(t, model.Residuals())
}

func TestOrder(t *testing.T) {
	assert.Equal(t, "ARIMA(1,1,2)", Order{P: 1, D: 1, Q: 2}.String())
	assert.Equal(t, "ARIMA(0,1,1)(0,1,1)[12]", Order{D: 1, Q: 1, SD: 1, SQ: 1, Period: 12}.String())
	assert.Equal(t, 4, Order{P: 1, Q: 1, SP: 1, SQ: 1, Period: 4}.NumCoeffs())
	assert.Equal(t, 25, Order{D: 1, SD: 2, Period: 12}.lost())

	assert.NoError(t, Order{P: 1, SP: 1, Period: 4}.Validate())
	for _, o := range []Order{{P: -1}, {SD: 1}, {SQ: 1, Period: 1}} {
		assert.True(t, errors.Is(o.Validate(), numerr.ErrInvalidArgument), "%+v", o)
	}
}

func TestARIMAFitAR1(t *testing.T) {
	values := simulate(300, []float64{0.7}, nil, 1)
	for i := range values {
		values[i] += 100
	}

	model := NewWithOrder(Order{P: 1, IncludeMean: true}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))

	require.Len(t, model.ARCoeffs, 1)
	assert.InDelta(t, 0.7, model.ARCoeffs[0], 0.1)
	assert.InDelta(t, 100, model.Intercept, 1)
	assert.InDelta(t, 1, model.Variance, 0.25)
	assert.True(t, model.Optimizer.Converged, model.Optimizer.Status)
	assert.Len(t, model.Residuals(), 300)
}

func TestARIMAFitMA1(t *testing.T) {
	values := simulate(400, nil, []float64{0.5}, 2)

	model := NewWithOrder(Order{Q: 1}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))
	require.Len(t, model.MACoeffs, 1)
	assert.InDelta(t, 0.5, model.MACoeffs[0], 0.12)
	assert.Empty(t, model.ARCoeffs)
}

func TestARIMAFitIntegratedARMA(t *testing.T) {
	w := simulate(400, []float64{0.5}, []float64{0.3}, 3)
	y := make([]float64, len(w))
	level := 50.0
	for i, v := range w {
		level += v
		y[i] = level
	}

	model := New(1, 1, 1)
	require.NoError(t, model.Fit(timeseries.New(y)))
	assert.InDelta(t, 0.5, model.ARCoeffs[0], 0.15)
	assert.InDelta(t, 0.3, model.MACoeffs[0], 0.15)
	assert.Equal(t, 399, model.Summary().NObs)
	assert.Equal(t, 0.0, model.Intercept)

	// Fitted values plus residuals reproduce the differenced series.
	d := model.Differenced()
	fitted, resid := model.FittedValues(), model.Residuals()
	for i, v := range d.Values {
		assert.InDelta(t, v, fitted[i]+resid[i], 1e-9)
	}
}

func TestARIMAFitSeasonalMA(t *testing.T) {
	values := simulate(480, nil, []float64{0, 0, 0, 0.6}, 4)

	model := NewWithOrder(Order{SQ: 1, Period: 4}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))
	require.Len(t, model.SMACoeffs, 1)
	assert.InDelta(t, 0.6, model.SMACoeffs[0], 0.12)
	assert.Equal(t, "ARIMA(0,0,0)(0,0,1)[4]", model.Summary().Model)
}

func TestARIMALogLikelihoodMatchesFilter(t *testing.T) {
	values := simulate(200, []float64{0.4, -0.2}, []float64{0.3}, 5)

	model := NewWithOrder(Order{P: 2, Q: 1}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))

	ll, err := kalman.LogLikelihood(model.ARCoeffs, model.MACoeffs, values)
	require.NoError(t, err)
	assert.InDelta(t, ll, model.LogLik, 1e-9)

	// The estimate is at least as good as the truth.
	truth, err := kalman.LogLikelihood([]float64{0.4, -0.2}, []float64{0.3}, values)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, model.LogLik, truth-1e-6)

	k, n := 4.0, 200.0
	assert.InDelta(t, -2*model.LogLik+2*k, model.AIC, 1e-9)
	assert.InDelta(t, model.AIC+2*k*(k+1)/(n-k-1), model.AICc, 1e-9)
	assert.InDelta(t, -2*model.LogLik+k*math.Log(n), model.BIC, 1e-9)
}

func TestARIMAWhiteNoise(t *testing.T) {
	values := simulate(100, nil, nil, 6)
	for i := range values {
		values[i] = 3 + 2*values[i]
	}
	s := timeseries.New(values)

	model := New(0, 0, 0)
	require.NoError(t, model.Fit(s))

	n := float64(len(values))
	mean := s.Mean()
	sigma2 := s.Variance() * (n - 1) / n
	assert.InDelta(t, mean, model.Intercept, 1e-4)
	assert.InDelta(t, sigma2, model.Variance, 1e-6)
	assert.InDelta(t, -n/2*(math.Log(2*math.Pi)+math.Log(sigma2)+1), model.LogLik, 1e-6)

	flat := NewWithOrder(Order{}, testOptions(t))
	require.NoError(t, flat.Fit(s))
	assert.Equal(t, 1, flat.Optimizer.FuncEvaluations)
	assert.Equal(t, "Converged", flat.Optimizer.Status)
}

func TestARIMAMissingValues(t *testing.T) {
	values := simulate(250, []float64{0.6}, nil, 7)
	values[10], values[100], values[101] = math.NaN(), math.NaN(), math.NaN()

	model := NewWithOrder(Order{P: 1}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))
	assert.InDelta(t, 0.6, model.ARCoeffs[0], 0.12)

	s := model.Summary()
	assert.Equal(t, 247, s.NObs)
	assert.Equal(t, 3, s.NMissing)
	assert.True(t, math.IsNaN(model.Residuals()[100]))
}

func TestARIMASummary(t *testing.T) {
	values := simulate(300, []float64{0.5}, nil, 8)

	model := NewWithOrder(Order{P: 1}, testOptions(t))
	require.NoError(t, model.Fit(timeseries.New(values)))

	s := model.Summary()
	require.NotNil(t, s.LjungBox)
	assert.Equal(t, 9, s.LjungBox.DOF)
	assert.Greater(t, s.LjungBox.PValue, 0.001)
	assert.InDelta(t, 2, s.DurbinWatson, 0.3)
	assert.Greater(t, s.Optimizer.FuncEvaluations, 0)
	assert.Equal(t, model.Optimizer, s.Optimizer)

	std := model.StandardizedResiduals()
	assert.InDelta(t, 1, timeseries.New(std).Variance(), 0.15)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"model":"ARIMA(1,0,0)"`)

	// An under-fitted model leaves autocorrelation in the residuals.
	strong := simulate(300, []float64{0.9}, nil, 9)
	under := NewWithOrder(Order{}, testOptions(t))
	require.NoError(t, under.Fit(timeseries.New(strong)))
	lb := stats.LjungBox(timeseries.New(under.Residuals()), 10, 0)
	assert.Less(t, lb.PValue, 1e-6)
	assert.Less(t, under.Summary().DurbinWatson, 1.0)
}

func TestARIMAIterationLimit(t *testing.T) {
	values := simulate(200, []float64{0.5}, []float64{0.4}, 10)

	opts := testOptions(t)
	opts.Optimizer.MaxIterations = 1
	model := NewWithOrder(Order{P: 1, Q: 1}, opts)
	require.NoError(t, model.Fit(timeseries.New(values)))
	assert.False(t, model.Optimizer.Converged)
	assert.Equal(t, "IterationLimit", model.Optimizer.Status)
	assert.Equal(t, 1, model.Optimizer.Iterations)
	assert.True(t, model.Fitted())
}

func TestARIMASumOfSquares(t *testing.T) {
	values := simulate(300, []float64{0.6}, nil, 11)

	opts := testOptions(t)
	opts.Criterion = likelihood.SumOfSquares
	model := NewWithOrder(Order{P: 1}, opts)
	require.NoError(t, model.Fit(timeseries.New(values)))
	assert.InDelta(t, 0.6, model.ARCoeffs[0], 0.12)
}

func TestARIMAFitErrors(t *testing.T) {
	short := timeseries.New(simulate(12, nil, nil, 12))
	err := New(2, 1, 1).Fit(short)
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))

	err = NewWithOrder(Order{SP: 1}, nil).Fit(timeseries.New(simulate(100, nil, nil, 13)))
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))

	opts := DefaultOptions()
	opts.Penalty = -1
	err = NewWithOrder(Order{P: 1}, opts).Fit(timeseries.New(simulate(100, nil, nil, 14)))
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))
}

func TestARIMAConstantSeries(t *testing.T) {
	flat := make([]float64, 50)
	trend := make([]float64, 50)
	for i := range flat {
		flat[i] = 5
		trend[i] = 2 + 0.5*float64(i)
	}
	flat[20] = math.NaN()

	model := New(0, 0, 0)
	err := model.Fit(timeseries.New(flat))
	assert.True(t, errors.Is(err, numerr.ErrNumericDegeneracy), "got %v", err)
	assert.Nil(t, model.Summary())

	err = NewWithOrder(Order{P: 1, D: 1}, testOptions(t)).Fit(timeseries.New(trend))
	assert.True(t, errors.Is(err, numerr.ErrNumericDegeneracy), "got %v", err)
}
