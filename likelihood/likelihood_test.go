package likelihood

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/mlarima/bfgs"
	"github.com/sartorproj/mlarima/kalman"
	"github.com/sartorproj/mlarima/numerr"
)

// simulateARMA draws a zero-mean ARMA(1,1) sample with a fixed seed.
func simulateARMA(n int, phi, theta float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	const burn = 100
	out := make([]float64, n+burn)
	prevY, prevE := 0.0, 0.0
	for i := range out {
		e := rng.NormFloat64()
		out[i] = phi*prevY + e + theta*prevE
		prevY, prevE = out[i], e
	}
	return out[burn:]
}

func TestSpecLayout(t *testing.T) {
	s := Spec{P: 2, Q: 1, SP: 1, SQ: 1, Period: 4, IncludeMean: true}
	require.Equal(t, 6, s.NumParams())

	params := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 9}
	c, err := s.Split(params)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, c.AR)
	assert.Equal(t, []float64{0.3}, c.MA)
	assert.Equal(t, []float64{0.4}, c.SAR)
	assert.Equal(t, []float64{0.5}, c.SMA)
	assert.Equal(t, 9.0, c.Mean)
	assert.Equal(t, params, s.Join(c))

	c.AR[0] = 42
	assert.Equal(t, 0.1, params[0], "Split must copy")

	_, err = s.Split(params[:5])
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))
}

func TestSpecValidate(t *testing.T) {
	tests := map[string]Spec{
		"negative order":      {P: -1},
		"seasonal no period":  {SP: 1},
		"seasonal period one": {SQ: 1, Period: 1},
		"negative penalty":    {P: 1, Penalty: -1},
		"infinite penalty":    {P: 1, Penalty: math.Inf(1)},
		"unknown criterion":   {P: 1, Criterion: Criterion(7)},
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(s.Validate(), numerr.ErrInvalidArgument))
		})
	}
	assert.NoError(t, Spec{P: 1, Q: 1, SP: 1, Period: 12}.Validate())
}

func TestExpand(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5, 0, 0, 0.3, -0.15}, ExpandAR([]float64{0.5}, []float64{0.3}, 4), 1e-15)
	assert.InDeltaSlice(t, []float64{0.4, 0, 0, 0.2, 0.08}, ExpandMA([]float64{0.4}, []float64{0.2}, 4), 1e-15)
	assert.Equal(t, []float64{0.1, 0.2}, ExpandAR([]float64{0.1, 0.2}, nil, 12))
	assert.Equal(t, []float64{0, 0.7}, ExpandMA(nil, []float64{0.7}, 2))
	assert.Empty(t, ExpandAR(nil, nil, 0))
}

func TestStationaryAndInvertible(t *testing.T) {
	assert.True(t, Stationary(nil))
	assert.True(t, Stationary([]float64{0.5}))
	assert.True(t, Stationary([]float64{0.5, -0.3}))
	assert.True(t, Stationary([]float64{0.5, 0, 0, 0}))
	assert.False(t, Stationary([]float64{1}))
	assert.False(t, Stationary([]float64{1.2}))
	assert.False(t, Stationary([]float64{0.5, 0.6}))
	assert.False(t, Stationary([]float64{0, 0, 0, 1.2}))

	assert.True(t, Invertible([]float64{0.5}))
	assert.True(t, Invertible([]float64{-0.5, 0.2}))
	assert.False(t, Invertible([]float64{-1.5}))
	// 1 + 2.5z + z² = (1 + 2z)(1 + 0.5z) has a root inside the circle.
	assert.False(t, Invertible([]float64{2.5, 1}))
}

func TestFuncIsNegativeLogLikelihood(t *testing.T) {
	y := simulateARMA(150, 0.5, 0.3, 1)
	obj, err := New(Spec{P: 1, Q: 1}, y, zaptest.NewLogger(t))
	require.NoError(t, err)

	ll, err := kalman.LogLikelihood([]float64{0.4}, []float64{0.2}, y)
	require.NoError(t, err)
	assert.Equal(t, -ll, obj.Func([]float64{0.4, 0.2}))
	assert.Equal(t, 1, obj.Evaluations())
	assert.Equal(t, 0, obj.Penalties())
}

func TestFuncSumOfSquares(t *testing.T) {
	y := simulateARMA(80, 0.5, 0, 2)
	obj, err := New(Spec{P: 1, Criterion: SumOfSquares}, y, nil)
	require.NoError(t, err)

	res, err := kalman.Run(kalman.NewARMA([]float64{0.5}, nil), y)
	require.NoError(t, err)
	assert.Equal(t, res.SumSquares, obj.Func([]float64{0.5}))
}

func TestFuncWithMean(t *testing.T) {
	y := simulateARMA(100, 0.6, 0, 3)
	shifted := make([]float64, len(y))
	for i, v := range y {
		shifted[i] = v + 10
	}
	obj, err := New(Spec{P: 1, IncludeMean: true}, shifted, nil)
	require.NoError(t, err)

	ll, err := kalman.LogLikelihood([]float64{0.6}, nil, y)
	require.NoError(t, err)
	assert.InDelta(t, -ll, obj.Func([]float64{0.6, 10}), 1e-9)
}

func TestFuncSeasonal(t *testing.T) {
	y := simulateARMA(120, 0.4, 0, 4)
	obj, err := New(Spec{P: 1, SP: 1, SQ: 1, Period: 4}, y, nil)
	require.NoError(t, err)

	ar := ExpandAR([]float64{0.3}, []float64{0.2}, 4)
	ma := ExpandMA(nil, []float64{0.1}, 4)
	ll, err := kalman.LogLikelihood(ar, ma, y)
	require.NoError(t, err)
	assert.Equal(t, -ll, obj.Func([]float64{0.3, 0.2, 0.1}))
}

func TestFuncPenalties(t *testing.T) {
	y := simulateARMA(60, 0.5, 0, 5)

	obj, err := New(Spec{P: 1, Q: 1, Penalty: 1e6}, y, zaptest.NewLogger(t))
	require.NoError(t, err)
	// Explosive AR: the filter itself fails.
	assert.Equal(t, 1e6, obj.Func([]float64{1.5, 0}))
	assert.Equal(t, 1e6, obj.Func([]float64{math.NaN(), 0}))
	// A non-invertible MA runs fine unless checked.
	assert.Less(t, obj.Func([]float64{0.5, 2}), 1e6)
	assert.Equal(t, 3, obj.Evaluations())
	assert.Equal(t, 2, obj.Penalties())

	checked, err := New(Spec{P: 1, Q: 1, CheckStationarity: true, CheckInvertibility: true}, y, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPenalty, checked.Spec().Penalty)
	assert.Equal(t, DefaultPenalty, checked.Func([]float64{0.5, 2}))
	assert.Equal(t, DefaultPenalty, checked.Func([]float64{-1, 0}))

	_, err = checked.Evaluate([]float64{0.5, 2})
	assert.True(t, errors.Is(err, numerr.ErrNumericDegeneracy))
}

func TestFuncPanicsOnWrongLength(t *testing.T) {
	obj, err := New(Spec{P: 1}, simulateARMA(20, 0.5, 0, 6), nil)
	require.NoError(t, err)
	assert.Panics(t, func() { obj.Func([]float64{0.1, 0.2}) })
}

func TestNewInvalid(t *testing.T) {
	_, err := New(Spec{P: 2, Q: 2}, []float64{1, 2, 3, math.NaN()}, nil)
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))

	_, err = New(Spec{P: 1}, []float64{1, math.Inf(1), 3, 4}, nil)
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))

	_, err = New(Spec{SP: 1}, simulateARMA(50, 0, 0, 7), nil)
	assert.True(t, errors.Is(err, numerr.ErrInvalidArgument))
}

func TestObjectiveMinimizedByBFGS(t *testing.T) {
	y := simulateARMA(400, 0.6, 0, 8)
	obj, err := New(Spec{P: 1}, y, zaptest.NewLogger(t))
	require.NoError(t, err)

	settings := bfgs.DefaultSettings()
	settings.GradientTolerance = 1e-4
	res, err := bfgs.Minimize(obj.Problem(), []float64{0}, settings)
	if err != nil {
		require.True(t, errors.Is(err, numerr.ErrNotConverged), err.Error())
	}

	assert.Equal(t, res.FuncEvaluations, obj.Evaluations())
	assert.InDelta(t, 0.6, res.X[0], 0.1)
	assert.LessOrEqual(t, res.F, obj.Func([]float64{0.6}))
	assert.LessOrEqual(t, res.F, obj.Func([]float64{res.X[0] + 0.01}))
	assert.LessOrEqual(t, res.F, obj.Func([]float64{res.X[0] - 0.01}))
}
