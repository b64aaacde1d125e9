package likelihood

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sartorproj/mlarima/bfgs"
	"github.com/sartorproj/mlarima/kalman"
	"github.com/sartorproj/mlarima/numerr"
)

// Objective evaluates a Spec against a fixed series. It is not safe for
// concurrent use: the evaluation counters are unsynchronized.
type Objective struct {
	spec   Spec
	series []float64
	logger *zap.Logger

	evaluations int
	penalties   int
}

// New returns an objective for series under spec. The series is copied;
// NaN values are treated as missing. A nil logger discards output.
func New(spec Spec, series []float64, logger *zap.Logger) (*Objective, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	observed := 0
	for _, y := range series {
		if math.IsInf(y, 0) {
			return nil, numerr.InvalidArgument("likelihood: series contains %v", y)
		}
		if !math.IsNaN(y) {
			observed++
		}
	}
	if observed <= spec.NumParams() {
		return nil, numerr.InvalidArgument("likelihood: %d observations for %d parameters", observed, spec.NumParams())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Objective{
		spec:   spec.withDefaults(),
		series: append([]float64(nil), series...),
		logger: logger,
	}, nil
}

// Spec returns the spec with defaults applied.
func (o *Objective) Spec() Spec { return o.spec }

// Dim returns the parameter count.
func (o *Objective) Dim() int { return o.spec.NumParams() }

// Evaluations returns the number of Func calls so far.
func (o *Objective) Evaluations() int { return o.evaluations }

// Penalties returns the number of Func calls that returned the penalty.
func (o *Objective) Penalties() int { return o.penalties }

// Problem wraps Func for bfgs.Minimize with numerical gradients.
func (o *Objective) Problem() bfgs.Problem {
	return bfgs.Problem{Func: o.Func}
}

// Func returns the value to minimize at params, or the spec's penalty when
// the parameters are rejected. It panics if len(params) != Dim().
func (o *Objective) Func(params []float64) float64 {
	o.evaluations++

	res, err := o.Evaluate(params)
	if errors.Is(err, numerr.ErrInvalidArgument) {
		panic(err)
	}
	if err != nil {
		return o.penalize(params, err)
	}

	var v float64
	switch o.spec.Criterion {
	case SumOfSquares:
		v = res.SumSquares
	default:
		v = -res.LogLikelihood()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return o.penalize(params, numerr.Degenerate("likelihood: objective value %v", v))
	}
	return v
}

func (o *Objective) penalize(params []float64, err error) float64 {
	o.penalties++
	o.logger.Debug("Parameters rejected",
		zap.Float64s("params", params),
		zap.Float64("penalty", o.spec.Penalty),
		zap.Error(err))
	return o.spec.Penalty
}

// Evaluate runs the filter at params and returns the full result. Rejected
// regions return an error wrapping numerr.ErrNumericDegeneracy; a parameter
// vector of the wrong length returns numerr.ErrInvalidArgument.
func (o *Objective) Evaluate(params []float64) (*kalman.Result, error) {
	c, err := o.spec.Split(params)
	if err != nil {
		return nil, err
	}
	for _, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, numerr.Degenerate("likelihood: non-finite parameter %v", v)
		}
	}

	ar := ExpandAR(c.AR, c.SAR, o.spec.Period)
	ma := ExpandMA(c.MA, c.SMA, o.spec.Period)
	if o.spec.CheckStationarity && !Stationary(ar) {
		return nil, numerr.Degenerate("likelihood: AR polynomial %v is not stationary", ar)
	}
	if o.spec.CheckInvertibility && !Invertible(ma) {
		return nil, numerr.Degenerate("likelihood: MA polynomial %v is not invertible", ma)
	}

	y := o.series
	if o.spec.IncludeMean {
		y = make([]float64, len(o.series))
		for i, v := range o.series {
			y[i] = v - c.Mean
		}
	}
	return kalman.Run(kalman.NewARMA(ar, ma), y)
}
