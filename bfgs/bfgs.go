package bfgs

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/mlarima/linesearch"
	"github.com/sartorproj/mlarima/numdiff"
	"github.com/sartorproj/mlarima/numerr"
)

// Problem is the objective to minimize.
type Problem struct {
	// Func evaluates the objective. It must not modify x.
	Func func(x []float64) float64
	// Grad stores the gradient at x in grad. If nil, the gradient is
	// estimated by central differences.
	Grad func(grad, x []float64)
}

// Status describes how a run ended.
type Status int

const (
	// NotTerminated is the status of a run still in progress.
	NotTerminated Status = iota
	// Converged means the gradient norm fell below the tolerance.
	Converged
	// IterationLimit means Settings.MaxIterations was reached.
	IterationLimit
	// LineSearchFailure means no step decreased the objective, even along
	// the steepest descent direction.
	LineSearchFailure
	// NoProgress means the accepted step no longer changed x.
	NoProgress
	// GradientFailure means the gradient at the current iterate is not finite.
	GradientFailure
)

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "NotTerminated"
	case Converged:
		return "Converged"
	case IterationLimit:
		return "IterationLimit"
	case LineSearchFailure:
		return "LineSearchFailure"
	case NoProgress:
		return "NoProgress"
	case GradientFailure:
		return "GradientFailure"
	}
	return "Unknown"
}

// Iterate is one point of the optimization trajectory.
type Iterate struct {
	X        []float64
	F        float64
	Gradient []float64
	// Direction is -H·Gradient; nil for the final iterate.
	Direction []float64
	// Step is the accepted step length along Direction.
	Step float64
	// InvHessian is H_k in row-major order.
	InvHessian []float64
}

// Result is the outcome of Minimize.
type Result struct {
	X        []float64
	F        float64
	Gradient []float64
	GradNorm float64
	Status   Status

	Iterations      int
	FuncEvaluations int
	GradEvaluations int
	// SkippedUpdates counts iterations whose curvature s·y was too small
	// for a safe inverse Hessian update.
	SkippedUpdates int

	Trajectory []Iterate
}

// Minimize minimizes p.Func starting from x0. If settings is nil,
// DefaultSettings is used.
//
// Invalid input returns a nil Result and an error wrapping
// numerr.ErrInvalidArgument. A run that stops for any reason other than
// convergence returns the best iterate together with an error wrapping
// numerr.ErrNotConverged, or numerr.ErrNumericDegeneracy when the gradient
// stops being finite.
func Minimize(p Problem, x0 []float64, settings *Settings) (*Result, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if p.Func == nil {
		return nil, numerr.InvalidArgument("bfgs: objective function is required")
	}
	if err := settings.validate(len(x0), p.Grad != nil); err != nil {
		return nil, err
	}
	for i, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, numerr.InvalidArgument("bfgs: x0[%d] = %v is not finite", i, v)
		}
	}

	o := newOptimizer(p, x0, settings)
	return o.run()
}

type optimizer struct {
	prob Problem
	s    *Settings
	log  *zap.Logger
	dim  int

	grad func(dst, x []float64)

	x, g    []float64
	f       float64
	invHess *mat.SymDense
	// fresh is set while invHess equals H_0.
	fresh bool
	first bool

	dir []float64

	// Line search trial state. xt and gt hold the location and gradient of
	// the most recent φ evaluation at step at.
	xt, gt []float64
	ft, at float64

	res Result
}

func newOptimizer(p Problem, x0 []float64, s *Settings) *optimizer {
	dim := len(x0)
	o := &optimizer{
		prob:    p,
		s:       s,
		log:     s.Logger,
		dim:     dim,
		x:       append([]float64(nil), x0...),
		g:       make([]float64, dim),
		invHess: s.initialInvHessian(dim),
		fresh:   true,
		first:   true,
		dir:     make([]float64, dim),
		xt:      make([]float64, dim),
		gt:      make([]float64, dim),
		at:      math.NaN(),
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if p.Grad != nil {
		o.grad = func(dst, x []float64) {
			o.res.GradEvaluations++
			p.Grad(dst, x)
		}
	} else {
		h := s.GradientStep
		o.grad = func(dst, x []float64) {
			o.res.GradEvaluations++
			// h and len(dst) are validated before the run starts.
			_, _ = numdiff.CentralGradient(dst, o.value, x, h)
		}
	}
	return o
}

func (o *optimizer) value(x []float64) float64 {
	o.res.FuncEvaluations++
	return o.prob.Func(x)
}

func (o *optimizer) run() (*Result, error) {
	o.f = o.value(o.x)
	if math.IsNaN(o.f) || math.IsInf(o.f, 0) {
		return nil, numerr.Degenerate("bfgs: objective at x0 is %v", o.f)
	}
	o.grad(o.g, o.x)

	status := NotTerminated
	for status == NotTerminated {
		gnorm := floats.Norm(o.g, 2)
		switch {
		case math.IsNaN(gnorm) || math.IsInf(gnorm, 0):
			status = GradientFailure
			continue
		case gnorm <= o.s.GradientTolerance:
			status = Converged
			continue
		case o.res.Iterations >= o.s.MaxIterations:
			status = IterationLimit
			continue
		}

		slope0 := o.direction()
		alpha, ok, err := o.lineSearch(slope0)
		if err != nil {
			o.finalize(LineSearchFailure)
			return &o.res, err
		}
		if !ok {
			if o.fresh {
				status = LineSearchFailure
				continue
			}
			o.log.Debug("bfgs: line search failed, resetting inverse Hessian",
				zap.Int("iter", o.res.Iterations))
			o.resetInvHessian()
			continue
		}

		o.record(alpha)
		o.res.Iterations++
		o.log.Debug("bfgs iteration",
			zap.Int("iter", o.res.Iterations),
			zap.Float64("f", o.ft),
			zap.Float64("step", alpha),
			zap.Float64("grad_norm", gnorm))

		moved := o.advance()
		if !moved {
			status = NoProgress
		}
	}

	o.finalize(status)
	switch status {
	case Converged:
		return &o.res, nil
	case GradientFailure:
		return &o.res, numerr.Degenerate("bfgs: gradient norm is %v after %d iterations",
			o.res.GradNorm, o.res.Iterations)
	}
	return &o.res, numerr.NotConverged("bfgs: %v after %d iterations, gradient norm %g",
		status, o.res.Iterations, o.res.GradNorm)
}

// direction sets o.dir = -H·g and returns the directional derivative g·dir.
// A non-descent direction resets H to H_0.
func (o *optimizer) direction() float64 {
	d := mat.NewVecDense(o.dim, o.dir)
	d.MulVec(o.invHess, mat.NewVecDense(o.dim, o.g))
	d.ScaleVec(-1, d)
	slope := floats.Dot(o.g, o.dir)
	if slope < 0 {
		return slope
	}
	if !o.fresh {
		o.log.Debug("bfgs: not a descent direction, resetting inverse Hessian",
			zap.Int("iter", o.res.Iterations), zap.Float64("slope", slope))
		o.resetInvHessian()
		return o.direction()
	}
	// H_0 is positive definite, so only round-off gets here.
	floats.ScaleTo(o.dir, -1, o.g)
	return -floats.Dot(o.g, o.g)
}

func (o *optimizer) resetInvHessian() {
	o.invHess = o.s.initialInvHessian(o.dim)
	o.fresh = true
	o.first = true
}

// phi evaluates the objective and its slope at x + alpha·dir, memoizing the
// latest evaluation in xt, gt, ft and at.
func (o *optimizer) phi(alpha float64) (float64, float64) {
	if alpha != o.at {
		floats.AddScaledTo(o.xt, o.x, alpha, o.dir)
		o.ft = o.value(o.xt)
		o.grad(o.gt, o.xt)
		o.at = alpha
	}
	return o.ft, floats.Dot(o.gt, o.dir)
}

// lineSearch selects the step along o.dir. On success xt, gt and ft hold the
// new location.
func (o *optimizer) lineSearch(slope0 float64) (float64, bool, error) {
	o.at = math.NaN()
	ls := o.s.LineSearch

	// Newton-like steps are often acceptable as they are.
	v, d := o.phi(1)
	if v <= o.f+ls.C1*slope0 && math.Abs(d) <= ls.C2*math.Abs(slope0) {
		return 1, true, nil
	}

	res, err := linesearch.Search(o.phi, o.f, slope0, 1, ls)
	if err != nil {
		return 0, false, err
	}
	if !res.Converged {
		o.log.Debug("bfgs: line search did not converge",
			zap.Int("iter", o.res.Iterations),
			zap.Float64("alpha", res.Alpha),
			zap.Int("evaluations", res.Evaluations))
		if !(res.Alpha > 0 && res.Value < o.f) {
			return 0, false, nil
		}
	}
	o.phi(res.Alpha)
	return res.Alpha, true, nil
}

// advance moves to the accepted trial point and updates the inverse Hessian.
// It reports whether x changed.
func (o *optimizer) advance() bool {
	s := make([]float64, o.dim)
	y := make([]float64, o.dim)
	floats.SubTo(s, o.xt, o.x)
	floats.SubTo(y, o.gt, o.g)
	moved := floats.Norm(s, 2) > 1e-16*(1+floats.Norm(o.x, 2))

	copy(o.x, o.xt)
	copy(o.g, o.gt)
	o.f = o.ft

	o.update(s, y)
	return moved
}

// update applies
//
//	H_{k+1} = (I - ρ s yᵀ) H_k (I - ρ y sᵀ) + ρ s sᵀ,  ρ = 1/(yᵀs)
//
// in its expanded form
//
//	H_{k+1} = H_k + (sᵀy + yᵀH_k y)/(sᵀy)² s sᵀ - (H_k y sᵀ + s yᵀ H_k)/(sᵀy).
//
// The update is skipped when sᵀy is not safely positive, which keeps H
// positive definite.
func (o *optimizer) update(sv, yv []float64) {
	sDotY := floats.Dot(sv, yv)
	if !(sDotY > o.s.CurvatureEpsilon*floats.Norm(sv, 2)*floats.Norm(yv, 2)) {
		o.res.SkippedUpdates++
		o.log.Debug("bfgs: skipping update on weak curvature",
			zap.Int("iter", o.res.Iterations), zap.Float64("s_dot_y", sDotY))
		return
	}

	s := mat.NewVecDense(o.dim, sv)
	y := mat.NewVecDense(o.dim, yv)
	if o.first && o.s.ScaleInitialHessian {
		o.invHess.ScaleSym(sDotY/mat.Dot(y, y), o.invHess)
	}
	o.first = false
	o.fresh = false

	yHy := mat.Inner(y, o.invHess, y)
	var hy mat.VecDense
	hy.MulVec(o.invHess, y)
	o.invHess.SymRankOne(o.invHess, (1+yHy/sDotY)/sDotY, s)
	o.invHess.RankTwo(o.invHess, -1/sDotY, &hy, s)
}

func (o *optimizer) record(alpha float64) {
	if !o.s.Record {
		return
	}
	o.res.Trajectory = append(o.res.Trajectory, Iterate{
		X:          append([]float64(nil), o.x...),
		F:          o.f,
		Gradient:   append([]float64(nil), o.g...),
		Direction:  append([]float64(nil), o.dir...),
		Step:       alpha,
		InvHessian: denseCopy(o.invHess),
	})
}

func (o *optimizer) finalize(status Status) {
	o.res.Status = status
	o.res.X = append([]float64(nil), o.x...)
	o.res.F = o.f
	o.res.Gradient = append([]float64(nil), o.g...)
	o.res.GradNorm = floats.Norm(o.g, 2)
	if o.s.Record {
		o.res.Trajectory = append(o.res.Trajectory, Iterate{
			X:          append([]float64(nil), o.x...),
			F:          o.f,
			Gradient:   append([]float64(nil), o.g...),
			InvHessian: denseCopy(o.invHess),
		})
	}
	o.log.Debug("bfgs finished",
		zap.Stringer("status", status),
		zap.Int("iterations", o.res.Iterations),
		zap.Int("func_evaluations", o.res.FuncEvaluations),
		zap.Float64("f", o.f),
		zap.Float64("grad_norm", o.res.GradNorm))
}

func denseCopy(a mat.Symmetric) []float64 {
	n := a.SymmetricDim()
	out := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, a.At(i, j))
		}
	}
	return out
}
