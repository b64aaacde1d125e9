package linesearch

import (
	"math"

	"github.com/sartorproj/mlarima/interp"
	"github.com/sartorproj/mlarima/numdiff"
	"github.com/sartorproj/mlarima/numerr"
)

const (
	// expansion is the growth factor of the trial step while bracketing.
	expansion = 2.0
	// margin is the fraction of the bracket width that interpolated trials
	// must keep from either end.
	margin = 0.1
	// shrinkRatio is the width reduction a zoom trial must achieve not to
	// count as slow.
	shrinkRatio = 2.0 / 3
	// maxSlow is the number of consecutive slow trials that forces bisection.
	maxSlow = 3
)

// Settings configures a line search.
type Settings struct {
	// C1 is the sufficient decrease factor, in (0, 1).
	C1 float64
	// C2 is the curvature factor, in (C1, 1).
	C2 float64
	// AlphaMax caps the trial step.
	AlphaMax float64
	// MaxIterations bounds the number of trial evaluations over both the
	// bracketing and the zoom phase.
	MaxIterations int
	// SlopeStep is the central-difference step StrongWolfe uses for φ'.
	SlopeStep float64
}

// DefaultSettings returns the settings used by the BFGS optimizer.
func DefaultSettings() Settings {
	return Settings{
		C1:            1e-4,
		C2:            0.9,
		AlphaMax:      100,
		MaxIterations: 100,
		SlopeStep:     1e-6,
	}
}

// Validate reports the first setting that is out of range.
func (s Settings) Validate() error {
	switch {
	case !(s.C1 > 0 && s.C1 < 1):
		return numerr.InvalidArgument("c1 = %v is not in (0, 1)", s.C1)
	case !(s.C2 > s.C1 && s.C2 < 1):
		return numerr.InvalidArgument("c2 = %v is not in (c1, 1)", s.C2)
	case !(s.AlphaMax > 0):
		return numerr.InvalidArgument("alphaMax = %v is not positive", s.AlphaMax)
	case s.MaxIterations < 1:
		return numerr.InvalidArgument("max iterations = %d is less than 1", s.MaxIterations)
	}
	return nil
}

// Phi evaluates the restricted objective and its derivative at a step.
type Phi func(alpha float64) (value, slope float64)

// Result is the outcome of a line search.
type Result struct {
	Alpha float64
	Value float64 // φ(Alpha)
	Slope float64 // φ'(Alpha)

	// Evaluations counts calls to φ.
	Evaluations int
	// Converged is false when the iteration cap was reached or the bracket
	// collapsed before both Wolfe conditions held. Alpha is then the best
	// step found, which may be 0.
	Converged bool
}

// StrongWolfe searches along a scalar function f, estimating φ' with central
// differences of step s.SlopeStep. f0 and slope0 are φ(0) and φ'(0).
func StrongWolfe(f func(float64) float64, f0, slope0, alpha0 float64, s Settings) (Result, error) {
	if !(s.SlopeStep > 0) {
		return Result{}, numerr.InvalidArgument("slope step %v is not positive", s.SlopeStep)
	}
	phi := func(alpha float64) (float64, float64) {
		return f(alpha), numdiff.CentralSlope(f, alpha, s.SlopeStep)
	}
	return Search(phi, f0, slope0, alpha0, s)
}

// Search returns a step satisfying the strong Wolfe conditions for phi,
// starting the bracketing phase at alpha0. slope0 must be negative.
//
// Reaching s.MaxIterations is not an error: the best step found is returned
// with Converged == false.
func Search(phi Phi, f0, slope0, alpha0 float64, s Settings) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if !(slope0 < 0) {
		return Result{}, numerr.InvalidArgument("initial slope %v is not a descent", slope0)
	}
	if !(alpha0 > 0) {
		return Result{}, numerr.InvalidArgument("initial step %v is not positive", alpha0)
	}
	if alpha0 > s.AlphaMax {
		return Result{}, numerr.InvalidArgument("initial step %v exceeds alphaMax %v", alpha0, s.AlphaMax)
	}

	ls := &searcher{phi: phi, f0: f0, slope0: slope0, s: s}
	return ls.bracket(alpha0), nil
}

type point struct {
	alpha, value, slope float64
}

type searcher struct {
	phi        Phi
	f0, slope0 float64
	s          Settings

	iter  int
	evals int
}

func (ls *searcher) eval(alpha float64) point {
	ls.iter++
	ls.evals++
	v, d := ls.phi(alpha)
	return point{alpha: alpha, value: v, slope: d}
}

// decrease reports the sufficient decrease condition. It is false for NaN.
func (ls *searcher) decrease(p point) bool {
	return p.value <= ls.f0+ls.s.C1*p.alpha*ls.slope0
}

func (ls *searcher) curvature(p point) bool {
	return math.Abs(p.slope) <= -ls.s.C2*ls.slope0
}

func (ls *searcher) result(p point, converged bool) Result {
	return Result{
		Alpha:       p.alpha,
		Value:       p.value,
		Slope:       p.slope,
		Evaluations: ls.evals,
		Converged:   converged,
	}
}

func (ls *searcher) bracket(alpha float64) Result {
	prev := point{alpha: 0, value: ls.f0, slope: ls.slope0}
	for ls.iter < ls.s.MaxIterations {
		cur := ls.eval(alpha)
		if !ls.decrease(cur) || (prev.alpha > 0 && cur.value >= prev.value) {
			return ls.zoom(prev, cur)
		}
		if ls.curvature(cur) {
			return ls.result(cur, true)
		}
		if cur.slope >= 0 {
			// The minimum lies behind the trial.
			return ls.zoom(cur, prev)
		}
		prev = cur
		if cur.alpha >= ls.s.AlphaMax {
			break
		}
		alpha = math.Min(expansion*cur.alpha, ls.s.AlphaMax)
	}
	return ls.result(prev, false)
}

// zoom narrows [lo, hi] until a step satisfies both conditions. lo always
// satisfies sufficient decrease and has the lowest value seen so far, and
// lo.slope*(hi.alpha-lo.alpha) < 0.
func (ls *searcher) zoom(lo, hi point) Result {
	width := math.Abs(hi.alpha - lo.alpha)
	slow := 0
	for ls.iter < ls.s.MaxIterations {
		if lo.alpha == hi.alpha {
			return ls.result(lo, ls.decrease(lo) && ls.curvature(lo))
		}

		var alpha float64
		if slow >= maxSlow {
			alpha = (lo.alpha + hi.alpha) / 2
			slow = 0
		} else {
			alpha = interpolate(lo, hi)
		}
		if alpha == lo.alpha || alpha == hi.alpha {
			// The bracket is narrower than the float64 spacing.
			return ls.result(lo, false)
		}

		trial := ls.eval(alpha)
		if !ls.decrease(trial) || trial.value >= lo.value {
			hi = trial
		} else {
			if ls.curvature(trial) {
				return ls.result(trial, true)
			}
			if trial.slope*(hi.alpha-lo.alpha) >= 0 {
				hi = lo
			}
			lo = trial
		}

		next := math.Abs(hi.alpha - lo.alpha)
		if next > shrinkRatio*width {
			slow++
		} else {
			slow = 0
		}
		width = next
	}
	return ls.result(lo, false)
}

// interpolate picks a trial inside the bracket, trying the cubic, quadratic
// and secant minimizers in turn and falling back to the midpoint.
func interpolate(p, q point) float64 {
	if p.alpha > q.alpha {
		p, q = q, p
	}
	lo := p.alpha + margin*(q.alpha-p.alpha)
	hi := q.alpha - margin*(q.alpha-p.alpha)
	inside := func(x float64, err error) bool {
		return err == nil && x > lo && x < hi
	}

	if x, err := interp.CubicMinimum(p.alpha, q.alpha, p.value, q.value, p.slope, q.slope); inside(x, err) {
		return x
	}
	if x, err := interp.QuadraticMinimum(p.alpha, q.alpha, p.value, q.value, p.slope); inside(x, err) {
		return x
	}
	if x, err := interp.SecantMinimum(p.alpha, q.alpha, p.slope, q.slope); inside(x, err) {
		return x
	}
	return (p.alpha + q.alpha) / 2
}
