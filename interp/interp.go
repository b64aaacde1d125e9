// Package interp implements the closed-form polynomial minimizers used by the
// line search to choose trial step lengths.
//
// All functions are pure. Every interpolant is built on the bracket
// [min(x1,x2), max(x1,x2)], so the order in which the two points are passed
// does not change the result.
package interp

import (
	"math"

	"github.com/sartorproj/mlarima/numerr"
)

// QuadraticMinimum returns the minimizer of the quadratic that passes through
// (x1, y1) and (x2, y2) and has slope dydx1 at the lower end of the bracket.
//
// An error wrapping numerr.ErrInvalidArgument is returned when x1 == x2 or when
// the fitted quadratic opens downward and so has no minimum.
func QuadraticMinimum(x1, x2, y1, y2, dydx1 float64) (float64, error) {
	if x1 == x2 {
		return math.NaN(), numerr.InvalidArgument("quadratic minimum: x1 == x2 (%v)", x1)
	}
	if x1 > x2 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
	}

	// q(x) = y1 + dydx1*(x-x1) + a*(x-x1)^2
	h := x2 - x1
	a := (y2 - y1 - dydx1*h) / (h * h)
	if !(a > 0) {
		return math.NaN(), numerr.InvalidArgument("quadratic minimum: curvature %v is not positive", a)
	}
	return x1 - dydx1/(2*a), nil
}

// CubicMinimum returns the local minimizer of the cubic that matches the
// values and slopes at both ends of the bracket [x1, x2].
//
// The slope must be negative at the lower end and positive at the upper end;
// together these guarantee that the cubic has a real minimizer. Violations, and
// x1 == x2, return an error wrapping numerr.ErrInvalidArgument.
func CubicMinimum(x1, x2, y1, y2, dydx1, dydx2 float64) (float64, error) {
	if x1 == x2 {
		return math.NaN(), numerr.InvalidArgument("cubic minimum: x1 == x2 (%v)", x1)
	}
	if x1 > x2 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
		dydx1, dydx2 = dydx2, dydx1
	}
	if dydx1 >= 0 {
		return math.NaN(), numerr.InvalidArgument("cubic minimum: slope %v at lower bound is not negative", dydx1)
	}
	if dydx2 <= 0 {
		return math.NaN(), numerr.InvalidArgument("cubic minimum: slope %v at upper bound is not positive", dydx2)
	}

	s := 3 * (y2 - y1) / (x2 - x1)
	z := s - dydx1 - dydx2
	w := math.Sqrt(z*z - dydx1*dydx2)
	return x1 + (x2-x1)*(w-dydx1-z)/(dydx2-dydx1+2*w), nil
}

// SecantMinimum returns the root of the straight line through the slopes
// (x1, dydx1) and (x2, dydx2), the secant estimate of a stationary point.
func SecantMinimum(x1, x2, dydx1, dydx2 float64) (float64, error) {
	if x1 == x2 {
		return math.NaN(), numerr.InvalidArgument("secant minimum: x1 == x2 (%v)", x1)
	}
	if dydx1 == dydx2 {
		return math.NaN(), numerr.InvalidArgument("secant minimum: equal slopes %v", dydx1)
	}
	return x2 - dydx2*(x2-x1)/(dydx2-dydx1), nil
}
