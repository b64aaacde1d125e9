// Package numdiff approximates derivatives by finite differences.
//
// The step h is always supplied by the caller. Central differences have
// O(h²) truncation error and cost two evaluations per coordinate; forward
// differences have O(h) error and cost one evaluation per coordinate when
// f(x) is already known.
package numdiff

import (
	"github.com/sartorproj/mlarima/numerr"
)

// CentralSlope returns (f(x+h/2) - f(x-h/2)) / h.
func CentralSlope(f func(float64) float64, x, h float64) float64 {
	return (f(x+h/2) - f(x-h/2)) / h
}

// ForwardSlope returns (f(x+h) - fx) / h where fx = f(x).
func ForwardSlope(f func(float64) float64, x, fx, h float64) float64 {
	return (f(x+h) - fx) / h
}

// CentralGradient estimates the gradient of f at x, perturbing each coordinate
// by ±h/2 while holding the others fixed. The result is stored in dst, which
// is allocated when nil, and returned. x is not modified.
func CentralGradient(dst []float64, f func([]float64) float64, x []float64, h float64) ([]float64, error) {
	dst, err := prepare(dst, x, h)
	if err != nil {
		return nil, err
	}

	xx := make([]float64, len(x))
	copy(xx, x)
	for i, xi := range x {
		xx[i] = xi + h/2
		fp := f(xx)
		xx[i] = xi - h/2
		fm := f(xx)
		xx[i] = xi
		dst[i] = (fp - fm) / h
	}
	return dst, nil
}

// ForwardGradient estimates the gradient of f at x with forward differences.
// fx must hold f(x).
func ForwardGradient(dst []float64, f func([]float64) float64, x []float64, fx, h float64) ([]float64, error) {
	dst, err := prepare(dst, x, h)
	if err != nil {
		return nil, err
	}

	xx := make([]float64, len(x))
	copy(xx, x)
	for i, xi := range x {
		xx[i] = xi + h
		dst[i] = (f(xx) - fx) / h
		xx[i] = xi
	}
	return dst, nil
}

func prepare(dst, x []float64, h float64) ([]float64, error) {
	if !(h > 0) {
		return nil, numerr.InvalidArgument("finite difference step %v is not positive", h)
	}
	if dst == nil {
		return make([]float64, len(x)), nil
	}
	if len(dst) != len(x) {
		return nil, numerr.InvalidArgument("gradient length %d does not match dimension %d", len(dst), len(x))
	}
	return dst, nil
}
