// Package numerr defines the error kinds shared by the optimizer, the line
// search, the interpolation routines and the Kalman filter.
//
// Every error returned by those packages wraps exactly one of the sentinels
// below, so callers branch with errors.Is:
//
//	res, err := bfgs.Minimize(problem, x0, nil)
//	if errors.Is(err, numerr.ErrNotConverged) {
//	    // res still holds the best iterate found
//	}
package numerr

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument reports a violated precondition: mismatched
	// dimensions, a non-positive tolerance, coincident interpolation points.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumericDegeneracy reports a computation that cannot proceed, such as
	// a non-positive innovation variance or a singular Lyapunov system.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")

	// ErrNotConverged reports that an iteration cap was reached or no further
	// progress was possible. The accompanying result is the best found.
	ErrNotConverged = errors.New("not converged")
)

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrInvalidArgument, format, args...)
}

// Degenerate returns an error wrapping ErrNumericDegeneracy.
func Degenerate(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrNumericDegeneracy, format, args...)
}

// NotConverged returns an error wrapping ErrNotConverged.
func NotConverged(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrNotConverged, format, args...)
}
