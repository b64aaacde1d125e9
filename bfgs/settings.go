package bfgs

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/mlarima/linesearch"
	"github.com/sartorproj/mlarima/numerr"
)

// Settings configures Minimize.
type Settings struct {
	// GradientTolerance is the gradient norm at which the run converges.
	GradientTolerance float64
	// MaxIterations bounds the number of major iterations.
	MaxIterations int
	// LineSearch configures the strong Wolfe search used when the unit step
	// is rejected.
	LineSearch linesearch.Settings
	// GradientStep is the central-difference step used when Problem.Grad is nil.
	GradientStep float64

	// InitialInvHessian is H_0. It must be symmetric positive definite.
	// If nil, the identity is used.
	InitialInvHessian mat.Symmetric
	// ScaleInitialHessian rescales H_0 by s·y / y·y before the first update
	// (Nocedal & Wright, eq. 6.20).
	ScaleInitialHessian bool
	// CurvatureEpsilon skips the update when s·y <= CurvatureEpsilon·‖s‖·‖y‖.
	CurvatureEpsilon float64

	// Record keeps every iterate in Result.Trajectory.
	Record bool
	// Logger receives debug output. If nil, nothing is logged.
	Logger *zap.Logger
}

// DefaultSettings returns the default optimizer settings.
func DefaultSettings() *Settings {
	return &Settings{
		GradientTolerance: 1e-6,
		MaxIterations:     1000,
		LineSearch:        linesearch.DefaultSettings(),
		GradientStep:      1e-6,
		CurvatureEpsilon:  1e-10,
	}
}

func (s *Settings) validate(dim int, analytic bool) error {
	switch {
	case dim == 0:
		return numerr.InvalidArgument("bfgs: empty starting point")
	case !(s.GradientTolerance > 0):
		return numerr.InvalidArgument("bfgs: gradient tolerance %v is not positive", s.GradientTolerance)
	case s.MaxIterations < 1:
		return numerr.InvalidArgument("bfgs: max iterations %d is less than 1", s.MaxIterations)
	case !analytic && !(s.GradientStep > 0):
		return numerr.InvalidArgument("bfgs: gradient step %v is not positive", s.GradientStep)
	case s.CurvatureEpsilon < 0 || math.IsNaN(s.CurvatureEpsilon):
		return numerr.InvalidArgument("bfgs: curvature epsilon %v is negative", s.CurvatureEpsilon)
	case s.LineSearch.AlphaMax < 1:
		return numerr.InvalidArgument("bfgs: alphaMax %v does not admit the unit step", s.LineSearch.AlphaMax)
	}
	if err := s.LineSearch.Validate(); err != nil {
		return err
	}
	if s.InitialInvHessian != nil {
		if n := s.InitialInvHessian.SymmetricDim(); n != dim {
			return numerr.InvalidArgument("bfgs: initial inverse Hessian is %d×%d, want %d×%d", n, n, dim, dim)
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(s.InitialInvHessian); !ok {
			return numerr.InvalidArgument("bfgs: initial inverse Hessian is not positive definite")
		}
	}
	return nil
}

// initialInvHessian returns a fresh copy of H_0.
func (s *Settings) initialInvHessian(dim int) *mat.SymDense {
	h := mat.NewSymDense(dim, nil)
	if s.InitialInvHessian != nil {
		h.CopySym(s.InitialInvHessian)
		return h
	}
	for i := 0; i < dim; i++ {
		h.SetSym(i, i, 1)
	}
	return h
}
