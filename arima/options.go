package arima

import (
	"go.uber.org/zap"

	"github.com/sartorproj/mlarima/bfgs"
	"github.com/sartorproj/mlarima/likelihood"
)

// Options tunes the estimation.
type Options struct {
	// Optimizer configures the BFGS run. Its Logger is replaced by Logger.
	Optimizer *bfgs.Settings
	// Criterion is the value minimized over the coefficients.
	Criterion likelihood.Criterion
	// Penalty is returned for rejected coefficients; zero selects
	// likelihood.DefaultPenalty.
	Penalty float64

	CheckStationarity  bool
	CheckInvertibility bool

	// LjungBoxLags is the number of lags tested in Summary.
	LjungBoxLags int

	Logger *zap.Logger
}

// DefaultOptions returns exact maximum likelihood with both region checks
// enabled.
func DefaultOptions() *Options {
	opt := bfgs.DefaultSettings()
	opt.GradientTolerance = 1e-4
	opt.GradientStep = 1e-5
	opt.MaxIterations = 200
	return &Options{
		Optimizer:          opt,
		Criterion:          likelihood.ExactLikelihood,
		CheckStationarity:  true,
		CheckInvertibility: true,
		LjungBoxLags:       10,
	}
}
