// Package likelihood turns the Kalman filter into an objective function for
// the optimizer.
//
// An Objective maps a flat parameter vector, laid out as
//
//	[ar(P) | ma(Q) | sar(SP) | sma(SQ) | mean?]
//
// to the negative exact Gaussian log-likelihood of a series. Seasonal
// factors are multiplied out into plain AR and MA polynomials before
// filtering. Regions where the filter cannot run, or which fail the
// optional stationarity and invertibility checks, evaluate to a large
// finite penalty instead of NaN or ±Inf, so the line search can back off:
//
//	obj, err := likelihood.New(likelihood.Spec{P: 1, Q: 1}, values, logger)
//	if err != nil {
//	    return err
//	}
//	res, err := bfgs.Minimize(obj.Problem(), make([]float64, obj.Dim()), nil)
package likelihood
