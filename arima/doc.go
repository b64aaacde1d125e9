// Package arima fits seasonal ARIMA models by exact maximum likelihood.
//
// The series is differenced according to the order, the ARMA coefficients
// (and optionally a mean) are estimated by minimizing the negative Kalman
// filter log-likelihood with BFGS, and the filter is re-run at the optimum
// for residuals and information criteria:
//
//	model := arima.NewWithOrder(arima.Order{P: 1, D: 1, Q: 1, SQ: 1, SD: 1, Period: 12}, nil)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	s := model.Summary()
//	fmt.Printf("%s AICc=%.2f σ²=%.4f\n", s.Model, s.AICc, s.Variance)
//
// Forecasting and automatic order selection are outside this package.
package arima
