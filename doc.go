// Package mlarima estimates ARMA and seasonal ARIMA models by exact
// Gaussian maximum likelihood.
//
// The likelihood is evaluated with a Kalman filter over the state-space form
// of the ARMA process and minimized with a BFGS quasi-Newton optimizer using
// a strong Wolfe line search.
//
// # Packages
//
//   - interp: one-dimensional polynomial minimizers used by the line search
//   - numdiff: central and forward difference slopes and gradients
//   - linesearch: strong Wolfe bracketing and zoom
//   - bfgs: the quasi-Newton optimizer
//   - kalman: ARMA state space, stationary covariance and the filter
//   - likelihood: the objective adapter between kalman and bfgs
//   - arima: differencing, start values, fitting and the model summary
//   - stats: autocorrelations, Yule-Walker and residual tests
//   - timeseries: the series container and CSV input
//   - numerr: the error kinds shared by all of the above
//
// # Quick Start
//
//	series, err := timeseries.LoadCSV("air.csv", nil)
//	if err != nil {
//	    return err
//	}
//	model := arima.NewWithOrder(arima.Order{Q: 1, D: 1, SQ: 1, SD: 1, Period: 12}, nil)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	fmt.Println(model.Summary().AICc)
//
// The arimafit command wraps the same steps behind a CLI.
//
// # References
//
//   - Durbin, J., & Koopman, S. J. (2012). Time Series Analysis by State Space Methods
//   - Nocedal, J., & Wright, S. J. (2006). Numerical Optimization
package mlarima
