// Package stats provides the sample statistics the fitting driver needs:
// autocorrelations and Yule-Walker estimates for starting values, and
// residual diagnostics (Ljung-Box, Durbin-Watson) for the fit summary.
//
// Missing (NaN) observations are dropped before any statistic is computed.
package stats
