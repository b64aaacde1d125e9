// Package kalman evaluates the exact Gaussian likelihood of an ARMA process
// with a Kalman filter over its state-space form.
//
// For AR coefficients φ₁..φₚ and MA coefficients θ₁..θ_q the state has
// dimension r = max(p, q+1) and evolves as
//
//	α_{t+1} = T·α_t + R·ε_t,   y_t = Z·α_t
//
// where T carries φ in its first column and ones on the superdiagonal,
// R = (1, θ₁, .., θ_q) and Z = (1, 0, .., 0). The filter starts from the
// stationary covariance P₀ = T·P₀·Tᵀ + R·Rᵀ and accumulates one-step
// prediction errors v_t and their variances F_t.
//
// Basic usage:
//
//	ll, err := kalman.LogLikelihood([]float64{0.5}, []float64{0.3}, y)
//
// Reference:
//   - Durbin, J., Koopman, S.J.: Time Series Analysis by State Space Methods
//     (2nd ed), Oxford University Press (2012), section 3.4.
package kalman
