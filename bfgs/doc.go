// Package bfgs minimizes smooth multivariate functions with the
// Broyden–Fletcher–Goldfarb–Shanno quasi-Newton method.
//
// The optimizer maintains an approximation H of the inverse Hessian. Each
// iteration moves along p = -H·g, first trying the unit step and otherwise
// choosing a step with the strong Wolfe line search, then applies the rank-two
// BFGS update to H. When no gradient is supplied it is estimated with central
// differences.
//
// Basic usage:
//
//	problem := bfgs.Problem{Func: f}
//	res, err := bfgs.Minimize(problem, x0, nil)
//	if err != nil && !errors.Is(err, numerr.ErrNotConverged) {
//	    return err
//	}
//	fmt.Println(res.X, res.F, res.FuncEvaluations)
//
// Runs are deterministic: identical inputs produce bit-identical trajectories.
package bfgs
