// Package linesearch finds step lengths satisfying the strong Wolfe conditions.
//
// Given the restriction φ(α) = f(x + α·p) of an objective along a descent
// direction p, a step α is accepted when
//
//	φ(α) <= φ(0) + c1·α·φ'(0)   (sufficient decrease)
//	|φ'(α)| <= c2·|φ'(0)|        (curvature)
//
// The search first brackets an acceptable step by doubling the trial, then
// zooms into the bracket using the interp package to pick trial points.
//
// Reference:
//   - Nocedal, J., Wright, S.: Numerical Optimization (2nd ed), Springer (2006),
//     Algorithms 3.5 and 3.6.
package linesearch
