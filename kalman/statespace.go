package kalman

import (
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/mlarima/numerr"
)

// StateSpace is the state-space form of an ARMA(p, q) process.
type StateSpace struct {
	// T is the r×r transition matrix.
	T *mat.Dense
	// R maps the scalar disturbance into the state.
	R *mat.VecDense
	// Z maps the state to the observation.
	Z *mat.VecDense
}

// NewARMA returns the state-space form of the ARMA process with the given
// coefficients. The slices are copied.
func NewARMA(ar, ma []float64) *StateSpace {
	r := max(len(ar), len(ma)+1)

	t := mat.NewDense(r, r, nil)
	for i, phi := range ar {
		t.Set(i, 0, phi)
	}
	for i := 0; i < r-1; i++ {
		t.Set(i, i+1, 1)
	}

	rv := mat.NewVecDense(r, nil)
	rv.SetVec(0, 1)
	for i, theta := range ma {
		rv.SetVec(i+1, theta)
	}

	z := mat.NewVecDense(r, nil)
	z.SetVec(0, 1)

	return &StateSpace{T: t, R: rv, Z: z}
}

// Dim returns the state dimension r.
func (ss *StateSpace) Dim() int {
	r, _ := ss.T.Dims()
	return r
}

// disturbance returns R·Rᵀ.
func (ss *StateSpace) disturbance() *mat.SymDense {
	q := mat.NewSymDense(ss.Dim(), nil)
	q.SymOuterK(1, ss.R)
	return q
}

// predict returns T·P·Tᵀ + R·Rᵀ.
func (ss *StateSpace) predict(p mat.Symmetric, q *mat.SymDense) *mat.SymDense {
	r := ss.Dim()
	var tp, tpt mat.Dense
	tp.Mul(ss.T, p)
	tpt.Mul(&tp, ss.T.T())

	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, (tpt.At(i, j)+tpt.At(j, i))/2+q.At(i, j))
		}
	}
	return out
}

// packedIndex maps (i, j), i <= j, to the row-major upper triangle of an r×r
// symmetric matrix.
func packedIndex(r, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*(2*r-i+1)/2 + j - i
}

// InitialCovariance solves the discrete Lyapunov equation
//
//	P = T·P·Tᵀ + R·Rᵀ
//
// for the stationary state covariance, as a linear system over the
// r(r+1)/2 distinct entries of P. A singular system, or a solution with a
// non-positive variance, means the AR part is not stationary and returns an
// error wrapping numerr.ErrNumericDegeneracy.
func InitialCovariance(ss *StateSpace) (*mat.SymDense, error) {
	r := ss.Dim()
	m := r * (r + 1) / 2
	q := ss.disturbance()

	a := mat.NewDense(m, m, nil)
	b := mat.NewVecDense(m, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			row := packedIndex(r, i, j)
			b.SetVec(row, q.At(i, j))
			a.Set(row, row, a.At(row, row)+1)
			for k := 0; k < r; k++ {
				tik := ss.T.At(i, k)
				if tik == 0 {
					continue
				}
				for l := 0; l < r; l++ {
					tjl := ss.T.At(j, l)
					if tjl == 0 {
						continue
					}
					col := packedIndex(r, k, l)
					a.Set(row, col, a.At(row, col)-tik*tjl)
				}
			}
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, numerr.Degenerate("kalman: lyapunov system: %v", err)
	}

	p := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			p.SetSym(i, j, x.AtVec(packedIndex(r, i, j)))
		}
		if !(p.At(i, i) > 0) && q.At(i, i) > 0 {
			return nil, numerr.Degenerate("kalman: stationary variance P[%d][%d] = %v", i, i, p.At(i, i))
		}
	}
	return p, nil
}

// PackedInitialCovariance returns the upper triangle of the stationary state
// covariance of ARMA(ar, ma), row by row.
func PackedInitialCovariance(ar, ma []float64) ([]float64, error) {
	ss := NewARMA(ar, ma)
	p, err := InitialCovariance(ss)
	if err != nil {
		return nil, err
	}
	r := ss.Dim()
	packed := make([]float64, 0, r*(r+1)/2)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			packed = append(packed, p.At(i, j))
		}
	}
	return packed, nil
}
