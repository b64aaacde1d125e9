package likelihood

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/mlarima/numerr"
)

// DefaultPenalty is returned for parameters the filter rejects.
const DefaultPenalty = 1e10

// Criterion selects the value an Objective minimizes.
type Criterion int

const (
	// ExactLikelihood minimizes the negative concentrated log-likelihood.
	ExactLikelihood Criterion = iota
	// SumOfSquares minimizes Σ v_t²/F_t, ignoring the Σ log F_t term.
	SumOfSquares
)

func (c Criterion) String() string {
	switch c {
	case ExactLikelihood:
		return "ML"
	case SumOfSquares:
		return "SS"
	default:
		return "Criterion(?)"
	}
}

// Spec describes the model an Objective evaluates. It is a value type;
// an Objective keeps its own copy.
type Spec struct {
	P, Q   int // non-seasonal AR and MA orders
	SP, SQ int // seasonal AR and MA orders
	Period int // seasonal period; required when SP or SQ is non-zero

	IncludeMean bool
	Criterion   Criterion

	// Penalty is the value returned for rejected parameters. Zero selects
	// DefaultPenalty.
	Penalty float64

	CheckStationarity  bool
	CheckInvertibility bool
}

// NumParams returns the length of the parameter vector.
func (s Spec) NumParams() int {
	n := s.P + s.Q + s.SP + s.SQ
	if s.IncludeMean {
		n++
	}
	return n
}

// Validate reports whether the spec describes a model.
func (s Spec) Validate() error {
	switch {
	case s.P < 0 || s.Q < 0 || s.SP < 0 || s.SQ < 0:
		return numerr.InvalidArgument("likelihood: negative order (%d,%d)(%d,%d)", s.P, s.Q, s.SP, s.SQ)
	case (s.SP > 0 || s.SQ > 0) && s.Period < 2:
		return numerr.InvalidArgument("likelihood: seasonal period %d is less than 2", s.Period)
	case s.Penalty < 0 || math.IsNaN(s.Penalty) || math.IsInf(s.Penalty, 0):
		return numerr.InvalidArgument("likelihood: penalty %v is not a finite non-negative value", s.Penalty)
	case s.Criterion != ExactLikelihood && s.Criterion != SumOfSquares:
		return numerr.InvalidArgument("likelihood: unknown criterion %d", int(s.Criterion))
	}
	return nil
}

func (s Spec) withDefaults() Spec {
	if s.Penalty == 0 {
		s.Penalty = DefaultPenalty
	}
	return s
}

// Coefficients is a parameter vector split by role.
type Coefficients struct {
	AR, MA   []float64
	SAR, SMA []float64
	Mean     float64
}

// Split slices params according to the spec's layout. The returned slices
// are copies.
func (s Spec) Split(params []float64) (Coefficients, error) {
	if len(params) != s.NumParams() {
		return Coefficients{}, numerr.InvalidArgument("likelihood: got %d parameters, want %d", len(params), s.NumParams())
	}
	var c Coefficients
	rest := params
	take := func(n int) []float64 {
		out := append([]float64(nil), rest[:n]...)
		rest = rest[n:]
		return out
	}
	c.AR = take(s.P)
	c.MA = take(s.Q)
	c.SAR = take(s.SP)
	c.SMA = take(s.SQ)
	if s.IncludeMean {
		c.Mean = rest[0]
	}
	return c, nil
}

// Join is the inverse of Split.
func (s Spec) Join(c Coefficients) []float64 {
	params := make([]float64, 0, s.NumParams())
	params = append(params, c.AR...)
	params = append(params, c.MA...)
	params = append(params, c.SAR...)
	params = append(params, c.SMA...)
	if s.IncludeMean {
		params = append(params, c.Mean)
	}
	return params
}

// ExpandAR multiplies (1 - Σφ_i Bⁱ)(1 - ΣΦ_j B^{js}) out and returns the
// coefficients a of the product written as 1 - Σa_k Bᵏ.
func ExpandAR(ar, sar []float64, period int) []float64 {
	return expand(ar, sar, period, -1)
}

// ExpandMA multiplies (1 + Σθ_i Bⁱ)(1 + ΣΘ_j B^{js}) out and returns the
// coefficients m of the product written as 1 + Σm_k Bᵏ.
func ExpandMA(ma, sma []float64, period int) []float64 {
	return expand(ma, sma, period, 1)
}

// expand multiplies two lag polynomials whose non-constant terms carry the
// given sign.
func expand(short, seasonal []float64, period int, sign float64) []float64 {
	if len(seasonal) == 0 {
		return append([]float64(nil), short...)
	}
	out := make([]float64, len(short)+len(seasonal)*period)
	copy(out, short)
	for j, big := range seasonal {
		lag := (j + 1) * period
		out[lag-1] += big
		for i, small := range short {
			out[lag+i] += sign * small * big
		}
	}
	return out
}

// Stationary reports whether every root of 1 - Σa_k zᵏ lies outside the
// unit circle.
func Stationary(ar []float64) bool {
	return companionStable(ar, 1)
}

// Invertible reports whether every root of 1 + Σm_k zᵏ lies outside the
// unit circle.
func Invertible(ma []float64) bool {
	return companionStable(ma, -1)
}

// companionStable reports whether the companion matrix of sign·c has
// spectral radius below one.
func companionStable(c []float64, sign float64) bool {
	n := len(c)
	for n > 0 && c[n-1] == 0 {
		n--
	}
	if n == 0 {
		return true
	}
	if n == 1 {
		return math.Abs(c[0]) < 1
	}

	comp := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		comp.Set(0, j, sign*c[j])
	}
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if !(cmplx.Abs(v) < 1) {
			return false
		}
	}
	return true
}
