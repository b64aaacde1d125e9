package arima

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sartorproj/mlarima/bfgs"
	"github.com/sartorproj/mlarima/likelihood"
	"github.com/sartorproj/mlarima/numerr"
	"github.com/sartorproj/mlarima/stats"
	"github.com/sartorproj/mlarima/timeseries"
)

// minObservations is the number of observations required beyond the
// parameter count and the differencing loss.
const minObservations = 10

// Model is a seasonal ARIMA model estimated by exact maximum likelihood.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // φ
	MACoeffs  []float64 // θ
	SARCoeffs []float64 // Φ
	SMACoeffs []float64 // Θ
	Intercept float64   // mean of the differenced series
	Variance  float64   // innovation variance σ²
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	Optimizer OptimizerStats

	opts      *Options
	log       *zap.Logger
	fitted    bool
	data      *timeseries.Series
	diffData  *timeseries.Series
	residuals []float64
	variances []float64
	nobs      int
}

// OptimizerStats summarizes the BFGS run behind a fit.
type OptimizerStats struct {
	Status          string  `json:"status"`
	Converged       bool    `json:"converged"`
	Iterations      int     `json:"iterations"`
	FuncEvaluations int     `json:"func_evaluations"`
	GradNorm        float64 `json:"grad_norm"`
	SkippedUpdates  int     `json:"skipped_updates"`
	Penalties       int     `json:"penalties"`
}

// New creates a non-seasonal ARIMA(p,d,q) model with default options. A mean
// is estimated when d == 0.
func New(p, d, q int) *Model {
	return NewWithOrder(Order{P: p, D: d, Q: q, IncludeMean: d == 0}, nil)
}

// NewWithOrder creates a model for order. A nil opts uses DefaultOptions.
func NewWithOrder(order Order, opts *Options) *Model {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{
		Order: order,
		opts:  opts,
		log:   log.With(zap.Stringer("model", order)),
	}
}

// Fit estimates the coefficients from series.
//
// Reaching the optimizer's iteration cap is not an error: the best iterate
// is kept and Optimizer.Converged is false.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.Validate(); err != nil {
		return err
	}
	spec := m.Order.spec(m.opts)
	if err := spec.Validate(); err != nil {
		return err
	}
	need := spec.NumParams() + m.Order.lost() + minObservations
	if got := len(series.Observed()); got < need {
		return numerr.InvalidArgument("arima: %v needs %d observations, got %d", m.Order, need, got)
	}

	m.fitted = false
	m.data = series
	m.diffData = m.difference(series)
	if constant(m.diffData.Observed()) {
		return numerr.Degenerate("arima: differenced series is constant, %v has no innovation variance", m.Order)
	}

	obj, err := likelihood.New(spec, m.diffData.Values, m.log)
	if err != nil {
		return err
	}
	x0 := m.startValues(obj)

	res, err := m.optimize(obj, x0)
	switch {
	case errors.Is(err, numerr.ErrNotConverged):
		m.log.Warn("Optimizer stopped before convergence",
			zap.Stringer("status", res.Status),
			zap.Float64("grad_norm", res.GradNorm))
	case err != nil:
		return errors.WithMessagef(err, "arima: fit %v", m.Order)
	}

	kr, err := obj.Evaluate(res.X)
	if err != nil {
		return errors.WithMessagef(err, "arima: evaluate %v at optimum", m.Order)
	}
	if sigma2, ll := kr.Sigma2(), kr.LogLikelihood(); !(sigma2 > 0) || math.IsNaN(ll) || math.IsInf(ll, 0) {
		return numerr.Degenerate("arima: %v at optimum has sigma2 %v, loglik %v", m.Order, sigma2, ll)
	}

	c, _ := spec.Split(res.X)
	m.ARCoeffs, m.MACoeffs = c.AR, c.MA
	m.SARCoeffs, m.SMACoeffs = c.SAR, c.SMA
	m.Intercept = c.Mean
	m.Variance = kr.Sigma2()
	m.LogLik = kr.LogLikelihood()
	m.residuals = kr.Innovations
	m.variances = kr.Variances
	m.nobs = kr.N
	m.Optimizer = OptimizerStats{
		Status:          res.Status.String(),
		Converged:       res.Status == bfgs.Converged,
		Iterations:      res.Iterations,
		FuncEvaluations: res.FuncEvaluations,
		GradNorm:        res.GradNorm,
		SkippedUpdates:  res.SkippedUpdates,
		Penalties:       obj.Penalties(),
	}
	m.calculateIC(spec.NumParams())
	m.fitted = true

	m.log.Debug("Model fitted",
		zap.Float64("loglik", m.LogLik),
		zap.Float64("sigma2", m.Variance),
		zap.Int("evaluations", res.FuncEvaluations))
	return nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// optimize minimizes obj from x0. A model with no free parameters has
// nothing to optimize.
func (m *Model) optimize(obj *likelihood.Objective, x0 []float64) (*bfgs.Result, error) {
	if len(x0) == 0 {
		return &bfgs.Result{F: obj.Func(x0), Status: bfgs.Converged, FuncEvaluations: 1}, nil
	}
	settings := *m.opts.Optimizer
	settings.Logger = m.log
	return bfgs.Minimize(obj.Problem(), x0, &settings)
}

// difference applies d regular and D seasonal differences.
func (m *Model) difference(series *timeseries.Series) *timeseries.Series {
	out := series.DiffN(m.Order.D)
	for i := 0; i < m.Order.SD; i++ {
		out = out.SeasonalDiff(m.Order.Period)
	}
	return out
}

// startValues seeds the AR terms with Yule-Walker estimates and the mean
// with the sample mean. Everything else starts at zero.
func (m *Model) startValues(obj *likelihood.Objective) []float64 {
	spec := obj.Spec()
	c := likelihood.Coefficients{
		AR:  make([]float64, spec.P),
		MA:  make([]float64, spec.Q),
		SAR: make([]float64, spec.SP),
		SMA: make([]float64, spec.SQ),
	}
	if spec.IncludeMean {
		c.Mean = m.diffData.Mean()
	}
	if spec.P > 0 {
		acf := stats.ACF(m.diffData, spec.P)
		phi, _, err := stats.YuleWalker(acf, spec.P)
		switch {
		case err != nil:
			m.log.Debug("Yule-Walker start failed, using zeros", zap.Error(err))
		case !likelihood.Stationary(phi):
			m.log.Debug("Yule-Walker start is not stationary, using zeros", zap.Float64s("ar", phi))
		default:
			c.AR = phi
		}
	}

	x0 := spec.Join(c)
	if _, err := obj.Evaluate(x0); err != nil {
		m.log.Debug("Start values rejected, using zeros", zap.Float64s("x0", x0), zap.Error(err))
		c.AR = make([]float64, spec.P)
		x0 = spec.Join(c)
	}
	return x0
}

// calculateIC fills AIC, AICc and BIC. k counts σ² as a parameter.
func (m *Model) calculateIC(coeffs int) {
	k := float64(coeffs + 1)
	n := float64(m.nobs)

	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

// Fitted reports whether Fit has succeeded.
func (m *Model) Fitted() bool { return m.fitted }

// Residuals returns the one-step prediction errors on the differenced
// scale. Missing observations give NaN.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// StandardizedResiduals returns v_t / √(F_t·σ²).
func (m *Model) StandardizedResiduals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	for i, v := range m.residuals {
		out[i] = v / math.Sqrt(m.variances[i]*m.Variance)
	}
	return out
}

// FittedValues returns the one-step predictions of the differenced series.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	y := m.diffData.Values
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v - m.residuals[i]
	}
	return out
}

// Differenced returns the series the coefficients were estimated on.
func (m *Model) Differenced() *timeseries.Series {
	if !m.fitted {
		return nil
	}
	return m.diffData.Copy()
}

// Summary describes a fitted model.
type Summary struct {
	Order        Order                 `json:"order"`
	Model        string                `json:"model"`
	ARCoeffs     []float64             `json:"ar"`
	MACoeffs     []float64             `json:"ma"`
	SARCoeffs    []float64             `json:"sar"`
	SMACoeffs    []float64             `json:"sma"`
	Intercept    float64               `json:"intercept"`
	Variance     float64               `json:"sigma2"`
	AIC          float64               `json:"aic"`
	AICc         float64               `json:"aicc"`
	BIC          float64               `json:"bic"`
	LogLik       float64               `json:"loglik"`
	NObs         int                   `json:"nobs"`
	NMissing     int                   `json:"nmissing"`
	LjungBox     *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	DurbinWatson float64               `json:"durbin_watson"`
	Optimizer    OptimizerStats        `json:"optimizer"`
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}
	std := timeseries.New(m.StandardizedResiduals())
	lb := stats.LjungBox(std, m.opts.LjungBoxLags, m.Order.NumCoeffs())

	return &Summary{
		Order:        m.Order,
		Model:        m.Order.String(),
		ARCoeffs:     m.ARCoeffs,
		MACoeffs:     m.MACoeffs,
		SARCoeffs:    m.SARCoeffs,
		SMACoeffs:    m.SMACoeffs,
		Intercept:    m.Intercept,
		Variance:     m.Variance,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		LogLik:       m.LogLik,
		NObs:         m.nobs,
		NMissing:     m.data.Missing(),
		LjungBox:     lb,
		DurbinWatson: stats.DurbinWatson(std.Values),
		Optimizer:    m.Optimizer,
	}
}
