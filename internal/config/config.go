// Package config loads arimafit settings from defaults, an optional YAML
// file, ARIMAFIT_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sartorproj/mlarima/arima"
	"github.com/sartorproj/mlarima/bfgs"
	"github.com/sartorproj/mlarima/likelihood"
	"github.com/sartorproj/mlarima/linesearch"
	"github.com/sartorproj/mlarima/timeseries"
)

// EnvPrefix prefixes environment overrides: ARIMAFIT_MODEL_P=2.
const EnvPrefix = "ARIMAFIT"

// Config holds every arimafit setting, keyed the same way in config files,
// environment variables and flags.
type Config struct {
	Input      InputConfig      `mapstructure:"input"`
	Model      ModelConfig      `mapstructure:"model"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	LineSearch LineSearchConfig `mapstructure:"linesearch"`
	Log        LogConfig        `mapstructure:"log"`
}

// InputConfig locates the series and describes its CSV layout.
type InputConfig struct {
	Path        string `mapstructure:"path"`
	ValueColumn string `mapstructure:"value_column"`
	DateColumn  string `mapstructure:"date_column"`
	IDColumn    string `mapstructure:"id_column"`
	IDFilter    string `mapstructure:"id_filter"`
	Delimiter   string `mapstructure:"delimiter"`
	NoHeader    bool   `mapstructure:"no_header"`
}

// ModelConfig holds the model order and the likelihood settings.
type ModelConfig struct {
	P           int    `mapstructure:"p"`
	D           int    `mapstructure:"d"`
	Q           int    `mapstructure:"q"`
	SP          int    `mapstructure:"sp"`
	SD          int    `mapstructure:"sd"`
	SQ          int    `mapstructure:"sq"`
	Period      int    `mapstructure:"period"`
	IncludeMean bool   `mapstructure:"include_mean"`
	Criterion   string `mapstructure:"criterion"` // "ml" or "ss"

	Penalty            float64 `mapstructure:"penalty"`
	CheckStationarity  bool    `mapstructure:"check_stationarity"`
	CheckInvertibility bool    `mapstructure:"check_invertibility"`
	LjungBoxLags       int     `mapstructure:"ljung_box_lags"`
}

// OptimizerConfig mirrors bfgs.Settings.
type OptimizerConfig struct {
	GradientTolerance   float64 `mapstructure:"gradient_tolerance"`
	MaxIterations       int     `mapstructure:"max_iterations"`
	GradientStep        float64 `mapstructure:"gradient_step"`
	CurvatureEpsilon    float64 `mapstructure:"curvature_epsilon"`
	ScaleInitialHessian bool    `mapstructure:"scale_initial_hessian"`
}

// LineSearchConfig mirrors linesearch.Settings.
type LineSearchConfig struct {
	C1            float64 `mapstructure:"c1"`
	C2            float64 `mapstructure:"c2"`
	AlphaMax      float64 `mapstructure:"alpha_max"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// NewViper returns a viper instance with every key defaulted and
// environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the library defaults on v.
func SetDefaults(v *viper.Viper) {
	csv := timeseries.DefaultCSVOptions()
	v.SetDefault("input.path", "")
	v.SetDefault("input.value_column", csv.ValueColumn)
	v.SetDefault("input.date_column", "")
	v.SetDefault("input.id_column", "")
	v.SetDefault("input.id_filter", "")
	v.SetDefault("input.delimiter", string(csv.Delimiter))
	v.SetDefault("input.no_header", !csv.HasHeader)

	arimaOpts := arima.DefaultOptions()
	v.SetDefault("model.p", 0)
	v.SetDefault("model.d", 0)
	v.SetDefault("model.q", 0)
	v.SetDefault("model.sp", 0)
	v.SetDefault("model.sd", 0)
	v.SetDefault("model.sq", 0)
	v.SetDefault("model.period", 0)
	v.SetDefault("model.include_mean", false)
	v.SetDefault("model.criterion", "ml")
	v.SetDefault("model.penalty", likelihood.DefaultPenalty)
	v.SetDefault("model.check_stationarity", arimaOpts.CheckStationarity)
	v.SetDefault("model.check_invertibility", arimaOpts.CheckInvertibility)
	v.SetDefault("model.ljung_box_lags", arimaOpts.LjungBoxLags)

	opt := arimaOpts.Optimizer
	v.SetDefault("optimizer.gradient_tolerance", opt.GradientTolerance)
	v.SetDefault("optimizer.max_iterations", opt.MaxIterations)
	v.SetDefault("optimizer.gradient_step", opt.GradientStep)
	v.SetDefault("optimizer.curvature_epsilon", opt.CurvatureEpsilon)
	v.SetDefault("optimizer.scale_initial_hessian", opt.ScaleInitialHessian)

	ls := linesearch.DefaultSettings()
	v.SetDefault("linesearch.c1", ls.C1)
	v.SetDefault("linesearch.c2", ls.C2)
	v.SetDefault("linesearch.alpha_max", ls.AlphaMax)
	v.SetDefault("linesearch.max_iterations", ls.MaxIterations)

	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")
}

// Load reads the optional config file at path into v and decodes the
// result. The returned config has been validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Errorf(format, args...))
	}

	if c.Input.ValueColumn == "" && !c.Input.NoHeader {
		add("input.value_column is required")
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		add("input.delimiter %q must be a single character", c.Input.Delimiter)
	}
	if c.Input.IDFilter != "" && c.Input.IDColumn == "" {
		add("input.id_filter requires input.id_column")
	}

	if err := c.Order().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := parseCriterion(c.Model.Criterion); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Model.Penalty <= 0 || math.IsInf(c.Model.Penalty, 0) {
		add("model.penalty %v must be positive and finite", c.Model.Penalty)
	}
	if c.Model.LjungBoxLags < 1 {
		add("model.ljung_box_lags %d must be at least 1", c.Model.LjungBoxLags)
	}

	if !(c.Optimizer.GradientTolerance > 0) {
		add("optimizer.gradient_tolerance %v must be positive", c.Optimizer.GradientTolerance)
	}
	if c.Optimizer.MaxIterations < 1 {
		add("optimizer.max_iterations %d must be at least 1", c.Optimizer.MaxIterations)
	}
	if !(c.Optimizer.GradientStep > 0) {
		add("optimizer.gradient_step %v must be positive", c.Optimizer.GradientStep)
	}
	if c.Optimizer.CurvatureEpsilon < 0 {
		add("optimizer.curvature_epsilon %v must not be negative", c.Optimizer.CurvatureEpsilon)
	}
	if err := c.lineSearch().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.LineSearch.AlphaMax < 1 {
		add("linesearch.alpha_max %v must admit the unit step", c.LineSearch.AlphaMax)
	}

	return result.ErrorOrNil()
}

// Order returns the model order.
func (c *Config) Order() arima.Order {
	m := c.Model
	return arima.Order{
		P: m.P, D: m.D, Q: m.Q,
		SP: m.SP, SD: m.SD, SQ: m.SQ,
		Period:      m.Period,
		IncludeMean: m.IncludeMean,
	}
}

// Options returns the estimation options.
func (c *Config) Options(logger *zap.Logger) *arima.Options {
	criterion, _ := parseCriterion(c.Model.Criterion)
	opt := bfgs.DefaultSettings()
	opt.GradientTolerance = c.Optimizer.GradientTolerance
	opt.MaxIterations = c.Optimizer.MaxIterations
	opt.GradientStep = c.Optimizer.GradientStep
	opt.CurvatureEpsilon = c.Optimizer.CurvatureEpsilon
	opt.ScaleInitialHessian = c.Optimizer.ScaleInitialHessian
	opt.LineSearch = c.lineSearch()

	return &arima.Options{
		Optimizer:          opt,
		Criterion:          criterion,
		Penalty:            c.Model.Penalty,
		CheckStationarity:  c.Model.CheckStationarity,
		CheckInvertibility: c.Model.CheckInvertibility,
		LjungBoxLags:       c.Model.LjungBoxLags,
		Logger:             logger,
	}
}

// CSVOptions returns the input options.
func (c *Config) CSVOptions() *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	opts.ValueColumn = c.Input.ValueColumn
	opts.DateColumn = c.Input.DateColumn
	opts.IDColumn = c.Input.IDColumn
	opts.IDFilter = c.Input.IDFilter
	opts.HasHeader = !c.Input.NoHeader
	if r := []rune(c.Input.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts
}

func (c *Config) lineSearch() linesearch.Settings {
	s := linesearch.DefaultSettings()
	s.C1 = c.LineSearch.C1
	s.C2 = c.LineSearch.C2
	s.AlphaMax = c.LineSearch.AlphaMax
	s.MaxIterations = c.LineSearch.MaxIterations
	return s
}

func parseCriterion(s string) (likelihood.Criterion, error) {
	switch strings.ToLower(s) {
	case "ml", "":
		return likelihood.ExactLikelihood, nil
	case "ss":
		return likelihood.SumOfSquares, nil
	}
	return 0, errors.Errorf("model.criterion %q must be \"ml\" or \"ss\"", s)
}
