package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sartorproj/mlarima/arima"
	"github.com/sartorproj/mlarima/internal/config"
	"github.com/sartorproj/mlarima/internal/logging"
	"github.com/sartorproj/mlarima/timeseries"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"p":            "model.p",
	"d":            "model.d",
	"q":            "model.q",
	"sp":           "model.sp",
	"sd":           "model.sd",
	"sq":           "model.sq",
	"period":       "model.period",
	"include-mean": "model.include_mean",
	"criterion":    "model.criterion",
	"value-column": "input.value_column",
	"date-column":  "input.date_column",
	"id-column":    "input.id_column",
	"id-filter":    "input.id_filter",
	"delimiter":    "input.delimiter",
	"no-header":    "input.no_header",
	"max-iter":     "optimizer.max_iterations",
	"gtol":         "optimizer.gradient_tolerance",
	"dev":          "log.development",
	"log-level":    "log.level",
}

func rootCmd() *cobra.Command {
	v := config.NewViper()
	var (
		configPath    string
		residualsPath string
	)

	cmd := &cobra.Command{
		Use:   "arimafit [flags] <series.csv>",
		Short: "arimafit estimates a seasonal ARIMA model by exact maximum likelihood.",
		Long: `arimafit reads a series from CSV, fits ARIMA(p,d,q)(P,D,Q)[m] by
maximizing the Kalman filter likelihood with BFGS, and prints a JSON summary.
Settings come from defaults, --config, ARIMAFIT_* variables and flags.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("input.path", args[0])
			}
			return run(cmd, v, configPath, residualsPath)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&residualsPath, "residuals", "", "write residuals to this CSV file")
	f.Int("p", 0, "AR order")
	f.Int("d", 0, "differencing order")
	f.Int("q", 0, "MA order")
	f.Int("sp", 0, "seasonal AR order")
	f.Int("sd", 0, "seasonal differencing order")
	f.Int("sq", 0, "seasonal MA order")
	f.Int("period", 0, "seasonal period")
	f.Bool("include-mean", false, "estimate a mean for the differenced series")
	f.String("criterion", "ml", `objective: "ml" (exact likelihood) or "ss" (sum of squares)`)
	f.String("value-column", "y", "CSV column holding the observations")
	f.String("date-column", "", "CSV column holding timestamps")
	f.String("id-column", "", "CSV column to filter on")
	f.String("id-filter", "", "keep rows whose id column equals this value")
	f.String("delimiter", ",", "CSV field delimiter")
	f.Bool("no-header", false, "CSV has no header row")
	f.Int("max-iter", 0, "BFGS iteration cap")
	f.Float64("gtol", 0, "BFGS gradient norm tolerance")
	f.Bool("dev", false, "human readable development logging")
	f.String("log-level", "info", "log level")

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, configPath, residualsPath string) error {
	c, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	if c.Input.Path == "" {
		return errors.New("no input series: pass a CSV path or set input.path")
	}

	logger, err := logging.New(c.Log.Development, c.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	series, err := timeseries.LoadCSV(c.Input.Path, c.CSVOptions())
	if err != nil {
		return err
	}
	logger.Info("Loaded series",
		zap.String("path", c.Input.Path),
		zap.Int("observations", series.Len()),
		zap.Int("missing", series.Missing()))

	model := arima.NewWithOrder(c.Order(), c.Options(logger))
	if err := model.Fit(series); err != nil {
		return err
	}
	summary := model.Summary()
	logger.Info("Fit complete",
		zap.String("model", summary.Model),
		zap.Float64("loglik", summary.LogLik),
		zap.Float64("aicc", summary.AICc),
		zap.String("optimizer", summary.Optimizer.Status))

	if residualsPath != "" {
		if err := writeResiduals(residualsPath, model); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(summary), "encode summary")
}

func writeResiduals(path string, model *arima.Model) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create residuals file")
	}
	defer out.Close()

	resid := &timeseries.Series{
		Timestamps: model.Differenced().Timestamps,
		Values:     model.Residuals(),
		Name:       "residuals",
	}
	if err := timeseries.WriteCSV(out, resid); err != nil {
		return err
	}
	return errors.Wrap(out.Close(), "close residuals file")
}
