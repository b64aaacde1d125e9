package arima

import (
	"fmt"

	"github.com/sartorproj/mlarima/likelihood"
	"github.com/sartorproj/mlarima/numerr"
)

// Order is a seasonal ARIMA order (p,d,q)(P,D,Q)[m].
type Order struct {
	P int `json:"p"` // AR order
	D int `json:"d"` // differencing order
	Q int `json:"q"` // MA order

	SP     int `json:"sp"`     // seasonal AR order
	SD     int `json:"sd"`     // seasonal differencing order
	SQ     int `json:"sq"`     // seasonal MA order
	Period int `json:"period"` // seasonal period

	// IncludeMean estimates a constant mean for the differenced series.
	IncludeMean bool `json:"include_mean"`
}

// Seasonal reports whether any seasonal term is present.
func (o Order) Seasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Period)
}

// Validate reports whether o is a usable order.
func (o Order) Validate() error {
	switch {
	case o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0:
		return numerr.InvalidArgument("arima: negative order in %v", o)
	case o.Seasonal() && o.Period < 2:
		return numerr.InvalidArgument("arima: seasonal period %d is less than 2", o.Period)
	}
	return nil
}

// NumCoeffs returns the number of ARMA coefficients, excluding the mean.
func (o Order) NumCoeffs() int {
	return o.P + o.Q + o.SP + o.SQ
}

// lost returns the number of observations consumed by differencing.
func (o Order) lost() int {
	return o.D + o.SD*o.Period
}

func (o Order) spec(opts *Options) likelihood.Spec {
	return likelihood.Spec{
		P:                  o.P,
		Q:                  o.Q,
		SP:                 o.SP,
		SQ:                 o.SQ,
		Period:             o.Period,
		IncludeMean:        o.IncludeMean,
		Criterion:          opts.Criterion,
		Penalty:            opts.Penalty,
		CheckStationarity:  opts.CheckStationarity,
		CheckInvertibility: opts.CheckInvertibility,
	}
}
