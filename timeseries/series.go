package timeseries

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Series is an ordered set of observations. NaN marks a missing value.
// Timestamps is either empty or the same length as Values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a series from values without timestamps. The slice is not
// copied.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimestamps creates a series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.Errorf("timeseries: %d timestamps for %d values", len(timestamps), len(values))
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the number of observations, missing ones included.
func (s *Series) Len() int {
	return len(s.Values)
}

// Observed returns the non-missing values in order.
func (s *Series) Observed() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Missing returns the number of NaN values.
func (s *Series) Missing() int {
	return len(s.Values) - len(s.Observed())
}

// Mean returns the mean of the observed values, or 0 if there are none.
func (s *Series) Mean() float64 {
	obs := s.Observed()
	if len(obs) == 0 {
		return 0
	}
	return stat.Mean(obs, nil)
}

// Variance returns the unbiased sample variance of the observed values.
func (s *Series) Variance() float64 {
	obs := s.Observed()
	if len(obs) < 2 {
		return 0
	}
	return stat.Variance(obs, nil)
}

// Std returns the sample standard deviation of the observed values.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Diff returns the first difference y_t - y_{t-1}.
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// DiffN applies Diff d times. DiffN(0) returns a copy.
func (s *Series) DiffN(d int) *Series {
	out := s.Copy()
	for i := 0; i < d; i++ {
		out = out.Diff()
	}
	return out
}

// SeasonalDiff returns the lag-m difference y_t - y_{t-m}.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m, "_sdiff")
}

// lagDiff differences at lag k. A missing operand gives a missing result.
func (s *Series) lagDiff(k int, suffix string) *Series {
	if k <= 0 || len(s.Values) <= k {
		return &Series{Values: []float64{}, Name: s.Name + suffix}
	}
	values := make([]float64, len(s.Values)-k)
	for i := k; i < len(s.Values); i++ {
		values[i-k] = s.Values[i] - s.Values[i-k]
	}
	var timestamps []time.Time
	if len(s.Timestamps) == len(s.Values) {
		timestamps = append(timestamps, s.Timestamps[k:]...)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name + suffix,
	}
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	out := &Series{
		Values: append([]float64(nil), s.Values...),
		Name:   s.Name,
	}
	if s.Timestamps != nil {
		out.Timestamps = append([]time.Time(nil), s.Timestamps...)
	}
	return out
}
