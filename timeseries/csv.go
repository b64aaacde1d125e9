package timeseries

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CSVOptions controls LoadCSV.
type CSVOptions struct {
	DateColumn  string // optional; detected from common names when empty
	ValueColumn string // defaults to "y"
	IDColumn    string // column to filter on
	IDFilter    string // keep only rows whose IDColumn equals this
	DateFormat  string
	Delimiter   rune
	HasHeader   bool
}

// DefaultCSVOptions returns options for a headed, comma-separated file with
// "ds" and "y" columns.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
		HasHeader:   true,
	}
}

// missingTokens are read as NaN.
var missingTokens = map[string]bool{"": true, "NA": true, "NaN": true, "nan": true, "null": true}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"2006-01",
	"2006",
}

// LoadCSV reads a series from a file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "timeseries: open csv")
	}
	defer f.Close()

	s, err := LoadCSVFromReader(f, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "timeseries: %s", filename)
	}
	return s, nil
}

// LoadCSVFromReader reads a series from r. Missing tokens (empty, NA, NaN,
// null) become NaN; any other unparseable value is an error. Timestamps are
// kept only if every row has a parseable date.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	valueIdx, dateIdx, idIdx := 1, 0, -1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "timeseries: read header")
		}
		valueIdx, dateIdx, idIdx = locateColumns(header, opts)
		if valueIdx < 0 {
			return nil, errors.Errorf("timeseries: value column %q not found in %v", opts.ValueColumn, header)
		}
		if opts.IDFilter != "" && idIdx < 0 {
			return nil, errors.Errorf("timeseries: id column %q not found in %v", opts.IDColumn, header)
		}
	}

	var (
		values     []float64
		timestamps []time.Time
		datesOK    = dateIdx >= 0
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "timeseries: row %d", line)
		}
		if !opts.HasHeader && line == 1 {
			// Headerless: date first when present, value last.
			valueIdx = len(record) - 1
			if valueIdx == 0 {
				dateIdx, datesOK = -1, false
			}
		}
		if opts.IDFilter != "" && field(record, idIdx) != opts.IDFilter {
			continue
		}

		raw := field(record, valueIdx)
		v := math.NaN()
		if !missingTokens[raw] {
			v, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "timeseries: row %d value %q", line, raw)
			}
		}
		values = append(values, v)

		if datesOK {
			ts, ok := parseDate(field(record, dateIdx), opts.DateFormat)
			datesOK = ok
			timestamps = append(timestamps, ts)
		}
	}

	if len(values) == 0 {
		return nil, errors.New("timeseries: no rows")
	}
	s := &Series{Values: values, Name: opts.ValueColumn}
	if datesOK {
		s.Timestamps = timestamps
	}
	return s, nil
}

func locateColumns(header []string, opts *CSVOptions) (value, date, id int) {
	value, date, id = -1, -1, -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == opts.ValueColumn:
			value = i
		case opts.DateColumn != "" && h == opts.DateColumn:
			date = i
		case opts.DateColumn == "" && date < 0 && (h == "ds" || h == "date" || h == "Date"):
			date = i
		case opts.IDColumn != "" && h == opts.IDColumn:
			id = i
		}
	}
	return value, date, id
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(s, preferred string) (time.Time, bool) {
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, true
		}
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// WriteCSV writes s as "ds,y" rows, or "t,y" with 1-based indices when s
// has no timestamps. NaN is written as "NA".
func WriteCSV(w io.Writer, s *Series) error {
	cw := csv.NewWriter(w)
	dated := len(s.Timestamps) == len(s.Values) && len(s.Values) > 0
	header := []string{"t", "y"}
	if dated {
		header[0] = "ds"
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "timeseries: write header")
	}
	for i, v := range s.Values {
		key := strconv.Itoa(i + 1)
		if dated {
			key = s.Timestamps[i].Format(time.RFC3339)
		}
		val := "NA"
		if !math.IsNaN(v) {
			val = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write([]string{key, val}); err != nil {
			return errors.Wrapf(err, "timeseries: write row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "timeseries: flush")
}
