package timeseries

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVFromReader(t *testing.T) {
	data := `ds,y
2020-01-01,100
2020-01-02,101
2020-01-03,102`

	s, err := LoadCSVFromReader(strings.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, s.Values)
	require.Len(t, s.Timestamps, 3)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), s.Timestamps[1])
}

func TestLoadCSVMissingValues(t *testing.T) {
	data := `ds,y
2020-01-01,1
2020-01-02,NA
2020-01-03,
2020-01-04,4`

	s, err := LoadCSVFromReader(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, s.Values, 4)
	assert.True(t, math.IsNaN(s.Values[1]))
	assert.True(t, math.IsNaN(s.Values[2]))
	assert.Equal(t, 2, s.Missing())
}

func TestLoadCSVWithFilter(t *testing.T) {
	data := `unique_id,ds,y
A,2020-01-01,100
B,2020-01-01,200
A,2020-01-02,101
B,2020-01-02,201
A,2020-01-03,102`

	opts := DefaultCSVOptions()
	opts.IDColumn = "unique_id"
	opts.IDFilter = "B"
	s, err := LoadCSVFromReader(strings.NewReader(data), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 201}, s.Values)
}

func TestLoadCSVCustomColumns(t *testing.T) {
	data := `month;passengers
2020-01;112
2020-02;118`

	opts := DefaultCSVOptions()
	opts.ValueColumn = "passengers"
	opts.DateColumn = "month"
	opts.DateFormat = "2006-01"
	opts.Delimiter = ';'
	s, err := LoadCSVFromReader(strings.NewReader(data), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{112, 118}, s.Values)
	assert.Equal(t, "passengers", s.Name)
	assert.Equal(t, time.February, s.Timestamps[1].Month())
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.HasHeader = false

	s, err := LoadCSVFromReader(strings.NewReader("1.5\n2.5\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, s.Values)
	assert.Empty(t, s.Timestamps)

	s, err = LoadCSVFromReader(strings.NewReader("2020-01-01,3\n2020-01-02,4\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, s.Values)
	assert.Len(t, s.Timestamps, 2)
}

func TestLoadCSVUndatedRows(t *testing.T) {
	data := `ds,y
2020-01-01,1
soon,2`
	s, err := LoadCSVFromReader(strings.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values)
	assert.Empty(t, s.Timestamps)
}

func TestLoadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"no value column": "ds,value\n2020-01-01,1\n",
		"bad value":       "ds,y\n2020-01-01,abc\n",
		"no rows":         "ds,y\n",
		"empty":           "",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCSVFromReader(strings.NewReader(data), nil)
			assert.Error(t, err)
		})
	}

	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"), nil)
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := New([]float64{1.25, math.NaN(), -3})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	assert.Equal(t, "t,y\n1,1.25\n2,NA\n3,-3\n", buf.String())

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	opts := DefaultCSVOptions()
	out, err := LoadCSV(path, opts)
	require.NoError(t, err)
	require.Len(t, out.Values, 3)
	assert.Equal(t, 1.25, out.Values[0])
	assert.True(t, math.IsNaN(out.Values[1]))
	assert.Empty(t, out.Timestamps)
}
