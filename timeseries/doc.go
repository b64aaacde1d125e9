// Package timeseries holds the observation container consumed by the
// fitting driver, with differencing and CSV input and output.
//
// Missing observations are NaN throughout. They survive differencing (a
// difference with a missing operand is missing) and are skipped by the
// summary statistics:
//
//	s, err := timeseries.LoadCSV("air.csv", nil)
//	if err != nil {
//	    return err
//	}
//	d := s.DiffN(1).SeasonalDiff(12)
package timeseries
