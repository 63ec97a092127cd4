// Package dataset loads and cleans raw per-symbol candle records for the
// training pipeline.
//
// A raw dataset is a JSON array of objects, each carrying a numeric "time"
// field plus feature values. Loading coerces values to float64, stable-sorts
// by time ascending, patches missing values (backfill then forward-fill),
// and drops any row that still has gaps.
package dataset

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// Dataset is a cleaned, time-sorted feature matrix for one symbol.
type Dataset struct {
	// Times holds the sort key per row. Duplicate timestamps are kept in
	// their original relative order.
	Times []float64

	// Matrix has one row per record, columns in the requested feature order.
	Matrix [][]float64
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Matrix) }

// Load reads and cleans the JSON records file at path. See Parse.
func Load(path string, features []string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	ds, err := Parse(data, features)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return ds, nil
}

// Parse extracts the requested feature columns from a JSON array of records.
//
// Every record must carry a numeric "time" field; numbers-as-strings are
// accepted for both times and features. Fields beyond the requested features
// are ignored. A feature missing from a record becomes a gap that the fill
// policy patches; a feature missing from every record is an error — there is
// nothing sane to impute from.
func Parse(data []byte, features []string) (*Dataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no features requested")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array of records")
	}
	records := root.Array()
	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no records")
	}

	times := make([]float64, 0, len(records))
	matrix := make([][]float64, 0, len(records))

	for i, rec := range records {
		tv := rec.Get("time")
		if !tv.Exists() {
			return nil, fmt.Errorf("record %d is missing the time field", i)
		}
		ts, ok := toFloat(tv)
		if !ok {
			return nil, fmt.Errorf("record %d has non-numeric time %q", i, tv.String())
		}

		row := make([]float64, len(features))
		for j, name := range features {
			fv := rec.Get(name)
			if !fv.Exists() {
				row[j] = math.NaN()
				continue
			}
			v, ok := toFloat(fv)
			if !ok {
				row[j] = math.NaN()
				continue
			}
			row[j] = v
		}

		times = append(times, ts)
		matrix = append(matrix, row)
	}

	sortByTime(times, matrix)

	if err := fillMissing(matrix, features); err != nil {
		return nil, err
	}
	times, matrix = dropIncomplete(times, matrix)

	return &Dataset{Times: times, Matrix: matrix}, nil
}

// toFloat coerces a JSON value to float64, accepting numbers and strings
// holding numbers.
func toFloat(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// sortByTime stable-sorts rows by timestamp ascending so duplicate
// timestamps keep their original relative order.
func sortByTime(times []float64, matrix [][]float64) {
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return times[idx[a]] < times[idx[b]]
	})

	sortedTimes := make([]float64, len(times))
	sortedRows := make([][]float64, len(matrix))
	for i, j := range idx {
		sortedTimes[i] = times[j]
		sortedRows[i] = matrix[j]
	}
	copy(times, sortedTimes)
	copy(matrix, sortedRows)
}

// fillMissing patches gaps per feature column: backfill first so leading
// gaps take the nearest later value, then forward-fill for trailing gaps.
// A column with no known value at all is an error.
func fillMissing(matrix [][]float64, features []string) error {
	if len(matrix) == 0 {
		return nil
	}

	for j, name := range features {
		known := false
		for i := range matrix {
			if !math.IsNaN(matrix[i][j]) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("feature %q has no values in any record", name)
		}

		carry := math.NaN()
		for i := len(matrix) - 1; i >= 0; i-- {
			if !math.IsNaN(matrix[i][j]) {
				carry = matrix[i][j]
			} else {
				matrix[i][j] = carry
			}
		}

		carry = math.NaN()
		for i := range matrix {
			if !math.IsNaN(matrix[i][j]) {
				carry = matrix[i][j]
			} else {
				matrix[i][j] = carry
			}
		}
	}

	return nil
}

// dropIncomplete removes rows that still contain NaN after filling.
func dropIncomplete(times []float64, matrix [][]float64) ([]float64, [][]float64) {
	outT := times[:0]
	outM := matrix[:0]
	for i, row := range matrix {
		complete := true
		for _, v := range row {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			outT = append(outT, times[i])
			outM = append(outM, row)
		}
	}
	return outT, outM
}
