// Package scaler provides the per-symbol feature scaler used by both the
// training and serving paths.
//
// A MinMax scaler is fitted exactly once per training run and its parameters
// are frozen from that point on. The serving path must only ever call
// Transform and InverseTransform; refitting at inference time would silently
// corrupt every subsequent prediction for that symbol.
package scaler

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// MinMax scales each feature column linearly into [0, 1] based on the
// minimum and maximum observed during Fit.
//
// For a feature with data range [min, max]:
//
//	transform(x) = (x - min) / (max - min)
//	inverse(x)   = x * (max - min) + min
//
// A constant column (max == min) uses a divisor of 1 so the transform stays
// defined and the round-trip property holds.
type MinMax struct {
	DataMin []float64 `json:"data_min"`
	DataMax []float64 `json:"data_max"`
}

// Fit computes per-feature minimum and maximum from the training matrix.
// Called exactly once per training run; never on the serving path.
func (s *MinMax) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("scaler: cannot fit on empty matrix")
	}

	n := len(rows[0])
	if n == 0 {
		return fmt.Errorf("scaler: cannot fit on zero-width matrix")
	}

	s.DataMin = make([]float64, n)
	s.DataMax = make([]float64, n)
	copy(s.DataMin, rows[0])
	copy(s.DataMax, rows[0])

	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("scaler: ragged matrix: row %d has %d features, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < s.DataMin[j] {
				s.DataMin[j] = v
			}
			if v > s.DataMax[j] {
				s.DataMax[j] = v
			}
		}
	}

	return nil
}

// NumFeatures returns the feature dimensionality the scaler was fitted on,
// or 0 if it has not been fitted.
func (s *MinMax) NumFeatures() int {
	return len(s.DataMin)
}

// Transform maps rows into [0, 1] using the frozen fit parameters.
// It returns a new matrix and never modifies the scaler.
func (s *MinMax) Transform(rows [][]float64) ([][]float64, error) {
	if err := s.check(rows); err != nil {
		return nil, err
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.DataMin[j]) / s.span(j)
		}
		out[i] = scaled
	}
	return out, nil
}

// InverseTransform maps scaled rows back into the original unit space.
func (s *MinMax) InverseTransform(rows [][]float64) ([][]float64, error) {
	if err := s.check(rows); err != nil {
		return nil, err
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		orig := make([]float64, len(row))
		for j, v := range row {
			orig[j] = v*s.span(j) + s.DataMin[j]
		}
		out[i] = orig
	}
	return out, nil
}

// span returns the fitted range of feature j, substituting 1 for a constant
// column so division stays defined.
func (s *MinMax) span(j int) float64 {
	d := s.DataMax[j] - s.DataMin[j]
	if d == 0 {
		return 1
	}
	return d
}

func (s *MinMax) check(rows [][]float64) error {
	n := s.NumFeatures()
	if n == 0 {
		return fmt.Errorf("scaler: not fitted")
	}
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("scaler: row %d has %d features, scaler was fitted on %d", i, len(row), n)
		}
	}
	return nil
}

// Save writes the fitted parameters as JSON to path, overwriting any
// existing file.
func (s *MinMax) Save(path string) error {
	if s.NumFeatures() == 0 {
		return fmt.Errorf("scaler: refusing to save unfitted scaler")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("scaler: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scaler: write %s: %w", path, err)
	}
	return nil
}

// Load reads fitted parameters from a JSON file written by Save.
// A structurally invalid file is a hard failure, not a best-effort repair.
func Load(path string) (*MinMax, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scaler: read %s: %w", path, err)
	}

	var s MinMax
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scaler: parse %s: %w", path, err)
	}

	if len(s.DataMin) == 0 || len(s.DataMin) != len(s.DataMax) {
		return nil, fmt.Errorf("scaler: %s: data_min/data_max length mismatch (%d vs %d)",
			path, len(s.DataMin), len(s.DataMax))
	}
	for j := range s.DataMin {
		if math.IsNaN(s.DataMin[j]) || math.IsNaN(s.DataMax[j]) || s.DataMax[j] < s.DataMin[j] {
			return nil, fmt.Errorf("scaler: %s: invalid range for feature %d", path, j)
		}
	}

	return &s, nil
}
