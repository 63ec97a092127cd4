// Package window turns a flat, time-sorted feature matrix into overlapping
// fixed-length training windows with aligned forecast targets.
package window

import "fmt"

// Make slices a (T, F) matrix into windows of windowSize consecutive rows,
// each paired with the target column's value forecastSize steps after the
// window's end.
//
// For every start index i from windowSize to T-forecastSize inclusive it
// emits window rows[i-windowSize:i] and target rows[i+forecastSize-1][targetCol].
// Windows share backing rows with the input matrix; callers must not mutate
// them afterwards.
//
// A series too short to produce any window returns zero windows and no
// error; the caller decides whether that is worth a warning.
func Make(rows [][]float64, windowSize, forecastSize, targetCol int) ([][][]float64, []float64, error) {
	if windowSize <= 0 {
		return nil, nil, fmt.Errorf("window: window size must be positive, got %d", windowSize)
	}
	if forecastSize <= 0 {
		return nil, nil, fmt.Errorf("window: forecast size must be positive, got %d", forecastSize)
	}
	if len(rows) > 0 && (targetCol < 0 || targetCol >= len(rows[0])) {
		return nil, nil, fmt.Errorf("window: target column %d out of range for %d features", targetCol, len(rows[0]))
	}

	var (
		windows [][][]float64
		targets []float64
	)

	for i := windowSize; i <= len(rows)-forecastSize; i++ {
		windows = append(windows, rows[i-windowSize:i])
		targets = append(targets, rows[i+forecastSize-1][targetCol])
	}

	return windows, targets, nil
}
