package window

import "testing"

// series builds a single-feature matrix whose row i holds the value i.
func series(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i)}
	}
	return rows
}

func TestMake_Counts(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		window   int
		forecast int
		want     int
	}{
		{"25 rows w5 f1", 25, 5, 1, 20},
		{"exactly one window", 6, 5, 1, 1},
		{"too short", 5, 5, 1, 0},
		{"empty series", 0, 5, 1, 0},
		{"longer horizon", 25, 5, 3, 18},
		{"window equals series minus horizon", 8, 5, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows, targets, err := Make(series(tt.rows), tt.window, tt.forecast, 0)
			if err != nil {
				t.Fatalf("Make() error: %v", err)
			}
			if len(windows) != tt.want {
				t.Errorf("got %d windows, want %d", len(windows), tt.want)
			}
			if len(targets) != len(windows) {
				t.Errorf("got %d targets for %d windows", len(targets), len(windows))
			}
		})
	}
}

func TestMake_Alignment(t *testing.T) {
	// 25-row single-feature series, window 5, horizon 1: window 0 must cover
	// rows 0-4 and its target must be row 5's value.
	windows, targets, err := Make(series(25), 5, 1, 0)
	if err != nil {
		t.Fatalf("Make() error: %v", err)
	}
	if len(windows) != 20 {
		t.Fatalf("got %d windows, want 20", len(windows))
	}

	for j := 0; j < 5; j++ {
		if windows[0][j][0] != float64(j) {
			t.Errorf("window 0 row %d = %v, want %d", j, windows[0][j][0], j)
		}
	}
	if targets[0] != 5 {
		t.Errorf("target 0 = %v, want 5", targets[0])
	}

	// Last window ends at row 23 with target row 24.
	last := windows[len(windows)-1]
	if last[0][0] != 19 || last[4][0] != 23 {
		t.Errorf("last window covers rows %v..%v, want 19..23", last[0][0], last[4][0])
	}
	if targets[len(targets)-1] != 24 {
		t.Errorf("last target = %v, want 24", targets[len(targets)-1])
	}
}

func TestMake_HorizonAlignment(t *testing.T) {
	// With forecast size 3, window 0 (rows 0-4) targets row 5+3-1 = 7.
	_, targets, err := Make(series(10), 5, 3, 0)
	if err != nil {
		t.Fatalf("Make() error: %v", err)
	}
	if targets[0] != 7 {
		t.Errorf("target 0 = %v, want 7", targets[0])
	}
}

func TestMake_TargetColumn(t *testing.T) {
	rows := [][]float64{
		{0, 100},
		{1, 101},
		{2, 102},
		{3, 103},
	}
	_, targets, err := Make(rows, 2, 1, 1)
	if err != nil {
		t.Fatalf("Make() error: %v", err)
	}
	if targets[0] != 102 {
		t.Errorf("target 0 = %v, want 102", targets[0])
	}
}

func TestMake_InvalidArgs(t *testing.T) {
	if _, _, err := Make(series(10), 0, 1, 0); err == nil {
		t.Error("zero window size should fail")
	}
	if _, _, err := Make(series(10), 5, 0, 0); err == nil {
		t.Error("zero forecast size should fail")
	}
	if _, _, err := Make(series(10), 5, 1, 3); err == nil {
		t.Error("out-of-range target column should fail")
	}
}
