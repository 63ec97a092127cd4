package artifact

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slicken/candlecast/pkg/models"
	"github.com/slicken/candlecast/pkg/scaler"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTrainedTriple builds a consistent triple for the given feature names:
// a scaler fitted on synthetic rows and a linear model trained on windows of
// the requested size.
func newTrainedTriple(t *testing.T, features []string, windowSize int) *Triple {
	t.Helper()

	nf := len(features)
	rows := make([][]float64, windowSize+10)
	for i := range rows {
		row := make([]float64, nf)
		for j := range row {
			row[j] = float64(i*nf+j) + 1
		}
		rows[i] = row
	}

	var sc scaler.MinMax
	if err := sc.Fit(rows); err != nil {
		t.Fatalf("scaler fit: %v", err)
	}
	scaled, err := sc.Transform(rows)
	if err != nil {
		t.Fatalf("scaler transform: %v", err)
	}

	var X [][][]float64
	var y []float64
	for i := windowSize; i < len(scaled); i++ {
		X = append(X, scaled[i-windowSize:i])
		y = append(y, scaled[i][0])
	}

	m := models.NewLinear(0)
	if err := m.Train(context.Background(), X, y); err != nil {
		t.Fatalf("model train: %v", err)
	}

	return &Triple{
		Model:  m,
		Scaler: &sc,
		Meta:   TargetMeta{TargetColumnIndex: 0, Features: features},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	key := NewKey("ABC", 5, 1)
	triple := newTrainedTriple(t, []string{"open", "close"}, 5)
	if err := store.Save(key, triple); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Meta.TargetColumnIndex != 0 {
		t.Errorf("target column = %d, want 0", loaded.Meta.TargetColumnIndex)
	}
	if len(loaded.Meta.Features) != 2 {
		t.Errorf("features = %v, want 2 entries", loaded.Meta.Features)
	}
	if loaded.Scaler.NumFeatures() != 2 {
		t.Errorf("scaler features = %d, want 2", loaded.Scaler.NumFeatures())
	}
}

func TestStore_Load_MissingArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		remove func(s *Store, k Key) string
		want   string
	}{
		{"missing model", func(s *Store, k Key) string { return s.ModelPath(k) }, "model artifact"},
		{"missing scaler", func(s *Store, k Key) string { return s.ScalerPath(k) }, "scaler artifact"},
		{"missing metadata", func(s *Store, k Key) string { return s.MetaPath(k) }, "metadata artifact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(t.TempDir(), testLogger())
			if err != nil {
				t.Fatalf("NewStore() error: %v", err)
			}
			key := NewKey("ABC", 5, 1)
			if err := store.Save(key, newTrainedTriple(t, []string{"open", "close"}, 5)); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			if err := os.Remove(tt.remove(store, key)); err != nil {
				t.Fatalf("remove: %v", err)
			}

			_, err = store.Load(key)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestStore_Load_SchemaMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	key := NewKey("ABC", 5, 1)
	if err := store.Save(key, newTrainedTriple(t, []string{"open", "close"}, 5)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Metadata declaring a third feature the scaler was never fitted on
	// must be a hard load failure.
	bad := `{"target_column_index":0,"features":["open","close","high"]}`
	if err := os.WriteFile(store.MetaPath(key), []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Load(key); err == nil {
		t.Error("Load() with feature-count mismatch should fail")
	}
}

func TestStore_Save_InconsistentTriple(t *testing.T) {
	store, err := NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	triple := newTrainedTriple(t, []string{"open", "close"}, 5)
	triple.Meta.Features = []string{"open"} // scaler fitted on 2
	if err := store.Save(NewKey("ABC", 5, 1), triple); err == nil {
		t.Error("Save() with scaler/metadata mismatch should fail")
	}
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	triple := newTrainedTriple(t, []string{"open", "close"}, 5)
	wantKeys := []Key{
		NewKey("ABC", 5, 1),
		NewKey("BTC_USDT_1h", 5, 3),
	}
	for _, k := range wantKeys {
		if err := store.Save(k, triple); err != nil {
			t.Fatalf("Save(%v) error: %v", k, err)
		}
	}

	// Noise the sweep must ignore: non-model files and unparsable names.
	for _, name := range []string{
		"scaler_extra_w5_f1.json",
		"model_noshape.json",
		"model_sym_w0_f1.json",
		"model_sym_wX_f1.json",
		"readme.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write noise %s: %v", name, err)
		}
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(keys) != len(wantKeys) {
		t.Fatalf("List() = %v, want %d keys", keys, len(wantKeys))
	}

	found := make(map[Key]bool)
	for _, k := range keys {
		found[k] = true
	}
	for _, k := range wantKeys {
		if !found[k] {
			t.Errorf("List() missing key %v", k)
		}
	}
}

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		name string
		want Key
		ok   bool
	}{
		{"model_ABC_w20_f1.json", Key{"ABC", 20, 1}, true},
		{"model_BTC_USDT_1h_w5_f3.json", Key{"BTC_USDT_1h", 5, 3}, true},
		{"model_sym_w20.json", Key{}, false},
		{"model__w20_f1.json", Key{}, false},
		{"model_sym_w-2_f1.json", Key{}, false},
	}

	for _, tt := range tests {
		got, ok := parseModelFilename(tt.name)
		if ok != tt.ok {
			t.Errorf("parseModelFilename(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseModelFilename(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
