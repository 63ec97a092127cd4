package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/slicken/candlecast/pkg/models"
	"github.com/slicken/candlecast/pkg/scaler"
)

// Store persists artifact triples as three deterministically named files per
// key in a single models directory:
//
//	model_<symbol>_w<window>_f<forecast>.json
//	scaler_<symbol>_w<window>_f<forecast>.json
//	target_index_<symbol>_w<window>_f<forecast>.json
//
// Re-saving a key overwrites the prior triple; there is no versioning.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created if it
// does not exist.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create models dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// ModelPath returns the model file path for a key.
func (s *Store) ModelPath(k Key) string {
	return filepath.Join(s.dir, "model_"+k.String()+".json")
}

// ScalerPath returns the scaler file path for a key.
func (s *Store) ScalerPath(k Key) string {
	return filepath.Join(s.dir, "scaler_"+k.String()+".json")
}

// MetaPath returns the target-metadata file path for a key.
func (s *Store) MetaPath(k Key) string {
	return filepath.Join(s.dir, "target_index_"+k.String()+".json")
}

// Save persists the triple for key, overwriting any existing artifacts.
func (s *Store) Save(k Key, t *Triple) error {
	if err := k.Validate(); err != nil {
		return err
	}
	if err := t.Meta.Validate(); err != nil {
		return err
	}
	if got, want := t.Scaler.NumFeatures(), len(t.Meta.Features); got != want {
		return fmt.Errorf("artifact: scaler has %d features, metadata declares %d", got, want)
	}

	if err := t.Model.Save(s.ModelPath(k)); err != nil {
		return fmt.Errorf("artifact: save model for %s: %w", k, err)
	}
	if err := t.Scaler.Save(s.ScalerPath(k)); err != nil {
		return fmt.Errorf("artifact: save scaler for %s: %w", k, err)
	}

	meta, err := json.Marshal(t.Meta)
	if err != nil {
		return fmt.Errorf("artifact: marshal metadata for %s: %w", k, err)
	}
	if err := os.WriteFile(s.MetaPath(k), meta, 0o644); err != nil {
		return fmt.Errorf("artifact: save metadata for %s: %w", k, err)
	}

	return nil
}

// Load reads the three artifacts for key in order: model, scaler, metadata.
// Any failure is a total failure for the key; the returned error names the
// artifact that failed so callers can report a precise reason.
func (s *Store) Load(k Key) (*Triple, error) {
	model, err := models.Load(s.ModelPath(k))
	if err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	sc, err := scaler.Load(s.ScalerPath(k))
	if err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}

	data, err := os.ReadFile(s.MetaPath(k))
	if err != nil {
		return nil, fmt.Errorf("metadata artifact: %w", err)
	}
	var meta TargetMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata artifact: parse %s: %w", s.MetaPath(k), err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("metadata artifact: %w", err)
	}

	// The triple must be internally consistent: the scaler's dimensionality
	// defines the feature count everything else is checked against.
	if got, want := sc.NumFeatures(), len(meta.Features); got != want {
		return nil, fmt.Errorf("metadata artifact: declares %d features but scaler was fitted on %d", want, got)
	}

	return &Triple{Model: model, Scaler: sc, Meta: meta}, nil
}

// List enumerates every key with a model file on disk, parsing structured
// filenames back into Keys and deduplicating. Filenames that do not follow
// the scheme are skipped with a warning rather than failing the sweep.
func (s *Store) List() ([]Key, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("artifact: read models dir %s: %w", s.dir, err)
	}

	seen := make(map[Key]bool)
	var keys []Key
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "model_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		k, ok := parseModelFilename(name)
		if !ok {
			s.logger.Warn("skipping artifact with unparsable filename", "file", name)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	return keys, nil
}

// parseModelFilename extracts the Key from "model_<symbol>_w<N>_f<M>.json".
// Symbols may themselves contain underscores, so the window and forecast
// markers are located from the right.
func parseModelFilename(name string) (Key, bool) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, "model_"), ".json")

	fi := strings.LastIndex(stem, "_f")
	if fi < 0 {
		return Key{}, false
	}
	forecast, err := strconv.Atoi(stem[fi+2:])
	if err != nil || forecast <= 0 {
		return Key{}, false
	}

	rest := stem[:fi]
	wi := strings.LastIndex(rest, "_w")
	if wi < 0 {
		return Key{}, false
	}
	window, err := strconv.Atoi(rest[wi+2:])
	if err != nil || window <= 0 {
		return Key{}, false
	}

	symbol := rest[:wi]
	if symbol == "" {
		return Key{}, false
	}

	return Key{Symbol: symbol, WindowSize: window, ForecastSize: forecast}, true
}
