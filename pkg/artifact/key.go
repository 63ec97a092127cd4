// Package artifact addresses, persists, and caches the trained artifact
// triple (model, scaler, target metadata) produced per symbol, window size,
// and forecast size.
package artifact

import (
	"fmt"
	"strings"

	"github.com/slicken/candlecast/pkg/models"
	"github.com/slicken/candlecast/pkg/scaler"
)

// Key uniquely identifies one trained artifact triple. Immutable once
// constructed; Symbol is expected to be normalized via CleanSymbol.
type Key struct {
	Symbol       string
	WindowSize   int
	ForecastSize int
}

// NewKey builds a Key from a raw symbol label, normalizing it.
func NewKey(rawSymbol string, windowSize, forecastSize int) Key {
	return Key{
		Symbol:       CleanSymbol(rawSymbol),
		WindowSize:   windowSize,
		ForecastSize: forecastSize,
	}
}

// String renders the key in the canonical artifact-filename stem form,
// e.g. "BTCUSDT1h_w20_f1".
func (k Key) String() string {
	return fmt.Sprintf("%s_w%d_f%d", k.Symbol, k.WindowSize, k.ForecastSize)
}

// Validate reports whether the key can address artifacts.
func (k Key) Validate() error {
	if k.Symbol == "" {
		return fmt.Errorf("artifact: empty symbol")
	}
	if k.WindowSize <= 0 {
		return fmt.Errorf("artifact: window size must be positive, got %d", k.WindowSize)
	}
	if k.ForecastSize <= 0 {
		return fmt.Errorf("artifact: forecast size must be positive, got %d", k.ForecastSize)
	}
	return nil
}

// symbolReplacer maps filesystem-unsafe characters (and the dash, which the
// filename scheme reserves) to underscores.
var symbolReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "-", "_",
)

// CleanSymbol maps a raw label (possibly a data filename) to the canonical
// symbol used in artifact filenames: a trailing ".json" is stripped and
// unsafe characters become underscores. Pure, deterministic, and idempotent;
// distinct raw labels may collide, which is accepted.
func CleanSymbol(raw string) string {
	s := strings.TrimSuffix(raw, ".json")
	return symbolReplacer.Replace(s)
}

// TargetMeta is the target-column metadata persisted alongside each model
// and scaler. Its JSON schema is exact and stable across training and
// serving; a mismatch is a hard load failure.
type TargetMeta struct {
	TargetColumnIndex int      `json:"target_column_index"`
	Features          []string `json:"features"`
}

// Validate checks the metadata's internal invariants.
func (m TargetMeta) Validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("artifact: metadata has no features")
	}
	if m.TargetColumnIndex < 0 || m.TargetColumnIndex >= len(m.Features) {
		return fmt.Errorf("artifact: target column index %d out of range for %d features",
			m.TargetColumnIndex, len(m.Features))
	}
	return nil
}

// Triple bundles the three co-located artifacts for one key. Triples are
// created once per training run, loaded as a unit, and never mutated after
// load.
type Triple struct {
	Model  models.Model
	Scaler *scaler.MinMax
	Meta   TargetMeta
}
