package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/slicken/candlecast/pkg/artifact"
	"github.com/slicken/candlecast/pkg/dataset"
	"github.com/slicken/candlecast/pkg/models"
	"github.com/slicken/candlecast/pkg/scaler"
	"github.com/slicken/candlecast/pkg/window"
)

// extraDataPoints is the margin required beyond the window and horizon so a
// fit has more than a handful of training windows.
const extraDataPoints = 20

// Trainer turns per-symbol OHLCV files into persisted artifact triples.
type Trainer struct {
	store        *artifact.Store
	features     []string
	targetIndex  int
	windowSize   int
	forecastSize int
	lambda       float64
	logger       *slog.Logger
}

// NewTrainer creates a trainer writing artifacts through store.
func NewTrainer(store *artifact.Store, features []string, targetIndex, windowSize, forecastSize int, lambda float64, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		store:        store,
		features:     features,
		targetIndex:  targetIndex,
		windowSize:   windowSize,
		forecastSize: forecastSize,
		lambda:       lambda,
		logger:       logger,
	}
}

// MinDataPoints is the fewest usable rows a file must yield after cleaning.
func (t *Trainer) MinDataPoints() int {
	return t.windowSize + t.forecastSize + extraDataPoints
}

// TrainFile trains and persists one symbol from a single OHLCV JSON file.
// The symbol is derived from the file name.
func (t *Trainer) TrainFile(ctx context.Context, path string) error {
	symbol := artifact.CleanSymbol(filepath.Base(path))

	ds, err := dataset.Load(path, t.features)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	if ds.Len() < t.MinDataPoints() {
		return fmt.Errorf("insufficient data for %s: %d usable rows, need at least %d",
			symbol, ds.Len(), t.MinDataPoints())
	}

	// Fit the scaler once, on the full training matrix. The frozen ranges
	// are what the server applies at inference time.
	sc := &scaler.MinMax{}
	if err := sc.Fit(ds.Matrix); err != nil {
		return fmt.Errorf("fit scaler for %s: %w", symbol, err)
	}
	scaled, err := sc.Transform(ds.Matrix)
	if err != nil {
		return fmt.Errorf("scale data for %s: %w", symbol, err)
	}

	X, y, err := window.Make(scaled, t.windowSize, t.forecastSize, t.targetIndex)
	if err != nil {
		return fmt.Errorf("window data for %s: %w", symbol, err)
	}
	if len(X) == 0 {
		return fmt.Errorf("no training windows for %s", symbol)
	}

	model := models.NewLinear(t.lambda)
	if err := model.Train(ctx, X, y); err != nil {
		return fmt.Errorf("train model for %s: %w", symbol, err)
	}

	key := artifact.NewKey(symbol, t.windowSize, t.forecastSize)
	triple := &artifact.Triple{
		Model:  model,
		Scaler: sc,
		Meta: artifact.TargetMeta{
			TargetColumnIndex: t.targetIndex,
			Features:          t.features,
		},
	}
	if err := t.store.Save(key, triple); err != nil {
		return fmt.Errorf("save artifacts for %s: %w", symbol, err)
	}

	t.logger.Info("trained model",
		"symbol", symbol,
		"rows", ds.Len(),
		"windows", len(X),
		"window_size", t.windowSize,
		"forecast_size", t.forecastSize,
	)

	return nil
}

// TrainDir trains every *.json file in dir. A failing symbol is logged and
// skipped; one bad file never aborts the batch. Returns the number of
// symbols trained and failed.
func (t *Trainer) TrainDir(ctx context.Context, dir string) (trained, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return trained, failed, err
		}

		path := filepath.Join(dir, e.Name())
		if err := t.TrainFile(ctx, path); err != nil {
			t.logger.Warn("skipping symbol", "file", e.Name(), "error", err)
			failed++
			continue
		}
		trained++
	}

	return trained, failed, nil
}
