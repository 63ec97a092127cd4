// Command trainer trains candlecast models from OHLCV JSON files.
//
// For each input file the trainer:
//  1. Parses and cleans the records (sort by time, fill gaps, drop
//     incomplete rows)
//  2. Fits a min-max scaler on the full feature matrix
//  3. Builds sliding training windows over the scaled series
//  4. Fits a ridge-regularized linear model on the flattened windows
//  5. Persists the model, scaler, and target metadata as one artifact
//     triple named after the symbol, window size, and forecast size
//
// Usage:
//
//	trainer -data-dir=data -models-dir=models -window=20 -forecast=1
//	trainer -data-file=data/BTCUSDT1h.json
//
// Environment variables:
//
//	DATA_DIR    - Directory of OHLCV JSON files
//	DATA_FILE   - Single OHLCV JSON file (mutually exclusive with DATA_DIR)
//	MODELS_DIR  - Output artifact directory (default: models)
//	WINDOW      - Observation window size (default: 20)
//	FORECAST    - Forecast horizon in bars (default: 1)
//	FEATURES    - Comma-separated feature columns (default: open,close,high,low,volume)
//	TARGET      - Target column (default: close)
//	LOG_LEVEL   - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT  - Logging format: text, json (default: text)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/slicken/candlecast/cmd/trainer/config"
	"github.com/slicken/candlecast/cmd/trainer/logger"
	"github.com/slicken/candlecast/pkg/artifact"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting candlecast trainer",
		"version", version,
		"models_dir", cfg.ModelsDir,
		"window_size", cfg.WindowSize,
		"forecast_size", cfg.ForecastSize,
		"features", cfg.Features,
		"target", cfg.Target,
	)

	store, err := artifact.NewStore(cfg.ModelsDir, logger)
	if err != nil {
		logger.Error("failed to open models directory", "error", err)
		os.Exit(1)
	}

	trainer := NewTrainer(store, cfg.Features, cfg.TargetIndex(),
		cfg.WindowSize, cfg.ForecastSize, cfg.Lambda, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.DataFile != "" {
		if err := trainer.TrainFile(ctx, cfg.DataFile); err != nil {
			logger.Error("training failed", "file", cfg.DataFile, "error", err)
			os.Exit(1)
		}
		logger.Info("training complete", "trained", 1)
		return
	}

	trained, failed, err := trainer.TrainDir(ctx, cfg.DataDir)
	if err != nil {
		logger.Error("training aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("training complete", "trained", trained, "failed", failed)

	if trained == 0 {
		logger.Error("no models were trained")
		os.Exit(1)
	}
}
