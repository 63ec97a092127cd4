// Package models provides sequence-to-scalar regression models for the
// windowed forecasting pipeline.
//
// A model consumes a window of windowSize consecutive feature vectors (all
// values already scaled into [0,1] by the symbol's fitted scaler) and
// produces a single scaled prediction for the target column forecastSize
// steps ahead. Models are trained once by the trainer, persisted next to
// their scaler and target metadata, and treated as frozen at serving time.
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Model is a trainable sequence-to-scalar regressor.
type Model interface {
	// Name returns the model type identifier persisted in the model file.
	Name() string

	// Train fits the model on windows X and aligned targets y.
	// X has shape (n, windowSize, numFeatures); y has length n.
	Train(ctx context.Context, X [][][]float64, y []float64) error

	// Predict returns the scalar prediction for a single window of shape
	// (windowSize, numFeatures). The call is blocking and non-cancelable
	// once started; it must never mutate the model.
	Predict(ctx context.Context, window [][]float64) (float64, error)

	// Save persists the trained model as JSON at path, overwriting any
	// existing file.
	Save(path string) error
}

// header carries the type tag every model file starts with.
type header struct {
	Model string `json:"model"`
}

// Load reads a persisted model file, dispatching on its "model" type tag.
// An unknown tag or malformed body is a hard load failure.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("models: read %s: %w", path, err)
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("models: parse %s: %w", path, err)
	}

	switch h.Model {
	case linearName:
		return loadLinear(path, data)
	default:
		return nil, fmt.Errorf("models: %s: unknown model type %q", path, h.Model)
	}
}
