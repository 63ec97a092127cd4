// Package inference implements the windowed-inference pipeline: request
// validation, the scale→predict→inverse-scale transformation chain, and the
// error taxonomy the serving layer maps to transport outcomes.
//
// The transformation chain must mirror training exactly: observations are
// projected onto the metadata's feature order, scaled with the frozen
// per-symbol scaler, fed to the model as a single window, and the scalar
// output is inverse-scaled back into the original unit space.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/slicken/candlecast/pkg/artifact"
)

// Request is one prediction request after transport decoding.
type Request struct {
	Symbol       string
	WindowSize   int
	ForecastSize int
	Observations []map[string]float64
}

// Pipeline validates requests and runs the transformation chain against
// artifacts served by the cache. It is safe for concurrent use.
type Pipeline struct {
	cache  *artifact.Cache
	logger *slog.Logger
}

// New creates a pipeline reading artifacts through cache.
func New(cache *artifact.Cache, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cache: cache, logger: logger}
}

// Predict runs one request through the pipeline and returns the prediction
// in the target column's original unit space.
//
// Validation fails fast with a *ValidationError; a missing artifact triple
// is a *NotFoundError; transform or model failures are *InferenceError.
func (p *Pipeline) Predict(ctx context.Context, req Request) (float64, error) {
	if req.WindowSize <= 0 {
		return 0, &ValidationError{Reason: fmt.Sprintf("window_size must be a positive integer, got %d", req.WindowSize)}
	}
	if req.ForecastSize <= 0 {
		return 0, &ValidationError{Reason: fmt.Sprintf("forecast_size must be a positive integer, got %d", req.ForecastSize)}
	}
	if len(req.Observations) != req.WindowSize {
		return 0, &ValidationError{Reason: fmt.Sprintf(
			"observations length mismatch: expected %d, got %d", req.WindowSize, len(req.Observations))}
	}

	key := artifact.NewKey(req.Symbol, req.WindowSize, req.ForecastSize)

	triple, err := p.cache.GetOrLoad(ctx, key)
	if err != nil {
		return 0, &NotFoundError{
			Symbol:       key.Symbol,
			WindowSize:   key.WindowSize,
			ForecastSize: key.ForecastSize,
			Cause:        err,
		}
	}

	// Every declared feature must be present in every observation; extra,
	// undeclared fields are ignored.
	for i, obs := range req.Observations {
		if missing := missingFeatures(obs, triple.Meta.Features); len(missing) > 0 {
			return 0, &ValidationError{Reason: fmt.Sprintf(
				"observation %d is missing feature(s): %v", i, missing)}
		}
	}

	// Project each observation onto the declared feature order. This
	// reconstructs the exact column layout the scaler was fitted on.
	matrix := make([][]float64, len(req.Observations))
	for i, obs := range req.Observations {
		row := make([]float64, len(triple.Meta.Features))
		for j, name := range triple.Meta.Features {
			row[j] = obs[name]
		}
		matrix[i] = row
	}

	// Frozen forward transform. Never refit here: a refit would silently
	// corrupt every subsequent prediction for this symbol.
	scaled, err := triple.Scaler.Transform(matrix)
	if err != nil {
		return 0, &InferenceError{Stage: "scaling", Cause: err}
	}

	scaledPred, err := triple.Model.Predict(ctx, scaled)
	if err != nil {
		return 0, &InferenceError{Stage: "model prediction", Cause: err}
	}

	prediction, err := p.inverseScale(triple, scaledPred)
	if err != nil {
		return 0, &InferenceError{Stage: "inverse scaling", Cause: err}
	}

	p.logger.Debug("prediction served",
		"symbol", key.Symbol,
		"window_size", key.WindowSize,
		"forecast_size", key.ForecastSize,
		"prediction", prediction,
	)

	return prediction, nil
}

// inverseScale recovers the unscaled prediction. The scalar is placed into a
// zero-filled feature vector at the target column and the whole vector is
// inverse-transformed: a per-feature affine inverse needs a value in every
// column, and only the target column's reconstruction is meaningful.
func (p *Pipeline) inverseScale(t *artifact.Triple, scaledPred float64) (float64, error) {
	padded := make([]float64, len(t.Meta.Features))
	padded[t.Meta.TargetColumnIndex] = scaledPred

	unscaled, err := t.Scaler.InverseTransform([][]float64{padded})
	if err != nil {
		return 0, err
	}

	v := unscaled[0][t.Meta.TargetColumnIndex]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite prediction %v", v)
	}
	return v, nil
}

// missingFeatures returns the declared features absent from obs, sorted for
// stable error messages.
func missingFeatures(obs map[string]float64, features []string) []string {
	var missing []string
	for _, name := range features {
		if _, ok := obs[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
