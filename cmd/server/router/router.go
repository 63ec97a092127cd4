// Package router configures HTTP routes for the prediction server's API.
//
// Routes configured:
//   - POST /predict - Run one windowed prediction for a symbol
//   - GET /prediction/latest?symbol=<name> - Retrieve the latest stored prediction
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /metrics - Prometheus metrics endpoint
//
// The /predict endpoint accepts a JSON body with the symbol, the window and
// forecast sizes, and the observation window itself. The observations key
// also accepts the alias "ohlcv". On success it returns {"prediction":<v>}
// and stores a snapshot for /prediction/latest; storage failures never fail
// the prediction response.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slicken/candlecast/cmd/server/metrics"
	"github.com/slicken/candlecast/pkg/artifact"
	"github.com/slicken/candlecast/pkg/httpx"
	"github.com/slicken/candlecast/pkg/inference"
	"github.com/slicken/candlecast/pkg/storage"
)

// predictRequest is the wire shape of POST /predict.
type predictRequest struct {
	Symbol       string               `json:"symbol"`
	WindowSize   int                  `json:"window_size"`
	ForecastSize int                  `json:"forecast_size"`
	Observations []map[string]float64 `json:"observations"`
	OHLCV        []map[string]float64 `json:"ohlcv"`
}

// predictResponse is the wire shape of a successful prediction.
type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// SetupRoutes configures HTTP endpoints for the prediction server.
// The metrics argument may be nil to disable instrumentation.
func SetupRoutes(pipeline *inference.Pipeline, store storage.Store, m *metrics.Metrics, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", healthHandler(store))
	mux.HandleFunc("/predict", handlePredict(pipeline, store, m, logger))
	mux.HandleFunc("/prediction/latest", handleGetLatest(store, logger))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// healthHandler verifies the snapshot store connection when the backend
// supports pinging (Redis); the memory store is always healthy.
func healthHandler(store storage.Store) http.HandlerFunc {
	pinger, ok := store.(interface{ Ping(context.Context) error })
	if !ok {
		return httpx.HealthHandler()
	}
	return httpx.HealthHandlerWithCheck(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pinger.Ping(ctx)
	})
}

// handlePredict returns a handler for POST /predict.
func handlePredict(pipeline *inference.Pipeline, store storage.Store, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var body predictRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
			return
		}

		observations := body.Observations
		if observations == nil {
			observations = body.OHLCV
		}

		req := inference.Request{
			Symbol:       body.Symbol,
			WindowSize:   body.WindowSize,
			ForecastSize: body.ForecastSize,
			Observations: observations,
		}

		start := time.Now()
		prediction, err := pipeline.Predict(r.Context(), req)
		if m != nil {
			m.RecordPredict(time.Since(start).Seconds())
		}
		if err != nil {
			writePredictError(w, m, logger, req, err)
			return
		}

		symbol := artifact.CleanSymbol(body.Symbol)
		if m != nil {
			m.SetPredictedValue(symbol, prediction)
		}

		storeSnapshot(r.Context(), store, logger, storage.Snapshot{
			Symbol:       symbol,
			WindowSize:   body.WindowSize,
			ForecastSize: body.ForecastSize,
			Prediction:   prediction,
			GeneratedAt:  time.Now().UTC(),
		})

		if err := httpx.WriteJSON(w, http.StatusOK, predictResponse{Prediction: prediction}); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}

// writePredictError maps pipeline error kinds to transport outcomes.
func writePredictError(w http.ResponseWriter, m *metrics.Metrics, logger *slog.Logger, req inference.Request, err error) {
	var (
		validationErr *inference.ValidationError
		notFoundErr   *inference.NotFoundError
		inferenceErr  *inference.InferenceError
	)

	switch {
	case errors.As(err, &validationErr):
		if m != nil {
			m.RecordError("predict", "validation")
		}
		httpx.WriteError(w, http.StatusBadRequest, err)

	case errors.As(err, &notFoundErr):
		if m != nil {
			m.RecordError("predict", "not_found")
		}
		httpx.WriteError(w, http.StatusNotFound, err)

	case errors.As(err, &inferenceErr):
		if m != nil {
			m.RecordError("predict", "inference")
		}
		logger.Error("inference failed",
			"symbol", req.Symbol,
			"window_size", req.WindowSize,
			"forecast_size", req.ForecastSize,
			"stage", inferenceErr.Stage,
			"error", err,
		)
		httpx.WriteError(w, http.StatusInternalServerError, err)

	default:
		if m != nil {
			m.RecordError("predict", "internal")
		}
		logger.Error("prediction failed", "symbol", req.Symbol, "error", err)
		httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// storeSnapshot persists the latest prediction. Failures are logged and
// swallowed: snapshot storage must never fail a served prediction.
func storeSnapshot(ctx context.Context, store storage.Store, logger *slog.Logger, snapshot storage.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := store.Put(ctx, snapshot); err != nil {
		logger.Warn("failed to store prediction snapshot", "symbol", snapshot.Symbol, "error", err)
	}
}

// handleGetLatest returns a handler for GET /prediction/latest?symbol=<name>.
func handleGetLatest(store storage.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "symbol parameter required")
			return
		}
		symbol = artifact.CleanSymbol(symbol)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshot, found, err := store.GetLatest(ctx, symbol)
		if err != nil {
			logger.Error("failed to get snapshot", "symbol", symbol, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("no prediction stored for symbol %q", symbol))
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snapshot); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}
