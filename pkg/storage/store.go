// Package storage provides stores for the latest served prediction per
// symbol, so operators and downstream consumers can read what the server
// last predicted without re-running inference.
package storage

import (
	"context"
	"time"
)

// Snapshot records one served prediction.
type Snapshot struct {
	Symbol       string    `json:"symbol"`
	WindowSize   int       `json:"windowSize"`
	ForecastSize int       `json:"forecastSize"`
	Prediction   float64   `json:"prediction"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Store keeps the latest snapshot per symbol.
type Store interface {
	Put(ctx context.Context, snapshot Snapshot) error
	GetLatest(ctx context.Context, symbol string) (Snapshot, bool, error)
}
