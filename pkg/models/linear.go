package models

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

const linearName = "linear"

// DefaultLambda is the ridge penalty used when none is configured. A small
// positive penalty keeps the normal equations well conditioned when window
// columns are nearly collinear, which OHLCV features usually are.
const DefaultLambda = 1e-4

// Linear is a ridge-regularized least-squares regressor over the flattened
// window. Each window of shape (windowSize, numFeatures) is flattened
// row-major into windowSize*numFeatures inputs; the prediction is their
// weighted sum plus a bias.
type Linear struct {
	ModelType   string    `json:"model"`
	WindowSize  int       `json:"window_size"`
	NumFeatures int       `json:"num_features"`
	Weights     []float64 `json:"weights"`
	Bias        float64   `json:"bias"`
	Lambda      float64   `json:"lambda"`
}

// NewLinear creates an untrained linear model. lambda <= 0 selects
// DefaultLambda.
func NewLinear(lambda float64) *Linear {
	if lambda <= 0 {
		lambda = DefaultLambda
	}
	return &Linear{
		ModelType: linearName,
		Lambda:    lambda,
	}
}

// Name returns the model type identifier.
func (m *Linear) Name() string { return linearName }

// Train solves the ridge normal equations (AᵀA + λI)β = Aᵀy over the
// flattened windows, with a bias column appended to the design matrix.
func (m *Linear) Train(ctx context.Context, X [][][]float64, y []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(X) == 0 {
		return fmt.Errorf("linear: no training windows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("linear: %d windows but %d targets", len(X), len(y))
	}

	w := len(X[0])
	if w == 0 {
		return fmt.Errorf("linear: empty window")
	}
	f := len(X[0][0])
	if f == 0 {
		return fmt.Errorf("linear: zero-width window rows")
	}

	n := len(X)
	p := w*f + 1 // flattened inputs plus bias column

	a := mat.NewDense(n, p, nil)
	for i, win := range X {
		if len(win) != w {
			return fmt.Errorf("linear: window %d has %d rows, want %d", i, len(win), w)
		}
		for r, row := range win {
			if len(row) != f {
				return fmt.Errorf("linear: window %d row %d has %d features, want %d", i, r, len(row), f)
			}
			for c, v := range row {
				a.Set(i, r*f+c, v)
			}
		}
		a.Set(i, p-1, 1)
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := 0; i < p; i++ {
		ata.Set(i, i, ata.At(i, i)+m.Lambda)
	}

	var aty mat.VecDense
	aty.MulVec(a.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(p, ata.RawMatrix().Data)); !ok {
		return fmt.Errorf("linear: normal equations not positive definite (lambda=%g)", m.Lambda)
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &aty); err != nil {
		return fmt.Errorf("linear: solve: %w", err)
	}

	m.WindowSize = w
	m.NumFeatures = f
	m.Weights = make([]float64, w*f)
	for i := range m.Weights {
		m.Weights[i] = beta.AtVec(i)
	}
	m.Bias = beta.AtVec(p - 1)

	return nil
}

// Predict computes the weighted sum over one flattened window.
func (m *Linear) Predict(_ context.Context, window [][]float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, fmt.Errorf("linear: model not trained")
	}
	if len(window) != m.WindowSize {
		return 0, fmt.Errorf("linear: window has %d rows, model expects %d", len(window), m.WindowSize)
	}

	sum := m.Bias
	for r, row := range window {
		if len(row) != m.NumFeatures {
			return 0, fmt.Errorf("linear: window row %d has %d features, model expects %d", r, len(row), m.NumFeatures)
		}
		base := r * m.NumFeatures
		for c, v := range row {
			sum += m.Weights[base+c] * v
		}
	}

	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("linear: non-finite prediction")
	}
	return sum, nil
}

// Save writes the trained model as JSON.
func (m *Linear) Save(path string) error {
	if len(m.Weights) == 0 {
		return fmt.Errorf("linear: refusing to save untrained model")
	}
	m.ModelType = linearName

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("linear: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("linear: write %s: %w", path, err)
	}
	return nil
}

func loadLinear(path string, data []byte) (*Linear, error) {
	var m Linear
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("linear: parse %s: %w", path, err)
	}

	if m.WindowSize <= 0 || m.NumFeatures <= 0 {
		return nil, fmt.Errorf("linear: %s: invalid shape (%d,%d)", path, m.WindowSize, m.NumFeatures)
	}
	if len(m.Weights) != m.WindowSize*m.NumFeatures {
		return nil, fmt.Errorf("linear: %s: %d weights for shape (%d,%d)",
			path, len(m.Weights), m.WindowSize, m.NumFeatures)
	}

	return &m, nil
}
