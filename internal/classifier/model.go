// Package classifier implements the per-user online linear model: a
// multinomial logistic head over a normalized embedding, trained one
// correction at a time.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mikey/mail-triage/internal/core"
)

const (
	// learningRate bounds how far one correction can move the model.
	learningRate = 0.05

	// maxFeatureZ clips normalized features so a single outlier embedding
	// cannot blow up an update step.
	maxFeatureZ = 3.0
)

// runningNorm is a Welford-style running feature normalizer. It travels
// with the weights so predictions see the same feature space as training.
type runningNorm struct {
	Count int       `json:"count"`
	Mean  []float64 `json:"mean"`
	M2    []float64 `json:"m2"`
}

func (n *runningNorm) observe(x []float32) {
	if n.Mean == nil {
		n.Mean = make([]float64, len(x))
		n.M2 = make([]float64, len(x))
	}
	n.Count++
	for j, v := range x {
		delta := float64(v) - n.Mean[j]
		n.Mean[j] += delta / float64(n.Count)
		n.M2[j] += delta * (float64(v) - n.Mean[j])
	}
}

func (n *runningNorm) normalize(x []float32) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		std := 1.0
		if n.Count > 1 {
			if variance := n.M2[j] / float64(n.Count-1); variance > 1e-9 {
				std = math.Sqrt(variance)
			}
		}
		zj := (float64(v) - n.Mean[j]) / std
		if zj > maxFeatureZ {
			zj = maxFeatureZ
		} else if zj < -maxFeatureZ {
			zj = -maxFeatureZ
		}
		z[j] = zj
	}
	return z
}

// Model is one label head. Weights has one row per class; the last column
// is the bias. Dim is fixed by the first correction's embedding.
type Model struct {
	Classes int         `json:"classes"`
	Dim     int         `json:"dim"`
	Weights [][]float64 `json:"weights"`
	Norm    runningNorm `json:"norm"`
	Updates int         `json:"updates"`
}

// New creates an untrained model for a class space.
func New(classes int) *Model {
	return &Model{Classes: classes}
}

// Predict returns the most likely class and the softmax confidence for it.
// ok is false while the model has never been trained or the embedding does
// not match the trained feature space; callers fall back to the rule path.
func (m *Model) Predict(x []float32) (class int, confidence float64, ok bool) {
	if m.Updates == 0 || len(x) == 0 || len(x) != m.Dim {
		return 0, 0, false
	}
	probs := m.probabilities(m.Norm.normalize(x))
	best := 0
	for k, p := range probs {
		if p > probs[best] {
			best = k
		}
	}
	return best, probs[best], true
}

// Learn performs one bounded online gradient step toward the corrected
// class. It never refits: only the running statistics and one gradient's
// worth of weight movement change per call.
func (m *Model) Learn(x []float32, class int) error {
	if class < 0 || class >= m.Classes {
		return fmt.Errorf("class %d outside [0, %d)", class, m.Classes)
	}
	if len(x) == 0 {
		return fmt.Errorf("empty embedding")
	}
	if m.Dim == 0 {
		m.Dim = len(x)
		m.Weights = make([][]float64, m.Classes)
		for k := range m.Weights {
			m.Weights[k] = make([]float64, m.Dim+1)
		}
	}
	if len(x) != m.Dim {
		return fmt.Errorf("embedding dimension %d does not match trained dimension %d", len(x), m.Dim)
	}

	m.Norm.observe(x)
	z := m.Norm.normalize(x)
	probs := m.probabilities(z)

	for k := range m.Weights {
		target := 0.0
		if k == class {
			target = 1.0
		}
		gradient := probs[k] - target
		for j, zj := range z {
			m.Weights[k][j] -= learningRate * gradient * zj
		}
		m.Weights[k][m.Dim] -= learningRate * gradient
	}
	m.Updates++
	return nil
}

func (m *Model) probabilities(z []float64) []float64 {
	scores := make([]float64, m.Classes)
	maxScore := math.Inf(-1)
	for k, row := range m.Weights {
		s := row[m.Dim]
		for j, zj := range z {
			s += row[j] * zj
		}
		scores[k] = s
		if s > maxScore {
			maxScore = s
		}
	}

	sum := 0.0
	for k, s := range scores {
		scores[k] = math.Exp(s - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores
}

// Marshal serializes the model for persistence.
func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal restores a persisted model. Any structural damage surfaces as
// ErrStateCorrupt; the engine never silently resets a trained model.
func Unmarshal(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStateCorrupt, err)
	}
	if m.Classes <= 0 || m.Dim < 0 {
		return nil, fmt.Errorf("%w: invalid shape (classes=%d dim=%d)", core.ErrStateCorrupt, m.Classes, m.Dim)
	}
	if m.Dim > 0 {
		if len(m.Weights) != m.Classes {
			return nil, fmt.Errorf("%w: %d weight rows for %d classes", core.ErrStateCorrupt, len(m.Weights), m.Classes)
		}
		for _, row := range m.Weights {
			if len(row) != m.Dim+1 {
				return nil, fmt.Errorf("%w: weight row length %d, want %d", core.ErrStateCorrupt, len(row), m.Dim+1)
			}
		}
		// The normalizer travels with the weights; a length mismatch
		// would index out of range inside Predict.
		if (m.Updates > 0 || m.Norm.Count > 0) && (len(m.Norm.Mean) != m.Dim || len(m.Norm.M2) != m.Dim) {
			return nil, fmt.Errorf("%w: normalizer length %d/%d, want %d",
				core.ErrStateCorrupt, len(m.Norm.Mean), len(m.Norm.M2), m.Dim)
		}
	}
	return &m, nil
}
