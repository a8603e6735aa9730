// Package model defines the capability interfaces the predictor probes and
// the concrete linear model kinds the artifact file can carry.
package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Model produces hard class labels, one per input row.
type Model interface {
	Kind() string
	Predict(X [][]float64) ([]float64, error)
}

// ProbabilityModel additionally exposes per-row class probabilities.
type ProbabilityModel interface {
	Model
	PredictProba(X [][]float64) ([][]float64, error)
}

// MarginModel additionally exposes a raw decision score per row.
type MarginModel interface {
	Model
	DecisionFunction(X [][]float64) ([]float64, error)
}

// Sigmoid maps a raw score to (0,1).
func Sigmoid(score float64) float64 {
	return 1 / (1 + math.Exp(-score))
}

type modelFile struct {
	Kind         string      `json:"kind"`
	Weights      []float64   `json:"weights"`
	Intercept    float64     `json:"intercept"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// Decode parses a serialized model document by its kind discriminator.
func Decode(data []byte) (Model, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}
	switch mf.Kind {
	case "logistic":
		if len(mf.Weights) == 0 {
			return nil, fmt.Errorf("logistic model has no weights")
		}
		return &Logistic{Weights: mf.Weights, Intercept: mf.Intercept}, nil
	case "softmax":
		if len(mf.Coefficients) == 0 {
			return nil, fmt.Errorf("softmax model has no coefficients")
		}
		return &Softmax{Coefficients: mf.Coefficients, Intercepts: mf.Intercepts}, nil
	case "margin":
		if len(mf.Weights) == 0 {
			return nil, fmt.Errorf("margin model has no weights")
		}
		return &Margin{Weights: mf.Weights, Intercept: mf.Intercept}, nil
	case "threshold":
		if len(mf.Weights) == 0 {
			return nil, fmt.Errorf("threshold model has no weights")
		}
		return &Threshold{Weights: mf.Weights, Intercept: mf.Intercept}, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", mf.Kind)
	}
}

func dot(weights, row []float64, intercept float64) (float64, error) {
	if len(row) != len(weights) {
		return 0, fmt.Errorf("feature width %d does not match model width %d", len(row), len(weights))
	}
	sum := intercept
	for j, v := range row {
		sum += weights[j] * v
	}
	return sum, nil
}

// Logistic is a binary linear classifier with a sigmoid link.
type Logistic struct {
	Weights   []float64
	Intercept float64
}

func (m *Logistic) Kind() string { return "logistic" }

// PredictProba returns [p(y=0), p(y=1)] per row.
func (m *Logistic) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		score, err := dot(m.Weights, row, m.Intercept)
		if err != nil {
			return nil, err
		}
		p := Sigmoid(score)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (m *Logistic) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p[1] >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// Softmax is a multinomial linear classifier, one coefficient row per class.
type Softmax struct {
	Coefficients [][]float64
	Intercepts   []float64
}

func (m *Softmax) Kind() string { return "softmax" }

func (m *Softmax) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scores := make([]float64, len(m.Coefficients))
		maxScore := math.Inf(-1)
		for c, coef := range m.Coefficients {
			var intercept float64
			if c < len(m.Intercepts) {
				intercept = m.Intercepts[c]
			}
			s, err := dot(coef, row, intercept)
			if err != nil {
				return nil, err
			}
			scores[c] = s
			if s > maxScore {
				maxScore = s
			}
		}
		var total float64
		for c, s := range scores {
			scores[c] = math.Exp(s - maxScore)
			total += scores[c]
		}
		for c := range scores {
			scores[c] /= total
		}
		out[i] = scores
	}
	return out, nil
}

func (m *Softmax) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		best := 0
		for c := range p {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = float64(best)
	}
	return out, nil
}

// Margin is a linear scorer with no probability calibration.
type Margin struct {
	Weights   []float64
	Intercept float64
}

func (m *Margin) Kind() string { return "margin" }

func (m *Margin) DecisionFunction(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		score, err := dot(m.Weights, row, m.Intercept)
		if err != nil {
			return nil, err
		}
		out[i] = score
	}
	return out, nil
}

func (m *Margin) Predict(X [][]float64) ([]float64, error) {
	scores, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s >= 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// Threshold only emits hard 0/1 labels.
type Threshold struct {
	Weights   []float64
	Intercept float64
}

func (m *Threshold) Kind() string { return "threshold" }

func (m *Threshold) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		score, err := dot(m.Weights, row, m.Intercept)
		if err != nil {
			return nil, err
		}
		if score >= 0 {
			out[i] = 1
		}
	}
	return out, nil
}
