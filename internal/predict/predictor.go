// Package predict turns preprocessed feature matrices into risk scores and
// assembles the per-record feature context for explanations.
package predict

import (
	"fmt"

	"github.com/clinstack/patient-risk-api/internal/artifacts"
	"github.com/clinstack/patient-risk-api/internal/frame"
	"github.com/clinstack/patient-risk-api/internal/model"
	"github.com/clinstack/patient-risk-api/internal/pipeline"
)

// Risk level thresholds.
const (
	mediumThreshold  = 0.3
	highThreshold    = 0.6
	predictThreshold = 0.5
)

// Error is a processing failure tagged with its kind, so the HTTP error
// envelope can report what stage failed alongside the message.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Summary is the full inference result for a batch of records.
type Summary struct {
	RiskProbability []float64
	RiskPrediction  []int
	RiskLevel       []string
	TopFeatures     []*frame.FeatureMap
}

// Service runs the preprocessing pipeline and model over input frames.
type Service struct {
	arts *artifacts.Artifacts
}

// New returns a predictor over the loaded artifacts.
func New(arts *artifacts.Artifacts) *Service {
	return &Service{arts: arts}
}

// Infer preprocesses the frame, scores it and highlights each record's
// features. Preprocessing and prediction errors fail the whole request.
func (s *Service) Infer(f *frame.Frame) (*Summary, error) {
	matrix, err := pipeline.Preprocess(f, s.arts.Bundle)
	if err != nil {
		return nil, &Error{Kind: "PreprocessingError", Err: err}
	}

	probs, err := Probabilities(s.arts.Model, matrix)
	if err != nil {
		return nil, &Error{Kind: "PredictionError", Err: err}
	}

	sum := &Summary{
		RiskProbability: probs,
		RiskPrediction:  make([]int, len(probs)),
		RiskLevel:       make([]string, len(probs)),
		TopFeatures:     make([]*frame.FeatureMap, f.NumRows()),
	}
	for i, p := range probs {
		if p >= predictThreshold {
			sum.RiskPrediction[i] = 1
		}
		sum.RiskLevel[i] = RiskLevel(p)
	}
	for i := 0; i < f.NumRows(); i++ {
		sum.TopFeatures[i] = Highlight(f, i, s.arts.Bundle)
	}
	return sum, nil
}

// Probabilities maps model output to one risk probability in [0,1] per row,
// preferring class probabilities, then decision scores through a sigmoid,
// then hard labels mapped to 0/1.
func Probabilities(m model.Model, X [][]float64) ([]float64, error) {
	if pm, ok := m.(model.ProbabilityModel); ok {
		proba, err := pm.PredictProba(X)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(proba))
		for i, classes := range proba {
			if len(classes) == 2 {
				out[i] = classes[1]
				continue
			}
			// Multi-class: max class probability stands in for risk.
			// Inherited behavior, not a calibrated measure.
			best := 0.0
			for _, p := range classes {
				if p > best {
					best = p
				}
			}
			out[i] = best
		}
		return out, nil
	}

	if mm, ok := m.(model.MarginModel); ok {
		scores, err := mm.DecisionFunction(X)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(scores))
		for i, s := range scores {
			out[i] = model.Sigmoid(s)
		}
		return out, nil
	}

	preds, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(preds))
	for i, p := range preds {
		if p == 1 {
			out[i] = 1
		}
	}
	return out, nil
}

// RiskLevel buckets a probability into Low, Medium or High.
func RiskLevel(p float64) string {
	switch {
	case p < mediumThreshold:
		return "Low"
	case p < highThreshold:
		return "Medium"
	default:
		return "High"
	}
}
