package model

import (
	"math"
	"testing"
)

func TestDecodeKinds(t *testing.T) {
	cases := []struct {
		name string
		data string
		kind string
	}{
		{"logistic", `{"kind":"logistic","weights":[0.5,-0.2],"intercept":0.1}`, "logistic"},
		{"softmax", `{"kind":"softmax","coefficients":[[1,0],[0,1],[0.5,0.5]],"intercepts":[0,0,0]}`, "softmax"},
		{"margin", `{"kind":"margin","weights":[1,1],"intercept":-1}`, "margin"},
		{"threshold", `{"kind":"threshold","weights":[1],"intercept":0}`, "threshold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Decode([]byte(tc.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Kind() != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, m.Kind())
			}
		})
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := Decode([]byte(`{"kind":"forest"}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestLogisticProbaBoundsAndThreshold(t *testing.T) {
	m := &Logistic{Weights: []float64{2, -1}, Intercept: 0.5}
	X := [][]float64{{0, 0}, {5, 0}, {-5, 5}}

	proba, err := m.PredictProba(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	preds, err := m.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range proba {
		if p[1] < 0 || p[1] > 1 {
			t.Fatalf("row %d: probability out of range: %v", i, p[1])
		}
		if math.Abs(p[0]+p[1]-1) > 1e-9 {
			t.Fatalf("row %d: class probabilities do not sum to 1: %v", i, p)
		}
		want := 0.0
		if p[1] >= 0.5 {
			want = 1
		}
		if preds[i] != want {
			t.Fatalf("row %d: prediction %v inconsistent with p=%v", i, preds[i], p[1])
		}
	}
}

func TestLogisticWidthMismatch(t *testing.T) {
	m := &Logistic{Weights: []float64{1, 2}}
	if _, err := m.PredictProba([][]float64{{1, 2, 3}}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestSoftmaxProbaSumsToOne(t *testing.T) {
	m := &Softmax{
		Coefficients: [][]float64{{1, 0}, {0, 1}, {-1, -1}},
		Intercepts:   []float64{0, 0.5, 0},
	}
	proba, err := m.PredictProba([][]float64{{2, 1}, {0, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, classes := range proba {
		var total float64
		for _, p := range classes {
			if p < 0 || p > 1 {
				t.Fatalf("row %d: class probability out of range: %v", i, p)
			}
			total += p
		}
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("row %d: probabilities sum to %v", i, total)
		}
	}
}

func TestMarginDecisionAndPredict(t *testing.T) {
	m := &Margin{Weights: []float64{1}, Intercept: -2}
	scores, err := m.DecisionFunction([][]float64{{5}, {1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0] != 3 || scores[1] != -1 {
		t.Fatalf("unexpected scores: %v", scores)
	}

	preds, err := m.Predict([][]float64{{5}, {1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preds[0] != 1 || preds[1] != 0 {
		t.Fatalf("unexpected predictions: %v", preds)
	}
}

func TestSigmoid(t *testing.T) {
	if Sigmoid(0) != 0.5 {
		t.Fatalf("expected 0.5, got %v", Sigmoid(0))
	}
	if p := Sigmoid(100); p <= 0.99 {
		t.Fatalf("expected near 1, got %v", p)
	}
	if p := Sigmoid(-100); p >= 0.01 {
		t.Fatalf("expected near 0, got %v", p)
	}
}
