// Package artifacts loads the serialized preprocessing bundle and fitted
// model the service depends on. Everything here is read once at startup and
// never mutated afterwards.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinstack/patient-risk-api/internal/frame"
	"github.com/clinstack/patient-risk-api/internal/model"
)

const (
	bundleFile = "pipeline_artifacts.json"
	modelFile  = "final_model.json"
	top20File  = "top_20_features.csv"
)

// LabelEncoder maps a categorical column's known classes to their indices.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Imputer carries per-column fill statistics for missing cells.
type Imputer struct {
	Strategy   string    `json:"strategy"`
	Statistics []float64 `json:"statistics"`
}

// Selector marks which reconciled columns the model consumes, either as a
// support mask over all columns or as explicit indices.
type Selector struct {
	Support []bool `json:"support"`
	Indices []int  `json:"indices"`
}

// Bundle is the saved preprocessing pipeline. Each component is optional;
// absent components are bypassed.
type Bundle struct {
	SanitizedFeatureNames []string                `json:"sanitized_feature_names"`
	SelectedFeatures      []string                `json:"selected_features"`
	FeatureNameMapping    map[string]string       `json:"feature_name_mapping"`
	LabelEncoders         map[string]LabelEncoder `json:"label_encoders"`
	Imputer               *Imputer                `json:"imputer"`
	Selector              *Selector               `json:"selector"`
}

// Artifacts is everything the service loads at startup.
type Artifacts struct {
	Bundle *Bundle
	Model  model.Model
	Top20  []string
}

// Load reads the pipeline bundle, model and optional top-20 display names
// from dir. A missing or corrupt bundle or model file is an error; the
// display-name table is best effort.
func Load(dir string) (*Artifacts, error) {
	bundlePath := filepath.Join(dir, bundleFile)
	modelPath := filepath.Join(dir, modelFile)

	logrus.WithFields(logrus.Fields{
		"dir":    dir,
		"bundle": bundlePath,
		"model":  modelPath,
	}).Info("loading model artifacts")

	bundleData, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("pipeline artifacts not found at %s: %w", bundlePath, err)
	}
	var bundle Bundle
	if err := json.Unmarshal(bundleData, &bundle); err != nil {
		return nil, fmt.Errorf("failed to load pipeline artifacts: %w", err)
	}

	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("model artifacts not found at %s: %w", modelPath, err)
	}
	m, err := model.Decode(modelData)
	if err != nil {
		return nil, fmt.Errorf("failed to load model artifacts: %w", err)
	}

	a := &Artifacts{Bundle: &bundle, Model: m, Top20: loadTop20(filepath.Join(dir, top20File))}

	logrus.WithFields(logrus.Fields{
		"model_kind":         m.Kind(),
		"sanitized_features": len(bundle.SanitizedFeatureNames),
		"selected_features":  len(bundle.SelectedFeatures),
		"label_encoders":     len(bundle.LabelEncoders),
		"top20_names":        len(a.Top20),
	}).Info("model artifacts loaded")

	return a, nil
}

// loadTop20 reads the optional display-name table: either a single-column
// CSV or one with a "feature" column. Failures only cost the display names.
func loadTop20(path string) []string {
	fh, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer fh.Close()

	f, err := frame.FromCSV(fh)
	if err != nil {
		logrus.WithError(err).Warn("could not load top 20 features")
		return nil
	}

	var col []any
	switch {
	case f.NumCols() == 1:
		col = f.Column(f.Columns()[0])
	case f.HasColumn("feature"):
		col = f.Column("feature")
	default:
		return nil
	}

	var names []string
	for _, cell := range col {
		if cell == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(cell))
		if s != "" {
			names = append(names, s)
		}
	}
	return names
}
