package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

const validBundle = `{
	"sanitized_feature_names": ["time_in_hospital", "race", "number_inpatient"],
	"selected_features": ["time_in_hospital", "number_inpatient"],
	"feature_name_mapping": {"Time in Hospital": "time_in_hospital"},
	"label_encoders": {"race": {"classes": ["Caucasian", "AfricanAmerican"]}},
	"imputer": {"strategy": "mean", "statistics": [4.2, 0, 0.3]},
	"selector": {"support": [true, false, true]}
}`

const validModel = `{"kind": "logistic", "weights": [0.4, 0.1], "intercept": -0.5}`

func writeArtifacts(t *testing.T, bundle, model string) string {
	t.Helper()
	dir := t.TempDir()
	if bundle != "" {
		if err := os.WriteFile(filepath.Join(dir, "pipeline_artifacts.json"), []byte(bundle), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if model != "" {
		if err := os.WriteFile(filepath.Join(dir, "final_model.json"), []byte(model), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeArtifacts(t, validBundle, validModel)

	a, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Model.Kind() != "logistic" {
		t.Fatalf("expected logistic model, got %s", a.Model.Kind())
	}
	if len(a.Bundle.SanitizedFeatureNames) != 3 {
		t.Fatalf("expected 3 sanitized features, got %d", len(a.Bundle.SanitizedFeatureNames))
	}
	if a.Bundle.Imputer == nil || a.Bundle.Imputer.Strategy != "mean" {
		t.Fatalf("imputer not loaded: %+v", a.Bundle.Imputer)
	}
	if enc, ok := a.Bundle.LabelEncoders["race"]; !ok || len(enc.Classes) != 2 {
		t.Fatalf("race encoder not loaded: %+v", a.Bundle.LabelEncoders)
	}
	if a.Top20 != nil {
		t.Fatalf("expected no top20 names, got %v", a.Top20)
	}
}

func TestLoadMissingBundleFails(t *testing.T) {
	dir := writeArtifacts(t, "", validModel)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing bundle")
	}
}

func TestLoadMissingModelFails(t *testing.T) {
	dir := writeArtifacts(t, validBundle, "")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestLoadCorruptBundleFails(t *testing.T) {
	dir := writeArtifacts(t, "{broken", validModel)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for corrupt bundle")
	}
}

func TestLoadTop20SingleColumn(t *testing.T) {
	dir := writeArtifacts(t, validBundle, validModel)
	csv := "feature_name\ntime_in_hospital\nnumber_inpatient\n"
	if err := os.WriteFile(filepath.Join(dir, "top_20_features.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Top20) != 2 || a.Top20[0] != "time_in_hospital" {
		t.Fatalf("unexpected top 20 names: %v", a.Top20)
	}
}

func TestLoadTop20FeatureColumn(t *testing.T) {
	dir := writeArtifacts(t, validBundle, validModel)
	csv := "rank,feature\n1,diabetesMed\n2,number_emergency\n"
	if err := os.WriteFile(filepath.Join(dir, "top_20_features.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Top20) != 2 || a.Top20[0] != "diabetesMed" {
		t.Fatalf("unexpected top 20 names: %v", a.Top20)
	}
}

func TestLoadTop20BadFileIsNotFatal(t *testing.T) {
	dir := writeArtifacts(t, validBundle, validModel)
	if err := os.WriteFile(filepath.Join(dir, "top_20_features.csv"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Top20 != nil {
		t.Fatalf("expected no names from empty file, got %v", a.Top20)
	}
}
