// Package pipeline turns raw patient records into the numeric matrix the
// model expects, applying the saved preprocessing bundle step by step.
// The name reconciliation and fallbacks are best effort: columns that cannot
// be resolved default to 0, which skews predictions toward whatever 0 means
// for that feature.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinstack/patient-risk-api/internal/artifacts"
	"github.com/clinstack/patient-risk-api/internal/frame"
)

// Preprocess reconciles, encodes, imputes and selects in order, producing
// one numeric row per input record.
func Preprocess(f *frame.Frame, b *artifacts.Bundle) ([][]float64, error) {
	if f.NumRows() == 0 {
		return nil, fmt.Errorf("no rows to preprocess")
	}

	out := Reconcile(f, b)
	encode(out, b)
	impute(out, b)
	return selectFeatures(out, b), nil
}

// Reconcile maps the input's columns onto the bundle's sanitized feature
// list. Precedence per expected name: the original column name (via the
// inverted mapping), the sanitized name itself, a normalized match with ':'
// and spaces folded to '_', and finally a zero-filled default.
func Reconcile(f *frame.Frame, b *artifacts.Bundle) *frame.Frame {
	if len(b.FeatureNameMapping) == 0 {
		// No mapping: just make sure every expected column exists, in order.
		return f.Select(b.SanitizedFeatureNames)
	}

	reverse := make(map[string]string, len(b.FeatureNameMapping))
	for original, sanitized := range b.FeatureNameMapping {
		reverse[sanitized] = original
	}

	out := frame.New(f.NumRows())
	for _, sanitized := range b.SanitizedFeatureNames {
		original, ok := reverse[sanitized]
		if !ok {
			original = sanitized
		}
		// Columns are copied: imputation writes into the reconciled frame,
		// and the highlighter reads the raw input afterwards.
		switch {
		case f.HasColumn(original):
			out.SetColumn(sanitized, frame.CopyCells(f.Column(original)))
		case f.HasColumn(sanitized):
			out.SetColumn(sanitized, frame.CopyCells(f.Column(sanitized)))
		default:
			if col, ok := normalizedMatch(f, sanitized); ok {
				out.SetColumn(sanitized, frame.CopyCells(col))
				continue
			}
			out.ZeroColumn(sanitized)
			logrus.WithField("feature", sanitized).Warn("feature not found, filled with 0")
		}
	}
	return out
}

func normalizedMatch(f *frame.Frame, sanitized string) ([]any, bool) {
	for _, col := range f.Columns() {
		normalized := strings.ReplaceAll(strings.ReplaceAll(col, ":", "_"), " ", "_")
		if normalized == sanitized {
			return f.Column(col), true
		}
	}
	return nil, false
}

// encode applies each label encoder to its column, substituting the
// encoder's first class for unseen categories before encoding. A column
// whose encoder cannot be applied is left as-is.
func encode(f *frame.Frame, b *artifacts.Bundle) {
	for col, enc := range b.LabelEncoders {
		if !f.HasColumn(col) {
			continue
		}
		if len(enc.Classes) == 0 {
			logrus.WithField("column", col).Warn("could not apply label encoder: no classes")
			continue
		}
		index := make(map[string]int, len(enc.Classes))
		for i, class := range enc.Classes {
			index[class] = i
		}
		cells := f.Column(col)
		encoded := make([]any, len(cells))
		warned := map[string]bool{}
		for i, cell := range cells {
			if frame.Missing(cell) {
				continue
			}
			key := cellKey(cell)
			idx, ok := index[key]
			if !ok {
				// One warning per unique unseen value per column.
				if !warned[key] {
					logrus.WithFields(logrus.Fields{"column": col, "value": key}).
						Warn("unseen category, replacing with first known class")
					warned[key] = true
				}
				idx = 0
			}
			encoded[i] = float64(idx)
		}
		f.SetColumn(col, encoded)
	}
}

func cellKey(cell any) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}

// impute fills missing cells from the imputer's per-column statistics,
// falling back to zero-fill when the statistics do not line up.
func impute(f *frame.Frame, b *artifacts.Bundle) {
	if b.Imputer == nil {
		return
	}
	stats := b.Imputer.Statistics
	if len(stats) != f.NumCols() {
		logrus.WithFields(logrus.Fields{
			"statistics": len(stats),
			"columns":    f.NumCols(),
		}).Warn("imputation failed, filling missing values with 0")
		stats = nil
	}
	for j, name := range f.Columns() {
		cells := f.Column(name)
		for i, cell := range cells {
			if !frame.Missing(cell) {
				continue
			}
			if stats != nil {
				cells[i] = stats[j]
			} else {
				cells[i] = float64(0)
			}
		}
	}
}

// selectFeatures applies the selector, falling back to indexing the
// selected-feature columns by name, and finally to passing everything
// through.
func selectFeatures(f *frame.Frame, b *artifacts.Bundle) [][]float64 {
	if b.Selector == nil || len(b.SelectedFeatures) == 0 {
		return f.Matrix()
	}

	sel := b.Selector
	switch {
	case len(sel.Support) > 0:
		if len(sel.Support) == f.NumCols() {
			var keep []string
			for j, name := range f.Columns() {
				if sel.Support[j] {
					keep = append(keep, name)
				}
			}
			return f.Select(keep).Matrix()
		}
	case len(sel.Indices) > 0:
		keep := make([]string, 0, len(sel.Indices))
		cols := f.Columns()
		valid := true
		for _, idx := range sel.Indices {
			if idx < 0 || idx >= len(cols) {
				valid = false
				break
			}
			keep = append(keep, cols[idx])
		}
		if valid {
			return f.Select(keep).Matrix()
		}
	}

	logrus.Warn("feature selection failed, selecting features by name")
	var available []string
	for _, name := range b.SelectedFeatures {
		if f.HasColumn(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return f.Matrix()
	}
	return f.Select(available).Matrix()
}
