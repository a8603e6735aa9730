package predict

import (
	"math"
	"sort"
	"strings"

	"github.com/clinstack/patient-risk-api/internal/artifacts"
	"github.com/clinstack/patient-risk-api/internal/frame"
)

const (
	maxHighlights = 20
	minHighlights = 5
)

// alwaysInclude are clinically salient fields shown for context even when
// their value is zero or absent.
var alwaysInclude = map[string]bool{
	"diabetesMed":      true,
	"time_in_hospital": true,
	"number_inpatient": true,
	"number_emergency": true,
	"age_70":           true,
}

// basicFeatures backfill the highlight map when too few fields qualified.
var basicFeatures = []string{
	"time_in_hospital",
	"number_diagnoses",
	"num_medications",
	"diabetesMed",
	"age_70",
	"Patient_ID",
}

type pair struct {
	name  string
	value any
}

// Highlight builds the ordered map of up to 20 meaningful feature/value
// pairs for one row of the raw input frame. When the bundle declares
// selected features those lead, in order; otherwise meaningful fields are
// ranked by absolute magnitude. The precedence here is load-bearing.
func Highlight(f *frame.Frame, row int, b *artifacts.Bundle) *frame.FeatureMap {
	var order []pair
	byName := map[string]any{}
	for _, col := range f.Columns() {
		val := f.Cell(col, row)
		if meaningful(val) {
			order = append(order, pair{col, val})
			byName[col] = val
		}
	}

	out := frame.NewFeatureMap()
	if len(b.SelectedFeatures) > 0 {
		priority := prioritize(f, row, b.SelectedFeatures, order, byName)
		for _, p := range priority {
			if out.Len() >= maxHighlights {
				break
			}
			out.Set(p.name, p.value)
		}
	} else {
		sorted := make([]pair, len(order))
		copy(sorted, order)
		sort.SliceStable(sorted, func(i, j int) bool {
			return magnitude(sorted[i].value) > magnitude(sorted[j].value)
		})
		for _, p := range sorted {
			if out.Len() >= maxHighlights {
				break
			}
			out.Set(p.name, p.value)
		}
	}

	if out.Len() < minHighlights {
		for _, feat := range basicFeatures {
			if !f.HasColumn(feat) || out.Has(feat) {
				continue
			}
			val := f.Cell(feat, row)
			if val == nil {
				val = float64(0)
			}
			out.Set(feat, val)
			if out.Len() >= maxHighlights {
				break
			}
		}
	}
	return out
}

// prioritize walks the first 20 selected features in order: exact meaningful
// match, then the ':' name variant, then the always-include raw value
// (default 0). Remaining meaningful fields follow unless already covered
// under a variant name.
func prioritize(f *frame.Frame, row int, selected []string, order []pair, byName map[string]any) []pair {
	var priority []pair
	limit := len(selected)
	if limit > maxHighlights {
		limit = maxHighlights
	}
	for _, feat := range selected[:limit] {
		alt := strings.ReplaceAll(feat, "_", ":")
		switch {
		case byName[feat] != nil:
			priority = append(priority, pair{feat, byName[feat]})
		case byName[alt] != nil:
			priority = append(priority, pair{feat, byName[alt]})
		case alwaysInclude[feat]:
			priority = append(priority, pair{feat, rawValue(f, row, feat, alt)})
		}
	}

	for _, p := range order {
		folded := strings.ReplaceAll(p.name, ":", "_")
		dup := false
		for _, pf := range priority {
			if p.name == pf.name || folded == pf.name {
				dup = true
				break
			}
		}
		if !dup {
			priority = append(priority, p)
		}
	}
	return priority
}

func rawValue(f *frame.Frame, row int, feat, alt string) any {
	var val any
	if f.HasColumn(feat) {
		val = f.Cell(feat, row)
	} else if f.HasColumn(alt) {
		val = f.Cell(alt, row)
	}
	if val == nil {
		return float64(0)
	}
	return val
}

// meaningful reports whether a value is worth showing: present, non-zero,
// non-empty and not the literal string "None".
func meaningful(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case float64:
		return x != 0
	case int:
		return x != 0
	case bool:
		return x
	case string:
		return x != "" && x != "None"
	default:
		return true
	}
}

// magnitude ranks a value for the no-selected-features path: absolute
// numeric value, with non-numeric values weighted 1.
func magnitude(v any) float64 {
	switch x := v.(type) {
	case float64:
		return math.Abs(x)
	case int:
		return math.Abs(float64(x))
	default:
		return 1
	}
}
