// Package frame provides the small column-ordered table the preprocessing
// pipeline works on. Cells are scalars: nil, float64, string or bool.
package frame

import "strconv"

// Frame is a named-column table. Column order is significant and preserved
// by every operation; the model consumes columns positionally.
type Frame struct {
	cols []string
	data map[string][]any
	rows int
}

// New returns an empty frame with the given number of rows.
func New(rows int) *Frame {
	return &Frame{data: map[string][]any{}, rows: rows}
}

// FromRecords builds a frame from flat records. Column order is the order in
// which keys are first seen across the records; rows missing a key get nil.
func FromRecords(recs []Record) *Frame {
	f := New(len(recs))
	for _, rec := range recs {
		for _, k := range rec.Keys {
			if _, ok := f.data[k]; !ok {
				f.cols = append(f.cols, k)
				f.data[k] = make([]any, len(recs))
			}
		}
	}
	for i, rec := range recs {
		for _, k := range rec.Keys {
			f.data[k][i] = rec.Values[k]
		}
	}
	return f
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return f.cols }

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns the cells of the named column, or nil if absent.
func (f *Frame) Column(name string) []any { return f.data[name] }

// Cell returns the value at (column, row), or nil if the column is absent.
func (f *Frame) Cell(name string, row int) any {
	col, ok := f.data[name]
	if !ok {
		return nil
	}
	return col[row]
}

// SetColumn replaces or appends a column. The slice length must equal the
// frame's row count.
func (f *Frame) SetColumn(name string, cells []any) {
	if _, ok := f.data[name]; !ok {
		f.cols = append(f.cols, name)
	}
	f.data[name] = cells
}

// ZeroColumn appends or replaces a column filled with the constant 0.
func (f *Frame) ZeroColumn(name string) {
	cells := make([]any, f.rows)
	for i := range cells {
		cells[i] = float64(0)
	}
	f.SetColumn(name, cells)
}

// Select returns a new frame containing exactly the named columns, in that
// order. Absent columns come back zero-filled. Cell slices are copied so
// writes to the selection never reach the source frame.
func (f *Frame) Select(names []string) *Frame {
	out := New(f.rows)
	for _, name := range names {
		if col, ok := f.data[name]; ok {
			out.SetColumn(name, CopyCells(col))
		} else {
			out.ZeroColumn(name)
		}
	}
	return out
}

// CopyCells clones a cell slice.
func CopyCells(cells []any) []any {
	return append([]any(nil), cells...)
}

// Matrix lowers the frame to a numeric matrix, row-major. Numeric strings are
// parsed; anything non-numeric becomes 0.
func (f *Frame) Matrix() [][]float64 {
	m := make([][]float64, f.rows)
	for i := range m {
		row := make([]float64, len(f.cols))
		for j, name := range f.cols {
			if v, ok := Numeric(f.data[name][i]); ok {
				row[j] = v
			}
		}
		m[i] = row
	}
	return m
}

// Numeric converts a cell to float64 where possible.
func Numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Missing reports whether a cell counts as absent for imputation purposes.
func Missing(v any) bool { return v == nil }
