package frame

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// FromCSV builds a frame from CSV data. The first row is the header; cells
// parse as float64 where possible, empty cells become nil, everything else
// stays a string.
func FromCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV input")
	}
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	var cells [][]any
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i := range cols {
			if i >= len(rec) {
				continue
			}
			row[i] = parseCell(rec[i])
		}
		cells = append(cells, row)
	}

	f := New(len(cells))
	for j, name := range cols {
		col := make([]any, len(cells))
		for i := range cells {
			col[i] = cells[i][j]
		}
		f.SetColumn(name, col)
	}
	return f, nil
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
