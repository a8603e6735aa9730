package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoRecords is returned when a payload's records field is missing, not a
// list, or empty.
var ErrNoRecords = errors.New("records must be a non-empty list")

// Record is one flat patient record with its field order preserved. Stdlib
// maps drop JSON object order, but field order feeds the highlighter, so
// records are decoded token-by-token.
type Record struct {
	Keys   []string
	Values map[string]any
}

// Set appends or replaces a field.
func (r *Record) Set(key string, value any) {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	if _, ok := r.Values[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = value
}

// RecordsFromPayload parses a {"records": [...]} JSON document into ordered
// records. Malformed JSON is a decode error; a missing, non-list or empty
// records field is ErrNoRecords.
func RecordsFromPayload(data []byte) ([]Record, error) {
	var envelope struct {
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(envelope.Records)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrNoRecords
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoRecords
	}
	recs := make([]Record, 0, len(items))
	for _, raw := range items {
		rec, err := RecordFromJSON(raw)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// RecordFromJSON parses a single flat JSON object into an ordered record.
func RecordFromJSON(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return Record{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Record{}, fmt.Errorf("expected JSON object, got %v", tok)
	}
	rec := Record{Values: map[string]any{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key := fmt.Sprint(keyTok)
		val, err := decodeValue(dec)
		if err != nil {
			return Record{}, err
		}
		rec.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return Record{}, err
	}
	return rec, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := map[string]any{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj[fmt.Sprint(keyTok)] = v
			}
			_, err := dec.Token()
			return obj, err
		case '[':
			var arr []any
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			_, err := dec.Token()
			return arr, err
		}
		return nil, io.ErrUnexpectedEOF
	default:
		return tok, nil
	}
}
