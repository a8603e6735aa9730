package frame

import (
	"bytes"
	"encoding/json"
)

// FeatureMap is a string-keyed map that marshals to JSON in insertion order.
// The highlighter's output order carries meaning (the narration prompt takes
// the first entries), and Go maps would scramble it.
type FeatureMap struct {
	keys   []string
	values map[string]any
}

// NewFeatureMap returns an empty ordered map.
func NewFeatureMap() *FeatureMap {
	return &FeatureMap{values: map[string]any{}}
}

// Set inserts or updates a key, keeping first-insertion order.
func (m *FeatureMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it is present.
func (m *FeatureMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *FeatureMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of entries.
func (m *FeatureMap) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *FeatureMap) Keys() []string { return m.keys }

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *FeatureMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
