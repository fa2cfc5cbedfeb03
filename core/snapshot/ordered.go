// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package snapshot

import (
	"bytes"
	"encoding/json"

	"github.com/juju/errors"
)

// OrderedMap is a JSON object decoded with its key order preserved.
// The query engine enumerates entities in snapshot order, which the
// built-in map type throws away.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// MakeOrderedMap builds an OrderedMap from alternating construction
// calls; intended for tests and for building fixture documents.
func MakeOrderedMap[V any](pairs ...any) OrderedMap[V] {
	m := OrderedMap[V]{values: make(map[string]V)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.keys = append(m.keys, pairs[i].(string))
		m.values[pairs[i].(string)] = pairs[i+1].(V)
	}
	return m
}

// Keys returns the map's keys in document order.
func (m OrderedMap[V]) Keys() []string {
	return m.keys
}

// Get returns the value for key, reporting whether it was present.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m OrderedMap[V]) Len() int {
	return len(m.keys)
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null decodes as
// the empty map, per the json.Unmarshaler convention.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &m.values); err != nil {
		return errors.Trace(err)
	}
	keys, err := objectKeys(data)
	if err != nil {
		return errors.Trace(err)
	}
	m.keys = keys
	return nil
}

// MarshalJSON implements json.Marshaler. Key order is not preserved on
// the way out; marshalling exists only so snapshots can round-trip in
// tests and cache files.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	if m.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.values)
}

// objectKeys returns the top-level keys of a JSON object in document
// order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("expected JSON object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Trace(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return keys, nil
}

// skipValue consumes one complete JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Trace(err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err = dec.Token()
		if err != nil {
			return errors.Trace(err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
