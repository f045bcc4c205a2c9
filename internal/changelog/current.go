package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// IDSet is a set of video identifiers.
type IDSet map[string]struct{}

// NewIDSet creates a set holding the given identifiers.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// ParseCurrentIDs reads a stream of concatenated JSON values and collects the
// "id" of every element of each value's "items" array. Values and elements
// without that shape are skipped. Invalid JSON ends the stream; identifiers
// collected before it are kept.
func ParseCurrentIDs(r io.Reader) IDSet {
	ids := NewIDSet()
	dec := json.NewDecoder(r)
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// io.EOF or a syntax error; the decoder cannot resynchronise either way.
			return ids
		}
		for _, item := range rawArrayField(raw, "items") {
			if id, ok := stringField(item, "id"); ok {
				ids.Add(id)
			}
		}
	}
}

// rawArrayField returns the elements of the array stored under key, or nil
// when raw is not an object or the field is missing or not an array.
func rawArrayField(raw json.RawMessage, key string) []json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	field, ok := obj[key]
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil {
		return nil
	}
	return elems
}

func stringField(raw json.RawMessage, key string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	field, ok := obj[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(field, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// LoadCurrentIDs reads the summary document at path in the given commit and
// parses it with ParseCurrentIDs. Failing to resolve the document is an error.
func LoadCurrentIDs(h History, commitID, path string) (IDSet, error) {
	data, err := h.ReadFile(commitID, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", path, commitID, err)
	}
	return ParseCurrentIDs(bytes.NewReader(data)), nil
}
