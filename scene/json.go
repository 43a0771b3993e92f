package scene

import (
	"encoding/json"
	"fmt"
)

// FromJSON parses a whole document from JSON bytes. The format is a nested
// root list, the shape ToJSON writes:
//
//	{
//	  "roots": [
//	    {"id": "a", "type": "frame", "width": 100, "children": [...]}
//	  ]
//	}
//
// Decoding is permissive: numbers may arrive as ints or floats, unknown
// keys are ignored.
func FromJSON(data []byte) (*Store, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	s := NewStore()
	rootsRaw, found := raw["roots"]
	if !found {
		return s, nil
	}
	roots, ok := rootsRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("\"roots\" must be an array")
	}
	for _, rr := range roots {
		rm, ok := rr.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("root entry must be an object")
		}
		t, err := FromMap(rm)
		if err != nil {
			return nil, err
		}
		if err := s.Insert(t, ""); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ToJSON serializes the document to indented JSON bytes.
func (s *Store) ToJSON() ([]byte, error) {
	roots := make([]any, 0, len(s.Roots))
	for _, id := range s.Roots {
		if v := s.View(id, -1); v != nil {
			roots = append(roots, v)
		}
	}
	return json.MarshalIndent(map[string]any{"roots": roots}, "", "  ")
}
