package store

import (
	"encoding/json"
	"fmt"
)

// marshalOutcomes serializes a potential-outcome set as a JSON array.
// Plain encoding/json is fine here: the column is storage, not identity.
func marshalOutcomes(outcomes []int) (string, error) {
	b, err := json.Marshal(outcomes)
	if err != nil {
		return "", fmt.Errorf("marshal outcomes: %w", err)
	}
	return string(b), nil
}

// unmarshalOutcomes deserializes a potential-outcome column.
func unmarshalOutcomes(data string) ([]int, error) {
	var outcomes []int
	if err := json.Unmarshal([]byte(data), &outcomes); err != nil {
		return nil, fmt.Errorf("unmarshal outcomes %q: %w", data, err)
	}
	return outcomes, nil
}
